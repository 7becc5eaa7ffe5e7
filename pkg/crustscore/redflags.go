package crustscore

import "fmt"

// MinDeveloperContribution is the share of project cost below which the
// developer's own stake is a red flag.
const MinDeveloperContribution = 0.15

type redFlagCheck func(RawInputs) (string, bool)

// redFlagChecks run in order; every match is reported.
var redFlagChecks = []redFlagCheck{
	func(r RawInputs) (string, bool) {
		return "Title dispute/legal litigation detected", r.TitleClarity == "disputed"
	},
	func(r RawInputs) (string, bool) {
		return "Financial crimes detected", r.FinancialCrimes == "yes"
	},
	func(r RawInputs) (string, bool) {
		if !(r.DeveloperContributionPct < MinDeveloperContribution) {
			return "", false
		}
		return fmt.Sprintf("Developer contribution (%s%%) is less than 15%%",
			toFixed(r.DeveloperContributionPct*100, 1)), true
	},
}

// DetectRedFlags returns the disqualifying conditions found in r, in check
// order. An empty slice means none were found.
func DetectRedFlags(r RawInputs) []string {
	flags := []string{}
	for _, check := range redFlagChecks {
		if msg, ok := check(r); ok {
			flags = append(flags, msg)
		}
	}
	return flags
}
