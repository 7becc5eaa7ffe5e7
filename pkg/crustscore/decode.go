package crustscore

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DirectKeys are the lowercase sub-score keys that select direct mode when
// all of them are present in a flat record.
var DirectKeys = []string{"a1", "a2", "a3", "b1", "b2", "b3", "b4", "b5", "c1", "c2", "c3"}

// IsDirect reports whether fields carries every direct-mode key. Extra keys
// are ignored, so a record with both shapes is direct.
func IsDirect(fields map[string]interface{}) bool {
	for _, k := range DirectKeys {
		if _, ok := fields[k]; !ok {
			return false
		}
	}
	return true
}

// ParseInput decodes a flat record, as received in a JSON body or job
// variables, into an Input. Mode is chosen by IsDirect.
func ParseInput(fields map[string]interface{}) (Input, error) {
	if IsDirect(fields) {
		s, err := DecodeSubScores(fields)
		if err != nil {
			return Input{}, err
		}
		return FromSubScores(s), nil
	}
	r, err := DecodeRawInputs(fields)
	if err != nil {
		return Input{}, err
	}
	return FromRawInputs(r), nil
}

// Calculate parses fields and scores them.
func Calculate(fields map[string]interface{}) (*Result, error) {
	in, err := ParseInput(fields)
	if err != nil {
		return nil, err
	}
	return Score(in)
}

// DecodeSubScores reads the eleven direct-mode keys. A value that cannot be
// read as a number yields an InvalidFieldError.
func DecodeSubScores(fields map[string]interface{}) (SubScores, error) {
	var s SubScores
	targets := []*float64{&s.A1, &s.A2, &s.A3, &s.B1, &s.B2, &s.B3, &s.B4, &s.B5, &s.C1, &s.C2, &s.C3}
	for i, k := range DirectKeys {
		v, ok := toNumber(fields[k])
		if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
			return SubScores{}, &InvalidFieldError{Field: k, Value: fields[k]}
		}
		*targets[i] = v
	}
	return s, nil
}

// DecodeRawInputs checks that every required key is present and converts the
// values. Numeric fields that cannot be read as numbers become NaN, which
// fails every rule comparison and passes every range check.
func DecodeRawInputs(fields map[string]interface{}) (RawInputs, error) {
	if err := CheckRequired(fields); err != nil {
		return RawInputs{}, err
	}

	num := func(key string) float64 {
		v, ok := toNumber(fields[key])
		if !ok {
			return math.NaN()
		}
		return v
	}
	str := func(key string) string {
		switch v := fields[key].(type) {
		case nil:
			return ""
		case string:
			return v
		default:
			return fmt.Sprint(v)
		}
	}

	return RawInputs{
		TitleClarity:             str(FieldTitleClarity),
		ApprovalsComplete:        str(FieldApprovalsComplete),
		LocationTier:             str(FieldLocationTier),
		InfraDistanceKm:          num(FieldInfraDistanceKm),
		AbsorptionRate:           num(FieldAbsorptionRate),
		MarketDemand:             str(FieldMarketDemand),
		CibilScore:               num(FieldCibilScore),
		CommercialScore:          num(FieldCommercialScore),
		NetWorthCr:               num(FieldNetWorthCr),
		DebtEquityRatio:          num(FieldDebtEquityRatio),
		PATMargin:                num(FieldPATMargin),
		Defaults:                 num(FieldDefaults),
		DPDDays:                  num(FieldDPDDays),
		UnitPricingCr:            num(FieldUnitPricingCr),
		ProjectedCashflowCr:      num(FieldProjectedCashflowCr),
		LoanObligationCr:         num(FieldLoanObligationCr),
		CashReservesCr:           num(FieldCashReservesCr),
		Escrow:                   str(FieldEscrow),
		FinancialCrimes:          str(FieldFinancialCrimes),
		DeveloperContributionPct: num(FieldDeveloperContributionPct),
		ProjectCostCr:            num(FieldProjectCostCr),
		DefaultsNonNumeric:       !isNumber(fields[FieldDefaults]),
		DPDDaysNonNumeric:        !isNumber(fields[FieldDPDDays]),
	}, nil
}

// isNumber reports whether v was decoded from a JSON number.
func isNumber(v interface{}) bool {
	switch v.(type) {
	case float64, float32, int, int32, int64, json.Number:
		return true
	default:
		return false
	}
}

// toNumber reads v as a float64. null reads as 0 and booleans as 0 or 1.
// Strings are trimmed and an empty string reads as 0.
func toNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, true
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
