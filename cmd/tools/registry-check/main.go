// cmd/tools/registry-check/main.go
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"loan-intake-workers/internal/common/config"
	"loan-intake-workers/pkg/registry"
)

var registryPath string

func main() {
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	listCmd := flag.NewFlagSet("list", flag.ExitOnError)
	updateCmd := flag.NewFlagSet("update", flag.ExitOnError)

	for _, fs := range []*flag.FlagSet{validateCmd, listCmd, updateCmd} {
		fs.StringVar(&registryPath, "path", "pkg/registry/activities.json", "Path to registry file")
	}
	idUpdate := updateCmd.String("id", "", "Activity ID to update")
	field := updateCmd.String("field", "", "Field to update (status, version, timeout, retries)")
	value := updateCmd.String("value", "", "New value for the field")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "validate":
		validateCmd.Parse(os.Args[2:])
		if err := validateRegistry(); err != nil {
			fmt.Printf("Registry validation failed: %v\n", err)
			os.Exit(1)
		}

	case "list":
		listCmd.Parse(os.Args[2:])
		if err := listActivities(); err != nil {
			fmt.Printf("Error listing activities: %v\n", err)
			os.Exit(1)
		}

	case "update":
		updateCmd.Parse(os.Args[2:])
		if *idUpdate == "" || *field == "" || *value == "" {
			fmt.Println("Error: id, field, and value are required for update.")
			updateCmd.Usage()
			os.Exit(1)
		}
		if err := updateActivity(*idUpdate, *field, *value); err != nil {
			fmt.Printf("Error updating activity: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Updated activity %s, field %s to %s\n", *idUpdate, *field, *value)

	default:
		help()
	}
}

// validateRegistry loads the registry and cross-checks it against the
// worker section of the application config when one can be loaded.
func validateRegistry() error {
	reg, err := registry.LoadRegistry(registryPath)
	if err != nil {
		return err
	}

	for _, a := range reg.Activities {
		if _, err := a.TimeoutDuration(); err != nil {
			return err
		}
		if a.InputSchema == nil {
			return fmt.Errorf("activity %s has no input schema", a.ID)
		}
	}

	if cfg, err := config.Load(); err == nil {
		for _, taskType := range reg.TaskTypes() {
			if _, ok := cfg.Workers[taskType]; !ok {
				fmt.Printf("warning: %s has no workers entry in config, defaults apply\n", taskType)
			}
		}
	}

	fmt.Printf("Registry validation passed. Found %d activities.\n", len(reg.Activities))
	return nil
}

func listActivities() error {
	reg, err := registry.LoadRegistry(registryPath)
	if err != nil {
		return err
	}
	for _, a := range reg.Activities {
		fmt.Printf("%-24s %-10s timeout=%-4s retries=%d errors=%v\n",
			a.TaskType, a.ImplementationStatus, a.Timeout, a.Retries, a.ErrorCodes)
	}
	return nil
}

func updateActivity(id, field, value string) error {
	reg, err := registry.LoadRegistry(registryPath)
	if err != nil {
		return err
	}

	var target *registry.Activity
	for i := range reg.Activities {
		if reg.Activities[i].ID == id {
			target = &reg.Activities[i]
			break
		}
	}
	if target == nil {
		return fmt.Errorf("activity with ID %s not found", id)
	}

	switch field {
	case "status":
		target.ImplementationStatus = value
	case "version":
		target.Version = value
	case "timeout":
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid timeout value: %w", err)
		}
		target.Timeout = value
	case "retries":
		retries, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid retries value: %w", err)
		}
		target.Retries = retries
	default:
		return fmt.Errorf("unknown field: %s", field)
	}

	reg.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	return os.WriteFile(registryPath, append(data, '\n'), 0o644)
}

func help() {
	fmt.Print(`
Usage: registry-check <command> [flags]

Commands:
  validate  Validate the activity registry
  list      Print each activity's task type, timeout and error codes
  update    Update an activity's status, version, timeout or retries

Examples:
  registry-check validate
  registry-check list -path pkg/registry/activities.json
  registry-check update -id persist-crust-score -field timeout -value 15s
` + "\n")
}
