package testing

import (
	"fmt"
	"sort"
	"strings"

	"boardcheck/internal/template"
)

// ArgSpec lists the arguments an action understands.
type ArgSpec struct {
	Required []string
	Optional []string
}

// ActionArgs describes the arguments of the built-in actions.
var ActionArgs = map[string]ArgSpec{
	ActionBoardCreate:     {Required: []string{"name"}},
	ActionBoardGet:        {Required: []string{"id"}},
	ActionBoardUpdateName: {Required: []string{"id", "name"}},
	ActionBoardDelete:     {Required: []string{"id"}},
	ActionBoardExists:     {Required: []string{"id"}},
	ActionBoardStatus:     {Required: []string{"id"}},

	ActionBoardGenerateName: {Optional: []string{"prefix"}},

	ActionWebOpenHome:         {Optional: []string{"url"}},
	ActionWebLogin:            {Optional: []string{"username", "password"}},
	ActionWebInvalidLogin:     {Required: []string{"username", "password"}},
	ActionWebErrorMessage:     {},
	ActionWebWaitBoardVisible: {Required: []string{"name"}},

	ActionMobileTapLogin:         {},
	ActionMobileTapGoogleLogin:   {},
	ActionMobileWaitBoardVisible: {Required: []string{"name"}},

	ActionSessionReady: {Required: []string{"channel"}},

	ActionFlowCreateAndObserve: {Optional: []string{"name", "channels"}},
}

// ScenarioValidationResults represents the results of validating multiple scenarios
type ScenarioValidationResults struct {
	TotalScenarios    int                        `json:"total_scenarios"`
	ValidScenarios    int                        `json:"valid_scenarios"`
	TotalErrors       int                        `json:"total_errors"`
	ScenarioResults   []ScenarioValidationResult `json:"scenario_results"`
	ValidationSummary map[string]int             `json:"validation_summary"`
}

// ScenarioValidationResult represents the validation result for a single scenario
type ScenarioValidationResult struct {
	ScenarioName string            `json:"scenario_name"`
	Valid        bool              `json:"valid"`
	Errors       []ValidationError `json:"errors,omitempty"`
}

// ValidationError represents a validation error
type ValidationError struct {
	Type       string `json:"type"`
	Message    string `json:"message"`
	Field      string `json:"field,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// ValidateScenarioArgs checks every step's arguments against ActionArgs
// without running anything.
func ValidateScenarioArgs(scenarios []TestScenario) *ScenarioValidationResults {
	results := &ScenarioValidationResults{
		TotalScenarios:    len(scenarios),
		ScenarioResults:   make([]ScenarioValidationResult, 0, len(scenarios)),
		ValidationSummary: make(map[string]int),
	}

	engine := template.New()
	for _, scenario := range scenarios {
		scenarioResult := ScenarioValidationResult{ScenarioName: scenario.Name, Valid: true}

		stored := make(map[string]bool)
		steps := append(append([]TestStep{}, scenario.Steps...), scenario.Cleanup...)
		for _, step := range steps {
			errs := validateStepArgs(step)
			errs = append(errs, validateStepRefs(engine, step, stored)...)
			if step.Store != "" {
				stored[step.Store] = true
			}
			if len(errs) == 0 {
				results.ValidationSummary["valid_steps"]++
				continue
			}
			scenarioResult.Valid = false
			results.ValidationSummary["invalid_steps"]++
			for _, err := range errs {
				results.ValidationSummary[err.Type]++
				err.Message = fmt.Sprintf("Step %s: %s", step.ID, err.Message)
				scenarioResult.Errors = append(scenarioResult.Errors, err)
			}
		}

		if scenarioResult.Valid {
			results.ValidScenarios++
		} else {
			results.TotalErrors += len(scenarioResult.Errors)
		}
		results.ScenarioResults = append(results.ScenarioResults, scenarioResult)
	}

	return results
}

func validateStepArgs(step TestStep) []ValidationError {
	spec, ok := ActionArgs[step.Action]
	if !ok {
		return []ValidationError{{
			Type:       "unknown_action",
			Message:    fmt.Sprintf("action '%s' is not registered", step.Action),
			Suggestion: "Known actions: " + strings.Join(DefaultActions().Names(), ", "),
		}}
	}

	var errs []ValidationError
	for _, name := range spec.Required {
		if _, present := step.Args[name]; !present {
			errs = append(errs, ValidationError{
				Type:    "missing_argument",
				Message: fmt.Sprintf("argument '%s' is required by '%s'", name, step.Action),
				Field:   name,
			})
		}
	}

	known := make(map[string]bool, len(spec.Required)+len(spec.Optional))
	for _, name := range append(append([]string{}, spec.Required...), spec.Optional...) {
		known[name] = true
	}
	names := make([]string, 0, len(step.Args))
	for name := range step.Args {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if !known[name] {
			errs = append(errs, ValidationError{
				Type:    "unexpected_argument",
				Message: fmt.Sprintf("argument '%s' not expected for '%s'", name, step.Action),
				Field:   name,
			})
		}
	}

	return errs
}

// validateStepRefs reports template references to results no earlier step
// stores.
func validateStepRefs(engine *template.Engine, step TestStep, stored map[string]bool) []ValidationError {
	var errs []ValidationError
	for _, name := range engine.ExtractVariables(step.Args) {
		if stored[name] {
			continue
		}
		errs = append(errs, ValidationError{
			Type:       "undefined_variable",
			Message:    fmt.Sprintf("'.%s' is not stored by an earlier step", name),
			Field:      name,
			Suggestion: fmt.Sprintf("Add 'store: %s' to the step that produces it", name),
		})
	}
	return errs
}

// FormatValidationResults formats validation results for CLI output
func FormatValidationResults(results *ScenarioValidationResults, verbose bool) string {
	var output strings.Builder

	output.WriteString("🔍 Scenario Validation Results\n")
	output.WriteString("══════════════════════════════\n")
	output.WriteString(fmt.Sprintf("Total scenarios: %d\n", results.TotalScenarios))
	output.WriteString(fmt.Sprintf("Valid scenarios: %d\n", results.ValidScenarios))
	output.WriteString(fmt.Sprintf("Invalid scenarios: %d\n", results.TotalScenarios-results.ValidScenarios))
	output.WriteString(fmt.Sprintf("Total errors: %d\n", results.TotalErrors))

	if len(results.ValidationSummary) > 0 {
		output.WriteString("\n📊 Validation Summary:\n")
		keys := make([]string, 0, len(results.ValidationSummary))
		for k := range results.ValidationSummary {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			output.WriteString(fmt.Sprintf("  %s: %d\n", k, results.ValidationSummary[k]))
		}
	}

	if verbose || results.TotalErrors > 0 {
		output.WriteString("\n📋 Scenario Details:\n")
		for _, scenarioResult := range results.ScenarioResults {
			status := "✅"
			if !scenarioResult.Valid {
				status = "❌"
			}
			output.WriteString(fmt.Sprintf("  %s %s\n", status, scenarioResult.ScenarioName))
			for _, err := range scenarioResult.Errors {
				output.WriteString(fmt.Sprintf("    • %s: %s\n", err.Type, err.Message))
				if err.Suggestion != "" {
					output.WriteString(fmt.Sprintf("      💡 %s\n", err.Suggestion))
				}
			}
		}
	}

	return output.String()
}
