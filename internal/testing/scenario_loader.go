package testing

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed scenarios/*.yaml
var embeddedScenarios embed.FS

// DefaultScenariosFS returns the scenario set compiled into the binary.
func DefaultScenariosFS() fs.FS {
	sub, err := fs.Sub(embeddedScenarios, "scenarios")
	if err != nil {
		panic(err)
	}
	return sub
}

// scenarioLoader implements the TestScenarioLoader interface
type scenarioLoader struct {
	actions ActionRegistry
	debug   bool
	logger  TestLogger
}

// NewTestScenarioLoader creates a new test scenario loader
func NewTestScenarioLoader(debug bool) TestScenarioLoader {
	return NewTestScenarioLoaderWithLogger(debug, NewStdoutLogger(false, debug))
}

// NewTestScenarioLoaderWithLogger creates a new test scenario loader with custom logger
func NewTestScenarioLoaderWithLogger(debug bool, logger TestLogger) TestScenarioLoader {
	return &scenarioLoader{
		actions: DefaultActions(),
		debug:   debug,
		logger:  logger,
	}
}

// LoadScenarios loads test scenarios from the given path. An empty path
// loads the embedded defaults.
func (l *scenarioLoader) LoadScenarios(configPath string) ([]TestScenario, error) {
	if configPath == "" {
		l.logger.Debug("📁 Loading embedded test scenarios\n")
		scenarios, err := l.loadScenariosFromFS(DefaultScenariosFS(), "embedded")
		if err != nil {
			return nil, err
		}
		l.logLoaded(scenarios)
		return scenarios, nil
	}

	l.logger.Debug("📁 Loading test scenarios from: %s\n", configPath)

	info, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("scenario path does not exist: %s", configPath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat scenario path: %w", err)
	}

	var scenarios []TestScenario
	if info.IsDir() {
		scenarios, err = l.loadScenariosFromFS(os.DirFS(configPath), configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load scenarios from directory: %w", err)
		}
	} else {
		content, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", configPath, err)
		}
		scenario, err := l.parseScenario(content, configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load scenario from file: %w", err)
		}
		scenarios = append(scenarios, scenario)
	}

	l.logLoaded(scenarios)
	return scenarios, nil
}

func (l *scenarioLoader) logLoaded(scenarios []TestScenario) {
	l.logger.Debug("📋 Loaded %d test scenarios\n", len(scenarios))
	for _, scenario := range scenarios {
		l.logger.Debug("  • %s (%s) - %d steps\n", scenario.Name, scenario.Category, len(scenario.Steps))
	}
}

// loadScenariosFromFS loads every YAML file under fsys. Duplicate names are
// rejected so that --scenario stays unambiguous.
func (l *scenarioLoader) loadScenariosFromFS(fsys fs.FS, origin string) ([]TestScenario, error) {
	var scenarios []TestScenario
	seen := make(map[string]string)

	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isYAMLFile(p) {
			return nil
		}

		l.logger.Debug("📄 Loading scenario file: %s\n", p)

		content, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("failed to read file %s: %w", p, err)
		}
		display := path.Join(filepath.ToSlash(origin), p)
		scenario, err := l.parseScenario(content, display)
		if err != nil {
			return err
		}
		if prev, dup := seen[scenario.Name]; dup {
			return fmt.Errorf("duplicate scenario name %q in %s and %s", scenario.Name, prev, display)
		}
		seen[scenario.Name] = display

		scenarios = append(scenarios, scenario)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", origin, err)
	}

	sort.SliceStable(scenarios, func(i, j int) bool { return scenarios[i].Name < scenarios[j].Name })
	return scenarios, nil
}

func (l *scenarioLoader) parseScenario(content []byte, filePath string) (TestScenario, error) {
	var scenario TestScenario
	if err := yaml.Unmarshal(content, &scenario); err != nil {
		return scenario, fmt.Errorf("failed to parse YAML in %s: %w", filePath, err)
	}
	if err := l.validateScenario(scenario); err != nil {
		return scenario, fmt.Errorf("invalid scenario in %s: %w", filePath, err)
	}
	return scenario, nil
}

// validateScenario validates that a scenario has required fields
func (l *scenarioLoader) validateScenario(scenario TestScenario) error {
	if scenario.Name == "" {
		return fmt.Errorf("scenario name is required")
	}

	if scenario.Category == "" {
		return fmt.Errorf("scenario category is required")
	}
	if !isValidCategory(scenario.Category) {
		return fmt.Errorf("unknown category %q", scenario.Category)
	}

	channels := make(map[string]bool, len(scenario.Channels))
	for _, ch := range scenario.Channels {
		if ch != "web" && ch != "mobile" {
			return fmt.Errorf("unknown channel %q", ch)
		}
		channels[ch] = true
	}

	if len(scenario.Steps) == 0 {
		return fmt.Errorf("scenario must have at least one step")
	}

	for i, step := range scenario.Steps {
		if err := l.validateStep(step, channels); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}

	for i, step := range scenario.Cleanup {
		if err := l.validateStep(step, channels); err != nil {
			return fmt.Errorf("cleanup step %d: %w", i+1, err)
		}
	}

	return nil
}

// validateStep validates that a step has required fields and that its
// action's channel is opened by the scenario
func (l *scenarioLoader) validateStep(step TestStep, channels map[string]bool) error {
	if step.ID == "" {
		return fmt.Errorf("step id is required")
	}

	if step.Action == "" {
		return fmt.Errorf("step action is required")
	}
	if !l.actions.Has(step.Action) {
		return fmt.Errorf("%w: %s", ErrUnknownAction, step.Action)
	}

	group, _, _ := strings.Cut(step.Action, ".")
	switch group {
	case "web", "mobile":
		if !channels[group] {
			return fmt.Errorf("action %s needs the %s channel", step.Action, group)
		}
	case "flow":
		if len(channels) == 0 {
			return fmt.Errorf("action %s needs at least one channel", step.Action)
		}
	}

	if step.Retry != nil {
		if step.Retry.Count < 0 {
			return fmt.Errorf("retry count cannot be negative")
		}
		if step.Retry.Delay < 0 {
			return fmt.Errorf("retry delay cannot be negative")
		}
		if step.Retry.BackoffMultiplier < 0 {
			return fmt.Errorf("backoff multiplier cannot be negative")
		}
	}

	return nil
}

func isValidCategory(c TestCategory) bool {
	for _, valid := range ValidCategories {
		if c == valid {
			return true
		}
	}
	return false
}

// FilterScenarios filters scenarios based on the configuration
func (l *scenarioLoader) FilterScenarios(scenarios []TestScenario, config TestConfiguration) []TestScenario {
	l.logger.Debug("🔍 Filtering scenarios: category=%q tag=%q scenario=%q\n", config.Category, config.Tag, config.Scenario)

	var filtered []TestScenario
	for _, scenario := range scenarios {
		if config.Category != "" && scenario.Category != config.Category {
			continue
		}
		if config.Tag != "" && !scenario.HasTag(config.Tag) {
			continue
		}
		if config.Scenario != "" && scenario.Name != config.Scenario {
			continue
		}
		filtered = append(filtered, scenario)
	}

	l.logger.Debug("📊 Filtered to %d scenarios\n", len(filtered))
	return filtered
}

// isYAMLFile checks if a file has a YAML extension
func isYAMLFile(p string) bool {
	ext := strings.ToLower(path.Ext(p))
	return ext == ".yaml" || ext == ".yml"
}

// ScenarioTags returns every tag used by scenarios, sorted.
func ScenarioTags(scenarios []TestScenario) []string {
	set := make(map[string]bool)
	for _, scenario := range scenarios {
		for _, tag := range scenario.Tags {
			set[tag] = true
		}
	}
	tags := make([]string, 0, len(set))
	for tag := range set {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// LoadAndFilterScenarios provides a unified way to load and filter scenarios
func LoadAndFilterScenarios(configPath string, config TestConfiguration, logger TestLogger) ([]TestScenario, error) {
	var loader TestScenarioLoader
	if logger != nil {
		loader = NewTestScenarioLoaderWithLogger(config.Debug, logger)
	} else {
		loader = NewTestScenarioLoader(config.Debug)
	}

	scenarios, err := loader.LoadScenarios(configPath)
	if err != nil {
		return nil, err
	}

	return loader.FilterScenarios(scenarios, config), nil
}

// LoadScenariosForCompletion loads scenarios for shell completion. Errors
// yield an empty list so completion output stays clean.
func LoadScenariosForCompletion(configPath string) []TestScenario {
	loader := NewTestScenarioLoaderWithLogger(false, NewSilentLogger(false, false))
	scenarios, err := loader.LoadScenarios(configPath)
	if err != nil {
		return nil
	}
	return scenarios
}
