package testing

import (
	"fmt"
	"sync"

	"boardcheck/internal/template"
	"boardcheck/pkg/logging"
)

// ScenarioContext holds results stored by earlier steps of one scenario.
type ScenarioContext struct {
	storedResults map[string]interface{}
	mu            sync.RWMutex
}

// NewScenarioContext creates a new scenario execution context
func NewScenarioContext() *ScenarioContext {
	return &ScenarioContext{
		storedResults: make(map[string]interface{}),
	}
}

// StoreResult stores a step result under the given variable name
func (sc *ScenarioContext) StoreResult(name string, result interface{}) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.storedResults[name] = result
	logging.Debug("TestFramework", "Stored result for variable '%s': %v", name, result)
}

// GetStoredResult retrieves a stored result by variable name
func (sc *ScenarioContext) GetStoredResult(name string) (interface{}, bool) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	result, exists := sc.storedResults[name]
	return result, exists
}

// GetAllStoredResults returns a copy of all stored results
func (sc *ScenarioContext) GetAllStoredResults() map[string]interface{} {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return template.MergeContexts(sc.storedResults)
}

// TemplateProcessor resolves template variables in step arguments.
type TemplateProcessor struct {
	context *ScenarioContext
	engine  *template.Engine
}

// NewTemplateProcessor creates a new template processor with the given scenario context
func NewTemplateProcessor(context *ScenarioContext, engine *template.Engine) *TemplateProcessor {
	if engine == nil {
		engine = template.New()
	}
	return &TemplateProcessor{context: context, engine: engine}
}

// ResolveArgs renders every templated argument against the stored results.
func (tp *TemplateProcessor) ResolveArgs(args map[string]interface{}) (map[string]interface{}, error) {
	if args == nil {
		return nil, nil
	}

	resolved, err := tp.engine.Replace(args, tp.context.GetAllStoredResults())
	if err != nil {
		return nil, err
	}

	resolvedMap, ok := resolved.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("template resolution returned unexpected type: %T", resolved)
	}

	logging.Debug("TestFramework", "Template resolution completed. Original: %v, Resolved: %v", args, resolvedMap)
	return resolvedMap, nil
}
