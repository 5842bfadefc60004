package health

import (
	"sort"
	"time"

	"go.uber.org/multierr"
)

// Registry holds the ordered set of checks built at startup. It is not
// safe for concurrent mutation; register everything before serving.
type Registry struct {
	checks []Check
}

func NewRegistry() *Registry { return &Registry{} }

// Register appends a check. Registration order is the order results
// appear in every report.
func (r *Registry) Register(c Check) { r.checks = append(r.checks, c) }

// RegisterFunc registers a custom check function under the given name.
func (r *Registry) RegisterFunc(name string, fn CheckFunc) {
	r.Register(NewFuncCheck(name, fn))
}

// Checks returns the registered checks in registration order.
func (r *Registry) Checks() []Check { return r.checks }

func (r *Registry) Len() int { return len(r.checks) }

// CheckFuncs maps a probe category to named custom check functions.
// Liveness entries are ignored: liveness never runs dependency or
// custom checks. All other entries run for both readiness and full
// health, matching how the cascading categories behave.
type CheckFuncs map[Category]map[string]CheckFunc

// BuildRegistry resolves every configured dependency descriptor into an
// HTTP check and registers it ahead of the custom check functions.
// Map keys are walked in sorted order so the report sequence is stable
// across restarts. All bad descriptors are collected and reported
// together instead of one at a time.
func BuildRegistry(deps map[string]string, scheme, prefix string, timeout time.Duration, funcs CheckFuncs) (*Registry, error) {
	reg := NewRegistry()

	var errs error
	seen := make(map[string]bool)
	for _, key := range sortedKeys(deps) {
		probeURL, err := ProbeURL(key, deps[key], scheme, prefix, ReadinessPath)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		seen[key] = true
		reg.Register(NewHTTPCheck(key, probeURL, timeout))
	}

	for _, cat := range []Category{CategoryReadiness, CategoryFull} {
		for _, name := range sortedKeys(funcs[cat]) {
			if seen[name] {
				errs = multierr.Append(errs, &ConfigError{Key: name, Reason: "duplicate check name"})
				continue
			}
			seen[name] = true
			reg.RegisterFunc(name, funcs[cat][name])
		}
	}

	if errs != nil {
		return nil, errs
	}
	return reg, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
