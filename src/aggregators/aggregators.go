// Package aggregators is the registry of gradient aggregation rules consulted
// by sessions. Rules are registered by name by whichever driver defines them;
// this package only stores the descriptors.
package aggregators

import "sync"

// Rule describes one registered aggregation rule. UpperBound, when non-nil,
// computes the theoretical ratio upper bound for n workers among which f are
// Byzantine.
type Rule struct {
	Name       string
	UpperBound func(n, f int) float64
}

var (
	mu   sync.RWMutex
	gars = make(map[string]Rule)
)

// Register adds or replaces a rule descriptor.
func Register(rule Rule) {
	mu.Lock()
	defer mu.Unlock()
	gars[rule.Name] = rule
}

// Get looks a rule up by name.
func Get(name string) (Rule, bool) {
	mu.RLock()
	defer mu.RUnlock()
	rule, ok := gars[name]
	return rule, ok
}
