package aggregators

import "testing"

func TestRegisterAndGet(t *testing.T) {
	Register(Rule{Name: "median", UpperBound: func(n, f int) float64 { return float64(f) / float64(n-f) }})
	rule, ok := Get("median")
	if !ok {
		t.Fatalf("registered rule must be found")
	}
	if rule.UpperBound == nil {
		t.Fatalf("rule must keep its upper bound")
	}
	if got := rule.UpperBound(10, 2); got != 0.25 {
		t.Fatalf("unexpected bound: %v", got)
	}
	if _, ok := Get("no such rule"); ok {
		t.Fatalf("unknown rule must not be found")
	}
}
