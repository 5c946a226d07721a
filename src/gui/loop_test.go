package gui

import (
	"testing"

	"fyne.io/fyne/v2"
	"github.com/pkg/errors"
)

func TestService_StartsOnceAndSubmits(t *testing.T) {
	starts := 0
	ran := 0
	svc := &service{start: func() (fyne.App, func(func()), error) {
		starts++
		// Run submissions inline for the test.
		return nil, func(fn func()) { fn() }, nil
	}}
	for i := 0; i < 3; i++ {
		svc.run(func(fyne.App) { ran++ })
	}
	if starts != 1 {
		t.Fatalf("the loop must be started exactly once, got %d starts", starts)
	}
	if ran != 3 {
		t.Fatalf("every submission must run, got %d of 3", ran)
	}
}

func TestService_UnavailableToolkitDropsRequests(t *testing.T) {
	starts := 0
	svc := &service{start: func() (fyne.App, func(func()), error) {
		starts++
		return nil, nil, errors.New("no display server available")
	}}
	ran := false
	// Must not panic, must not run the job, must not retry the start.
	svc.run(func(fyne.App) { ran = true })
	svc.run(func(fyne.App) { ran = true })
	if ran {
		t.Fatalf("jobs must be dropped when the toolkit is unavailable")
	}
	if starts != 1 {
		t.Fatalf("an unavailable toolkit must not be probed again, got %d starts", starts)
	}
}
