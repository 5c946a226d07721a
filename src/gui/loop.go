// Package gui hosts the process-wide background UI event loop and the
// windows (table grids, figure images) submitted to it.
package gui

import (
	"os"
	"runtime"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"github.com/pkg/errors"

	"github.com/avestel/MLRunViewer/src/tools"
)

// starter boots a UI event loop and returns the running application together
// with the submission primitive, or an error when the toolkit cannot run in
// this environment.
type starter func() (fyne.App, func(func()), error)

// service is the lazily started, process-wide UI loop. The loop is started at
// most once; once marked unavailable it stays so for the process lifetime.
type service struct {
	mu      sync.Mutex
	started bool
	reason  error // non-nil when the toolkit turned out unavailable
	app     fyne.App
	submit  func(func())
	start   starter
}

var shared = &service{start: fyneStart}

// Run submits fn to the shared UI loop, lazily starting the loop first.
// Submission is asynchronous: fn runs later on the UI thread, never inline.
// When the toolkit is unavailable every request degrades to a warning.
func Run(fn func(fyne.App)) { shared.run(fn) }

func (s *service) run(fn func(fyne.App)) {
	s.mu.Lock()
	if !s.started {
		s.started = true
		s.app, s.submit, s.reason = s.start()
	}
	reason, uiApp, submit := s.reason, s.app, s.submit
	s.mu.Unlock()
	if reason != nil {
		tools.Warningf("UI toolkit is unavailable: %v", reason)
		return
	}
	submit(func() { fn(uiApp) })
}

// fyneStart spins the fyne event loop up on its own goroutine. The loop never
// blocks process exit and is reused by every later display request.
func fyneStart() (fyne.App, func(func()), error) {
	if runtime.GOOS == "linux" && os.Getenv("DISPLAY") == "" && os.Getenv("WAYLAND_DISPLAY") == "" {
		return nil, nil, errors.New("no display server available")
	}
	uiApp := app.NewWithID("com.avestel.mlrunviewer")
	go func() {
		defer func() {
			if r := recover(); r != nil {
				tools.Warningf("UI event loop terminated: %v", r)
			}
		}()
		uiApp.Run()
	}()
	return uiApp, fyne.Do, nil
}
