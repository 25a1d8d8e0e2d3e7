// Package fallible is the runtime side of rewritten systems.
//
// The rewriter turns
//
//	//fallible:system
//	func load(server *AssetServer) error { ... }
//
// into a system with no results that takes an extra *Events parameter and
// sends an ErrorReport whenever the original body fails. Plugin registers
// the queue those reports land in:
//
//	a := app.New().AddPlugin(fallible.Plugin{})
//	a.AddSystem(load)
//	a.Update()
//	for _, r := range fallible.Reports(a).DrainPayloads() {
//		log.Printf("%s failed: %v", r.SystemName, r.Err)
//	}
package fallible

import (
	"github.com/funvibe/fallible/pkg/app"
)

// ErrorReport is sent every time a rewritten system fails.
type ErrorReport struct {
	// SystemName is the declared name of the original function.
	SystemName string
	// Err is the error the original body produced.
	Err error
}

func (r ErrorReport) Error() string {
	if r.Err == nil {
		return r.SystemName + ": <nil>"
	}
	return r.SystemName + ": " + r.Err.Error()
}

func (r ErrorReport) Unwrap() error {
	return r.Err
}

// Events is the queue injected into rewritten systems.
type Events = app.Events[ErrorReport]

// Plugin registers the ErrorReport queue with an App.
type Plugin struct{}

func (Plugin) Build(a *app.App) {
	app.AddEvent[ErrorReport](a)
}

// Reports returns the App's ErrorReport queue, or nil when Plugin was
// never added.
func Reports(a *app.App) *Events {
	q, ok := app.Resource[Events](a)
	if !ok {
		return nil
	}
	return q
}
