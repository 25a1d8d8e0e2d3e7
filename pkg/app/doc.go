// Package app is a small execution host for systems: plain Go functions
// with no results whose parameters are resolved from registered resources.
//
// # Resources
//
// A resource is any pointer value inserted into the App. Systems receive
// resources by declaring a parameter of exactly that pointer type:
//
//	a := app.New()
//	a.InsertResource(&Score{})
//	a.AddSystem(func(s *Score) { s.Points++ })
//	a.Update()
//
// # Commands
//
// A system may declare *Commands as its first parameter. Commands are not
// looked up by type; the host builds a fresh value for each call and applies
// the queued operations after the system returns. *Commands anywhere other
// than position 0 is rejected when the system is added.
//
// # Events
//
// Events[E] is a send-ordered queue registered as a resource with AddEvent.
// Every Send returns an EventID. Nothing drains a queue automatically.
package app
