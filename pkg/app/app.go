package app

import (
	"errors"
	"fmt"
	"reflect"
	"runtime"
)

var (
	// ErrNotPointer is returned when a resource is not a non-nil pointer.
	ErrNotPointer = errors.New("resource must be a non-nil pointer")
	// ErrNotSystem is returned for values that are not functions without results.
	ErrNotSystem = errors.New("system must be a function with no results")
	// ErrCommandsPosition is returned when *Commands is not the first parameter.
	ErrCommandsPosition = errors.New("*app.Commands must be the first parameter")
	// ErrUnresolved is returned when no resource matches a parameter type.
	ErrUnresolved = errors.New("unresolved system parameter")
)

var commandsType = reflect.TypeFor[*Commands]()

// Plugin bundles setup that runs once per App.
type Plugin interface {
	Build(a *App)
}

// App owns resources and an ordered list of systems.
type App struct {
	resources map[reflect.Type]reflect.Value
	systems   []*system
	plugins   map[reflect.Type]bool
}

type system struct {
	name   string
	fn     reflect.Value
	params []reflect.Type
}

// New returns an empty App.
func New() *App {
	return &App{
		resources: map[reflect.Type]reflect.Value{},
		plugins:   map[reflect.Type]bool{},
	}
}

// AddPlugin runs p.Build unless a plugin of the same type was already added.
func (a *App) AddPlugin(p Plugin) *App {
	t := reflect.TypeOf(p)
	if a.plugins[t] {
		return a
	}
	a.plugins[t] = true
	p.Build(a)
	return a
}

// InsertResource stores res under its pointer type, replacing any previous
// resource of that type.
func (a *App) InsertResource(res any) error {
	v := reflect.ValueOf(res)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return fmt.Errorf("inserting %T: %w", res, ErrNotPointer)
	}
	a.resources[v.Type()] = v
	return nil
}

func (a *App) insert(res any) {
	v := reflect.ValueOf(res)
	a.resources[v.Type()] = v
}

// Resource returns the *T resource stored in a.
func Resource[T any](a *App) (*T, bool) {
	v, ok := a.resources[reflect.TypeFor[*T]()]
	if !ok {
		return nil, false
	}
	return v.Interface().(*T), true
}

// AddSystem validates fn and appends it to the schedule. Parameters are
// resolved on every Update, so resources may be inserted later.
func (a *App) AddSystem(fn any) error {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return fmt.Errorf("adding %T: %w", fn, ErrNotSystem)
	}
	t := v.Type()
	name := runtime.FuncForPC(v.Pointer()).Name()
	if t.NumOut() != 0 {
		return fmt.Errorf("adding %s: %w", name, ErrNotSystem)
	}
	if t.IsVariadic() {
		return fmt.Errorf("adding %s: variadic parameters cannot be resolved: %w", name, ErrNotSystem)
	}

	params := make([]reflect.Type, t.NumIn())
	for i := range params {
		pt := t.In(i)
		if pt == commandsType && i != 0 {
			return fmt.Errorf("adding %s: parameter %d: %w", name, i, ErrCommandsPosition)
		}
		params[i] = pt
	}

	a.systems = append(a.systems, &system{name: name, fn: v, params: params})
	return nil
}

// Update runs every system once, in the order they were added.
func (a *App) Update() error {
	for _, s := range a.systems {
		if err := a.runSystem(s); err != nil {
			return err
		}
	}
	return nil
}

// Run calls Update n times, stopping at the first error.
func (a *App) Run(n int) error {
	for i := 0; i < n; i++ {
		if err := a.Update(); err != nil {
			return fmt.Errorf("update %d: %w", i, err)
		}
	}
	return nil
}

func (a *App) runSystem(s *system) error {
	var commands *Commands
	args := make([]reflect.Value, len(s.params))
	for i, pt := range s.params {
		// position 0 is the only place AddSystem lets *Commands through
		if pt == commandsType {
			commands = new(Commands)
			args[i] = reflect.ValueOf(commands)
			continue
		}
		v, ok := a.resources[pt]
		if !ok {
			return fmt.Errorf("%s: parameter %d (%s): %w", s.name, i, pt, ErrUnresolved)
		}
		args[i] = v
	}

	s.fn.Call(args)

	if commands != nil {
		return commands.apply(a)
	}
	return nil
}
