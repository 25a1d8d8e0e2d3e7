package transform

import (
	"go/ast"

	"github.com/funvibe/fallible/internal/config"
)

// Strategy is how the execution host resolves a parameter.
type Strategy int

const (
	// ByType parameters are matched by type; their position is immaterial.
	ByType Strategy = iota
	// Positional parameters are recognized by position and must stay first.
	Positional
)

// QualifiedType names a type by import path and type name. Path is empty
// for types declared in the package being rewritten. Pointer marks *Name;
// a pointer and its base type are distinct entries.
type QualifiedType struct {
	Path    string
	Name    string
	Pointer bool
}

func (q QualifiedType) String() string {
	s := q.Name
	if q.Path != "" {
		s = q.Path + "." + q.Name
	}
	if q.Pointer {
		return "*" + s
	}
	return s
}

// Policy maps types to resolution strategies. Types not listed resolve ByType.
type Policy map[QualifiedType]Strategy

// DefaultPolicy marks the host's *Commands as the one positional
// capability. The host never resolves Commands by value.
var DefaultPolicy = Policy{
	{Path: config.HostImportPath, Name: config.CommandsTypeName, Pointer: true}: Positional,
}

// StrategyFor returns the strategy for q.
func (p Policy) StrategyFor(q QualifiedType) Strategy {
	if s, ok := p[q]; ok {
		return s
	}
	return ByType
}

// Injected returns the error-sink parameter for a file that refers to the
// runtime package as alias.
func Injected(alias string) Parameter {
	return Parameter{
		Name: config.InjectedParamName,
		Type: "*" + alias + "." + config.EventsTypeName,
	}
}

// Arrange splices injected into params. It goes right after a leading
// capability parameter and first otherwise. Only params[0] is inspected;
// the result is a new slice with positions renumbered.
func (p Policy) Arrange(params []Parameter, injected Parameter) []Parameter {
	out := make([]Parameter, 0, len(params)+1)
	rest := params
	if len(params) > 0 && params[0].IsLeadingCapability {
		out = append(out, params[0])
		rest = params[1:]
	}
	out = append(out, injected)
	out = append(out, rest...)
	for i := range out {
		out[i].Position = i
	}
	return out
}

// qualify resolves a parameter type expression to a QualifiedType through
// the file's imports. One level of pointer is recorded in Pointer.
func qualify(expr ast.Expr, imports map[string]string) (QualifiedType, bool) {
	if star, ok := expr.(*ast.StarExpr); ok {
		q, ok := qualify(star.X, imports)
		if !ok || q.Pointer {
			return QualifiedType{}, false
		}
		q.Pointer = true
		return q, true
	}
	switch t := expr.(type) {
	case *ast.Ident:
		return QualifiedType{Name: t.Name}, true
	case *ast.SelectorExpr:
		pkg, ok := t.X.(*ast.Ident)
		if !ok {
			return QualifiedType{}, false
		}
		path, ok := imports[pkg.Name]
		if !ok {
			return QualifiedType{}, false
		}
		return QualifiedType{Path: path, Name: t.Sel.Name}, true
	}
	return QualifiedType{}, false
}
