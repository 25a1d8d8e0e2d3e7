// Package transform rewrites fallible Go functions into systems that report
// failure through an injected *fallible.Events parameter instead of
// returning it.
//
// A function is fallible when its result list is error or (T, error). Each
// annotated declaration goes through three stages: Parse extracts a
// FunctionSpec, Policy.Arrange splices the injected parameter into the
// parameter list, and Rewrite emits the new declaration. In Keep mode the
// original declaration is emitted as well, renamed with the Fallible suffix.
package transform

import (
	"errors"
	"go/token"
	"strings"
)

var (
	// ErrMalformedSignature means the result list is not error or (T, error).
	ErrMalformedSignature = errors.New("malformed signature: result must be error or (T, error)")
	// ErrMissingResultType means the rewriter was handed a spec without results.
	ErrMissingResultType = errors.New("missing result type")
	// ErrUnexpectedAttribute means the directive carried an unknown argument.
	ErrUnexpectedAttribute = errors.New("unexpected attribute")
	// ErrMissingBody means the declaration has no body to rewrite.
	ErrMissingBody = errors.New("function has no body")
	// ErrReservedName means the source already uses an identifier the rewrite introduces.
	ErrReservedName = errors.New("reserved identifier")
)

// Parameter is one entry of a parameter list. Grouped declarations such as
// (a, b int) become one Parameter per name.
type Parameter struct {
	// Name is the binding. It is empty when the source leaves the parameter unnamed.
	Name string
	// Type is the type expression as written, including a leading "..." for
	// a variadic parameter.
	Type string
	// Position is the index in the list the parameter belongs to.
	Position int
	// Variadic is true for a trailing ...T parameter.
	Variadic bool
	// IsLeadingCapability is true only at position 0, when the policy table
	// resolves the type positionally.
	IsLeadingCapability bool
}

// named reports whether the parameter has a usable binding.
func (p Parameter) named() bool {
	return p.Name != "" && p.Name != "_"
}

// String renders the parameter as it appears in a signature.
func (p Parameter) String() string {
	if p.Name == "" {
		return p.Type
	}
	return p.Name + " " + p.Type
}

// ResultList is the fallible result list of a function.
type ResultList struct {
	// Text is the list as written: "error", "(int, error)", "(n int, err error)".
	Text string
	// Arity is 1 for error and 2 for (T, error).
	Arity int
}

// FunctionSpec is the parsed form of one annotated declaration.
type FunctionSpec struct {
	Name string
	// Recv is nil for plain functions.
	Recv *Parameter
	// TypeParams lists type parameter names in order; TypeParamsText is the
	// bracketed list as written.
	TypeParams     []string
	TypeParamsText string
	Params         []Parameter
	Results        *ResultList
	// Body is the source between the braces, verbatim.
	Body string
	// Doc holds the doc comment lines with directive lines removed.
	Doc []string
	// Source is the declaration from the func keyword to the closing brace.
	// NameOffset locates Name inside it.
	Source     string
	NameOffset int
	Pos        token.Position
}

// Renamed returns Source with the function renamed to name.
func (s *FunctionSpec) Renamed(name string) string {
	return s.Source[:s.NameOffset] + name + s.Source[s.NameOffset+len(s.Name):]
}

// docText renders Doc as a comment block ending in a newline, or "".
func (s *FunctionSpec) docText() string {
	if len(s.Doc) == 0 {
		return ""
	}
	return strings.Join(s.Doc, "\n") + "\n"
}
