package transform

import (
	"fmt"
	"go/ast"
	"go/token"

	"github.com/funvibe/fallible/internal/config"
)

// Source is a parsed Go file together with the bytes it was parsed from.
// Declarations are sliced out of the original bytes, so bodies and types
// are carried over exactly as written, comments included.
type Source struct {
	fset    *token.FileSet
	src     []byte
	file    *ast.File
	imports map[string]string
}

// NewSource wraps a file parsed from src with fset.
func NewSource(fset *token.FileSet, src []byte, file *ast.File) *Source {
	return &Source{
		fset:    fset,
		src:     src,
		file:    file,
		imports: importTable(file),
	}
}

// ImportName returns the local name under which the file imports path.
func (s *Source) ImportName(path string) (string, bool) {
	for name, p := range s.imports {
		if p == path {
			return name, true
		}
	}
	return "", false
}

// Imports returns the local name to path table of the file.
func (s *Source) Imports() map[string]string {
	return s.imports
}

func (s *Source) offset(pos token.Pos) int {
	return s.fset.File(pos).Offset(pos)
}

func (s *Source) text(from, to token.Pos) string {
	return string(s.src[s.offset(from):s.offset(to)])
}

func (s *Source) nodeText(n ast.Node) string {
	return s.text(n.Pos(), n.End())
}

// Parse extracts the FunctionSpec of decl. Errors carry the declaration's
// position and name.
func (s *Source) Parse(decl *ast.FuncDecl, policy Policy) (*FunctionSpec, error) {
	pos := s.fset.Position(decl.Pos())
	fail := func(err error) error {
		return fmt.Errorf("%s: %s: %w", pos, decl.Name.Name, err)
	}

	if decl.Body == nil {
		return nil, fail(ErrMissingBody)
	}
	results, err := s.parseResults(decl.Type.Results)
	if err != nil {
		return nil, fail(err)
	}

	spec := &FunctionSpec{
		Name:       decl.Name.Name,
		Params:     s.parseParams(decl.Type.Params, policy),
		Results:    results,
		Body:       s.text(decl.Body.Lbrace+1, decl.Body.Rbrace),
		Source:     s.nodeText(decl),
		NameOffset: s.offset(decl.Name.Pos()) - s.offset(decl.Pos()),
		Pos:        pos,
	}

	if decl.Recv != nil && len(decl.Recv.List) > 0 {
		recv := s.parseParams(decl.Recv, nil)[0]
		spec.Recv = &recv
	}

	if tp := decl.Type.TypeParams; tp != nil && len(tp.List) > 0 {
		spec.TypeParamsText = s.text(tp.Opening, tp.Closing+1)
		for _, field := range tp.List {
			for _, n := range field.Names {
				spec.TypeParams = append(spec.TypeParams, n.Name)
			}
		}
	}

	if decl.Doc != nil {
		for _, c := range decl.Doc.List {
			if _, ok := directiveArgs(c.Text); ok {
				continue
			}
			spec.Doc = append(spec.Doc, c.Text)
		}
		// the directive usually follows a "//" separator line
		for len(spec.Doc) > 0 && spec.Doc[len(spec.Doc)-1] == "//" {
			spec.Doc = spec.Doc[:len(spec.Doc)-1]
		}
	}

	if err := checkReserved(decl); err != nil {
		return nil, fail(err)
	}
	return spec, nil
}

// parseResults accepts error and (T, error), named or not.
func (s *Source) parseResults(list *ast.FieldList) (*ResultList, error) {
	if list == nil || len(list.List) == 0 {
		return nil, fmt.Errorf("%w: no results", ErrMalformedSignature)
	}

	var text string
	if list.Opening.IsValid() {
		text = s.text(list.Opening, list.Closing+1)
	} else {
		text = s.nodeText(list.List[0].Type)
	}

	n := list.NumFields()
	if n > 2 {
		return nil, fmt.Errorf("%w: got %s", ErrMalformedSignature, text)
	}
	last := list.List[len(list.List)-1].Type
	if id, ok := last.(*ast.Ident); !ok || id.Name != "error" {
		return nil, fmt.Errorf("%w: got %s", ErrMalformedSignature, text)
	}
	return &ResultList{Text: text, Arity: n}, nil
}

// parseParams flattens a field list into one Parameter per binding.
func (s *Source) parseParams(list *ast.FieldList, policy Policy) []Parameter {
	if list == nil {
		return nil
	}
	var out []Parameter
	for _, field := range list.List {
		typ := s.nodeText(field.Type)
		_, variadic := field.Type.(*ast.Ellipsis)
		capability := false
		if q, ok := qualify(field.Type, s.imports); ok {
			capability = policy.StrategyFor(q) == Positional
		}

		if len(field.Names) == 0 {
			out = append(out, Parameter{
				Type:                typ,
				Position:            len(out),
				Variadic:            variadic,
				IsLeadingCapability: capability && len(out) == 0,
			})
			continue
		}
		for _, n := range field.Names {
			out = append(out, Parameter{
				Name:                n.Name,
				Type:                typ,
				Position:            len(out),
				Variadic:            variadic,
				IsLeadingCapability: capability && len(out) == 0,
			})
		}
	}
	return out
}

// checkReserved rejects bindings that would clash with the identifiers the
// rewrite introduces, and bodies that would see the injected parameter
// shadow something they refer to.
func checkReserved(decl *ast.FuncDecl) error {
	reserved := map[string]bool{
		config.InjectedParamName: true,
		config.ErrorVarName:      true,
	}
	lists := []*ast.FieldList{decl.Recv, decl.Type.Params, decl.Type.Results}
	for _, list := range lists {
		if list == nil {
			continue
		}
		for _, field := range list.List {
			for _, n := range field.Names {
				if reserved[n.Name] {
					return fmt.Errorf("%w: %s", ErrReservedName, n.Name)
				}
			}
		}
	}

	var found bool
	var visit func(ast.Node) bool
	visit = func(n ast.Node) bool {
		switch x := n.(type) {
		case *ast.SelectorExpr:
			// x.Sel names a field or method, not the parameter.
			ast.Inspect(x.X, visit)
			return false
		case *ast.Ident:
			if x.Name == config.InjectedParamName {
				found = true
			}
		}
		return !found
	}
	ast.Inspect(decl.Body, visit)
	if found {
		return fmt.Errorf("%w: body refers to %s", ErrReservedName, config.InjectedParamName)
	}
	return nil
}
