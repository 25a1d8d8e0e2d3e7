package transform

import (
	"go/ast"
	"go/parser"
	"go/token"
	"testing"
)

// parseFile parses src as a complete Go file.
func parseFile(t *testing.T, src string) (*Source, *ast.File) {
	t.Helper()
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "systems.go", src, parser.ParseComments)
	if err != nil {
		t.Fatalf("parsing test source: %v", err)
	}
	return NewSource(fset, []byte(src), file), file
}

// funcDecl returns the declaration named name.
func funcDecl(t *testing.T, file *ast.File, name string) *ast.FuncDecl {
	t.Helper()
	for _, d := range file.Decls {
		if fd, ok := d.(*ast.FuncDecl); ok && fd.Name.Name == name {
			return fd
		}
	}
	t.Fatalf("no func %s in test source", name)
	return nil
}

// mustParseDecl parses src and returns the FunctionSpec of name.
func mustParseDecl(t *testing.T, src, name string) *FunctionSpec {
	t.Helper()
	s, file := parseFile(t, src)
	spec, err := s.Parse(funcDecl(t, file, name), DefaultPolicy)
	if err != nil {
		t.Fatalf("Parse(%s): %v", name, err)
	}
	return spec
}

// paramDecls renders a parameter list as "name type" strings.
func paramDecls(params []Parameter) []string {
	out := make([]string, len(params))
	for i, p := range params {
		out[i] = p.String()
	}
	return out
}

// resultParams parses the rewritten declaration text and returns its
// parameters as "name type" strings, plus whether it declares results.
func resultParams(t *testing.T, declText string) ([]string, bool) {
	t.Helper()
	src := "package p\n\n" + declText
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "out.go", src, parser.ParseComments)
	if err != nil {
		t.Fatalf("rewritten code does not parse: %v\n%s", err, src)
	}
	var fd *ast.FuncDecl
	for _, d := range file.Decls {
		if f, ok := d.(*ast.FuncDecl); ok {
			fd = f
		}
	}
	if fd == nil {
		t.Fatalf("no declaration in output:\n%s", declText)
	}
	var out []string
	for _, field := range fd.Type.Params.List {
		typ := src[fset.Position(field.Type.Pos()).Offset:fset.Position(field.Type.End()).Offset]
		for _, n := range field.Names {
			out = append(out, n.Name+" "+typ)
		}
	}
	return out, fd.Type.Results != nil && len(fd.Type.Results.List) > 0
}
