package gen

import (
	"bytes"
	"errors"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"os"
	"path"

	"go.uber.org/zap"
	"golang.org/x/tools/go/ast/astutil"
	"golang.org/x/tools/imports"

	"github.com/funvibe/fallible/internal/transform"
)

// ErrNameConflict is returned when a Keep rewrite would declare a name the
// file already uses.
var ErrNameConflict = errors.New("name already declared")

// Generator rewrites annotated declarations in Go files.
type Generator struct {
	// config supplies the runtime import path, worker limit and excludes.
	config *Config

	// policy decides where the injected parameter goes.
	policy transform.Policy

	logger *zap.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(g *Generator) { g.logger = l }
}

// WithPolicy replaces the capability table.
func WithPolicy(p transform.Policy) Option {
	return func(g *Generator) { g.policy = p }
}

// New creates a Generator. A nil cfg means DefaultConfig.
func New(cfg *Config, opts ...Option) *Generator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	g := &Generator{
		config: cfg,
		policy: transform.DefaultPolicy,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Config returns the configuration in use.
func (g *Generator) Config() *Config { return g.config }

// FileResult describes one processed file.
type FileResult struct {
	Path string
	// Functions holds one entry per annotated declaration, in source order.
	Functions []*transform.Output
	// Source is the file as read.
	Source []byte
	// Output is the rewritten file. It equals Source when the file has no
	// annotated declarations.
	Output []byte
}

// Changed reports whether the rewrite altered the file.
func (r *FileResult) Changed() bool {
	return !bytes.Equal(r.Source, r.Output)
}

// ProcessFile reads and rewrites the file at path. The file is not written.
func (g *Generator) ProcessFile(path string) (*FileResult, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return g.ProcessSource(path, src)
}

// ProcessSource rewrites every annotated declaration in src. If any
// declaration fails, the whole file fails and the errors of all failing
// declarations are returned together.
func (g *Generator) ProcessSource(filename string, src []byte) (*FileResult, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filename, err)
	}

	res := &FileResult{Path: filename, Source: src, Output: src}
	s := transform.NewSource(fset, src, file)
	alias, imported := g.runtimeAlias(s, file)
	opts := transform.Options{Policy: g.policy, RuntimeAlias: alias}
	declared := topLevelNames(file)

	var (
		decls []*ast.FuncDecl
		errs  []error
	)
	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok {
			continue
		}
		mode, found, err := transform.DeclMode(fn)
		if !found {
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %s: %w", fset.Position(fn.Pos()), fn.Name.Name, err))
			continue
		}
		if mode == transform.Keep {
			renamed := methodKey(fn, transform.FallibleName(fn.Name.Name))
			if declared[renamed] {
				errs = append(errs, fmt.Errorf("%s: %s: %s: %w", fset.Position(fn.Pos()), fn.Name.Name, renamed, ErrNameConflict))
				continue
			}
			declared[renamed] = true
		}
		out, err := s.Transform(fn, mode, opts)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		decls = append(decls, fn)
		res.Functions = append(res.Functions, out)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if len(res.Functions) == 0 {
		return res, nil
	}

	spliced := splice(fset, file, src, decls, res.Functions)
	formatted, err := g.finish(filename, spliced, alias, imported)
	if err != nil {
		return nil, err
	}
	res.Output = formatted

	g.logger.Debug("rewrote file",
		zap.String("file", filename),
		zap.Int("functions", len(res.Functions)),
		zap.String("runtime_alias", alias),
	)
	return res, nil
}

// splice replaces each declaration, doc comment included, with its
// rewritten text.
func splice(fset *token.FileSet, file *ast.File, src []byte, decls []*ast.FuncDecl, outs []*transform.Output) []byte {
	tf := fset.File(file.Pos())
	var buf bytes.Buffer
	last := 0
	for i, fn := range decls {
		start := fn.Pos()
		if fn.Doc != nil {
			start = fn.Doc.Pos()
		}
		buf.Write(src[last:tf.Offset(start)])
		buf.WriteString(outs[i].Text())
		last = tf.Offset(fn.End())
	}
	buf.Write(src[last:])
	return buf.Bytes()
}

// finish adds the runtime import when it is missing and formats the file.
func (g *Generator) finish(filename string, src []byte, alias string, imported bool) ([]byte, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("%s: rewritten source does not parse: %w", filename, err)
	}

	if !imported {
		imp := g.config.RuntimeImport
		name := alias
		if name == path.Base(imp) {
			name = ""
		}
		astutil.AddNamedImport(fset, file, name, imp)
	}

	var buf bytes.Buffer
	if err := format.Node(&buf, fset, file); err != nil {
		return nil, fmt.Errorf("%s: printing: %w", filename, err)
	}
	out, err := imports.Process(filename, buf.Bytes(), &imports.Options{
		FormatOnly: true,
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: formatting: %w", filename, err)
	}
	return out, nil
}

// runtimeAlias picks the name the rewritten code uses for the runtime
// package. An existing import is reused unless an annotated declaration
// shadows it; otherwise the package name is used unless the file already
// declares, imports or binds something by that name.
func (g *Generator) runtimeAlias(s *transform.Source, file *ast.File) (alias string, imported bool) {
	imp := g.config.RuntimeImport
	bound := boundNames(file)
	if name, ok := s.ImportName(imp); ok && !bound[name] {
		return name, true
	}

	taken := topLevelNames(file)
	for name := range s.Imports() {
		taken[name] = true
	}
	for name := range bound {
		taken[name] = true
	}

	base := transform.PackageName(imp)
	alias = base
	for i := 2; taken[alias]; i++ {
		alias = fmt.Sprintf("%s%d", base, i)
	}
	return alias, false
}

// boundNames collects the receiver, parameter, result and type-parameter
// names of every annotated declaration. Inside those declarations any of
// them would shadow the runtime package.
func boundNames(file *ast.File) map[string]bool {
	names := make(map[string]bool)
	add := func(list *ast.FieldList) {
		if list == nil {
			return
		}
		for _, field := range list.List {
			for _, n := range field.Names {
				names[n.Name] = true
			}
		}
	}
	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok {
			continue
		}
		if _, found := transform.FindDirective(fn.Doc); !found {
			continue
		}
		add(fn.Recv)
		add(fn.Type.TypeParams)
		add(fn.Type.Params)
		add(fn.Type.Results)
		if fn.Recv != nil && len(fn.Recv.List) > 0 {
			for _, id := range recvTypeParams(fn.Recv.List[0].Type) {
				names[id] = true
			}
		}
	}
	return names
}

// recvTypeParams returns the type-parameter names a generic receiver binds,
// as in the T of func (b *Box[T]).
func recvTypeParams(expr ast.Expr) []string {
	var indices []ast.Expr
	switch t := expr.(type) {
	case *ast.StarExpr:
		return recvTypeParams(t.X)
	case *ast.ParenExpr:
		return recvTypeParams(t.X)
	case *ast.IndexExpr:
		indices = []ast.Expr{t.Index}
	case *ast.IndexListExpr:
		indices = t.Indices
	}
	var names []string
	for _, idx := range indices {
		if id, ok := idx.(*ast.Ident); ok {
			names = append(names, id.Name)
		}
	}
	return names
}

// topLevelNames collects package-level identifiers. Methods are keyed as
// Recv.Name so that they only clash with methods of the same type.
func topLevelNames(file *ast.File) map[string]bool {
	names := make(map[string]bool)
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			names[methodKey(d, d.Name.Name)] = true
		case *ast.GenDecl:
			for _, spec := range d.Specs {
				switch sp := spec.(type) {
				case *ast.TypeSpec:
					names[sp.Name.Name] = true
				case *ast.ValueSpec:
					for _, n := range sp.Names {
						names[n.Name] = true
					}
				}
			}
		}
	}
	return names
}

func methodKey(fn *ast.FuncDecl, name string) string {
	if fn.Recv == nil || len(fn.Recv.List) == 0 {
		return name
	}
	return recvTypeName(fn.Recv.List[0].Type) + "." + name
}

func recvTypeName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return recvTypeName(t.X)
	case *ast.ParenExpr:
		return recvTypeName(t.X)
	case *ast.IndexExpr:
		return recvTypeName(t.X)
	case *ast.IndexListExpr:
		return recvTypeName(t.X)
	case *ast.Ident:
		return t.Name
	}
	return ""
}
