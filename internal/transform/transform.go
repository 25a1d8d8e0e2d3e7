package transform

import (
	"go/ast"
	"strings"

	"github.com/funvibe/fallible/internal/config"
	"github.com/funvibe/fallible/internal/pipeline"
)

// Options configures Transform. The zero value uses DefaultPolicy and the
// runtime package's own name.
type Options struct {
	Policy       Policy
	RuntimeAlias string
}

func (o Options) withDefaults() Options {
	if o.Policy == nil {
		o.Policy = DefaultPolicy
	}
	if o.RuntimeAlias == "" {
		o.RuntimeAlias = config.RuntimePackageName
	}
	return o
}

// Output is the result of transforming one declaration.
type Output struct {
	Spec *FunctionSpec
	Mode Mode
	// Params is the final parameter list of the rewritten function.
	Params []Parameter
	// Decls holds the emitted declarations in source order: the renamed
	// original first in Keep mode, then the rewritten function.
	Decls []string
}

// Text joins the emitted declarations.
func (o *Output) Text() string {
	return strings.Join(o.Decls, "\n\n")
}

// run is the state threaded through the stages.
type run struct {
	src  *Source
	decl *ast.FuncDecl
	opts Options
	out  Output
}

var stages = pipeline.New[*run](
	pipeline.ProcessorFunc[*run](parseStage),
	pipeline.ProcessorFunc[*run](policyStage),
	pipeline.ProcessorFunc[*run](rewriteStage),
)

// Transform runs parse, policy and rewrite over decl. Nothing is emitted
// unless every stage succeeds.
func (s *Source) Transform(decl *ast.FuncDecl, mode Mode, opts Options) (*Output, error) {
	r, err := stages.Run(&run{
		src:  s,
		decl: decl,
		opts: opts.withDefaults(),
		out:  Output{Mode: mode},
	})
	if err != nil {
		return nil, err
	}
	return &r.out, nil
}

func parseStage(r *run) (*run, error) {
	spec, err := r.src.Parse(r.decl, r.opts.Policy)
	if err != nil {
		return r, err
	}
	r.out.Spec = spec
	return r, nil
}

func policyStage(r *run) (*run, error) {
	r.out.Params = r.opts.Policy.Arrange(r.out.Spec.Params, Injected(r.opts.RuntimeAlias))
	return r, nil
}

func rewriteStage(r *run) (*run, error) {
	spec := r.out.Spec
	text, err := Rewrite(spec, r.out.Mode, r.out.Params, r.opts.RuntimeAlias)
	if err != nil {
		return r, err
	}
	text = strings.TrimRight(text, "\n")
	if r.out.Mode == Keep {
		r.out.Decls = []string{spec.Renamed(FallibleName(spec.Name)), text}
	} else {
		r.out.Decls = []string{text}
	}
	return r, nil
}
