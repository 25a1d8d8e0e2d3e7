package pipeline

// Processor is a single stage. It receives the context produced by the
// previous stage and returns the context for the next one.
type Processor[C any] interface {
	Process(ctx C) (C, error)
}

// ProcessorFunc adapts a plain function to a Processor.
type ProcessorFunc[C any] func(ctx C) (C, error)

func (f ProcessorFunc[C]) Process(ctx C) (C, error) {
	return f(ctx)
}

// Pipeline represents a sequence of processing stages.
type Pipeline[C any] struct {
	processors []Processor[C]
}

func New[C any](processors ...Processor[C]) *Pipeline[C] {
	return &Pipeline[C]{processors: processors}
}

// Run executes the pipeline. The first failing stage stops the run; its
// error is returned together with the context as it stood before that stage.
func (p *Pipeline[C]) Run(initialCtx C) (C, error) {
	ctx := initialCtx
	for _, processor := range p.processors {
		next, err := processor.Process(ctx)
		if err != nil {
			return ctx, err
		}
		ctx = next
	}
	return ctx, nil
}
