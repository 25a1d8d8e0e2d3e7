package gen

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Run expands paths and processes every file, at most Workers at a time.
// Results come back in path order. A failing file does not stop the
// others; all failures are returned joined. Nothing is written to disk.
func (g *Generator) Run(ctx context.Context, paths []string) ([]*FileResult, error) {
	files, err := g.config.ExpandPaths(paths)
	if err != nil {
		return nil, err
	}
	g.logger.Debug("expanded paths", zap.Strings("args", paths), zap.Int("files", len(files)))

	results := make([]*FileResult, len(files))
	errs := make([]error, len(files))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.config.Workers)
	for i, path := range files {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i], errs[i] = g.ProcessFile(path)
			if errs[i] != nil {
				g.logger.Debug("file failed", zap.String("file", path), zap.Error(errs[i]))
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	out := make([]*FileResult, 0, len(files))
	for _, r := range results {
		if r != nil {
			out = append(out, r)
		}
	}
	return out, errors.Join(errs...)
}

// Write stores a changed result back to its file, keeping the file mode.
// Unchanged results are left alone.
func (g *Generator) Write(res *FileResult) error {
	if !res.Changed() {
		return nil
	}
	info, err := os.Stat(res.Path)
	if err != nil {
		return fmt.Errorf("writing %s: %w", res.Path, err)
	}
	if err := os.WriteFile(res.Path, res.Output, info.Mode().Perm()); err != nil {
		return fmt.Errorf("writing %s: %w", res.Path, err)
	}
	g.logger.Info("rewrote", zap.String("file", res.Path), zap.Int("functions", len(res.Functions)))
	return nil
}
