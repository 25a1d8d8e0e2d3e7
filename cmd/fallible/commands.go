package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/funvibe/fallible/internal/gen"
)

func (c *cli) rewriteCmd() *cobra.Command {
	var write, list bool

	cmd := &cobra.Command{
		Use:   "rewrite [paths...]",
		Short: "Rewrite annotated functions",
		Long: `Rewrites every function marked //fallible:system in the given files.

A path may be a file, a directory (its own .go files) or dir/... (recursive).
Without -w or -l the rewritten files are printed to stdout.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g := c.generator()
			results, runErr := g.Run(cmd.Context(), args)

			var errs []error
			for _, res := range results {
				if !res.Changed() {
					continue
				}
				if list {
					fmt.Fprintln(c.stdout, res.Path)
				}
				if write {
					if err := g.Write(res); err != nil {
						errs = append(errs, err)
					}
				}
				if !list && !write {
					if _, err := c.stdout.Write(res.Output); err != nil {
						return err
					}
				}
			}

			c.logger.Debug("rewrite finished", zap.Int("files", len(results)), zap.Bool("write", write))
			return errors.Join(append([]error{runErr}, errs...)...)
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", false, "write results to the source files")
	cmd.Flags().BoolVarP(&list, "list", "l", false, "list files whose rewrite differs from the source")
	return cmd
}

func (c *cli) inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [paths...]",
		Short: "List annotated functions and their rewritten signatures",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := c.generator().Run(cmd.Context(), args)
			printInspect(c.stdout, results)
			return err
		},
	}
}

func printInspect(w io.Writer, results []*gen.FileResult) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, res := range results {
		for _, fn := range res.Functions {
			params := make([]string, len(fn.Params))
			for i, p := range fn.Params {
				params[i] = p.String()
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t(%s)\n", fn.Spec.Pos, fn.Spec.Name, fn.Mode, strings.Join(params, ", "))
		}
	}
	_ = tw.Flush()
}
