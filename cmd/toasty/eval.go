package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vinodismyname/toasty/internal/export"
	"github.com/vinodismyname/toasty/pkg/calc"
)

type evalOptions struct {
	xlsxPath string
	filePath string
}

func newEvalCmd(current func() *app) *cobra.Command {
	opts := &evalOptions{}
	cmd := &cobra.Command{
		Use:   "eval [expression...]",
		Short: "Evaluate expressions and print the results",
		Long: `Evaluate each argument as one expression and print "expr = value".
Expressions can also be read one per line from --file; blank lines and lines
starting with # are skipped. --xlsx writes the results to a workbook.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(cmd, current(), opts, args)
		},
	}
	cmd.Flags().StringVar(&opts.xlsxPath, "xlsx", "", "Write results to this .xlsx workbook")
	cmd.Flags().StringVar(&opts.filePath, "file", "", "Read expressions from this file, one per line")
	return cmd
}

func readExpressions(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var exprs []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		exprs = append(exprs, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return exprs, nil
}

func runEval(cmd *cobra.Command, a *app, opts *evalOptions, args []string) error {
	exprs := append([]string(nil), args...)
	if opts.filePath != "" {
		more, err := readExpressions(opts.filePath)
		if err != nil {
			return fmt.Errorf("read expressions: %w", err)
		}
		exprs = append(exprs, more...)
	}
	if len(exprs) == 0 {
		return fmt.Errorf("no expressions given")
	}

	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	rows := make([]export.Row, 0, len(exprs))
	failed := 0
	for _, expr := range exprs {
		v, err := a.prov.Evaluate(cmd.Context(), expr)
		rows = append(rows, export.Row{Expression: expr, Value: v, Err: err})
		if err != nil {
			failed++
			fmt.Fprintf(errOut, "%s: %v\n", expr, err)
			continue
		}
		fmt.Fprintf(out, "%s = %s\n", expr, calc.Format(v))
	}

	if opts.xlsxPath != "" {
		if err := export.WriteResults(opts.xlsxPath, rows); err != nil {
			return err
		}
		a.logger.Info().Str("path", opts.xlsxPath).Int("rows", len(rows)).Msg("results exported")
	}

	a.logger.Debug().Int("expressions", len(exprs)).Int("failed", failed).Msg("eval finished")
	if failed > 0 {
		return errReported
	}
	return nil
}
