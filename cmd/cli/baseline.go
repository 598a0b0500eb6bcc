package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cppcheck-junit/cppcheck-junit/pkg/cppcheck"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/iohelper"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/output/baseline"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/output/exitcode"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/ui"
)

func NewBaselineCmd(cfg CLIConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "baseline",
		Short: "Manage baselines of known issues",
	}

	var input, output, pathBase string
	var strict, update bool
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Record every issue of a report as known",
		Example: `  cppcheck-junit baseline create -i cppcheck.xml -o baseline.json
  cppcheck-junit baseline create -i cppcheck.xml -o baseline.json --update
  cppcheck-junit convert -i cppcheck.xml -o junit.xml --baseline baseline.json`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if input == "" {
				return fmt.Errorf("%w: --input is required", exitcode.ErrUsage)
			}
			if update && iohelper.IsStdStream(output) {
				return fmt.Errorf("%w: --update needs a baseline file as --output", exitcode.ErrUsage)
			}
			popts := cppcheck.ParseOptions{RequireVersion2: strict}

			var (
				report *cppcheck.Report
				err    error
			)
			if iohelper.IsStdStream(input) {
				report, err = cppcheck.Parse(cfg.Stdin, popts)
			} else {
				report, err = cppcheck.ParseFile(input, popts)
			}
			if err != nil {
				return err
			}

			b := baseline.FromReport(report, pathBase)
			msg := fmt.Sprintf("baseline with %d known issues written to %s", b.Len(), output)
			if update {
				existing, err := baseline.Load(output)
				switch {
				case errors.Is(err, baseline.ErrBaselineNotFound):
					// first run: write the fresh baseline
				case err != nil:
					return err
				default:
					cmp := existing.Update(report, pathBase)
					b = existing
					msg = fmt.Sprintf("baseline with %d known issues updated in %s: %s", b.Len(), output, cmp.Summary)
				}
			}

			if iohelper.IsStdStream(output) {
				err = b.Write(cmd.OutOrStdout())
			} else {
				err = b.Save(output)
			}
			if err != nil {
				return err
			}

			ui.PrintSuccess(cfg.Stderr, msg)
			return nil
		},
	}
	createCmd.Flags().StringVarP(&input, "input", "i", "", "cppcheck XML report (- for stdin)")
	createCmd.Flags().StringVarP(&output, "output", "o", "-", "baseline destination (- for stdout)")
	createCmd.Flags().StringVar(&pathBase, "path-base", "", "make file paths relative to this directory")
	createCmd.Flags().BoolVar(&strict, "strict", false, "reject reports that are not cppcheck XML version 2")
	createCmd.Flags().BoolVar(&update, "update", false, "update an existing baseline: drop fixed issues, keep first-seen dates")

	cmd.AddCommand(createCmd)
	return cmd
}
