package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/coreman2200/funtimes-nimitta/internal/sequence"
)

var stagesCmd = &cobra.Command{
	Use:   "stages",
	Short: "List the stage table",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		tbl, err := cfg.StageTable()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "#\tTITLE\tPALI\tMODE\tMIN\tFLAGS")
		for _, s := range tbl {
			var flags []string
			if s.BranchPoint {
				flags = append(flags, "branch")
			}
			if s.SkipTarget {
				flags = append(flags, "skip-target")
			}
			if s.Terminal {
				flags = append(flags, "terminal")
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%.0f\t%s\n",
				s.Index, s.Title, s.Pali, s.Mode, s.Duration()/60, strings.Join(flags, ","))
		}
		if err := w.Flush(); err != nil {
			return err
		}
		total := tbl.TotalDuration()
		fmt.Fprintf(out, "total %s over %d stages\n", sequence.FormatClock(total), tbl.Len())
		for _, a := range sequence.SpeedPresets {
			fmt.Fprintf(out, "  at %gx: %s\n", a, sequence.FormatClock(total/a))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(stagesCmd)
}
