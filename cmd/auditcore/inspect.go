package main

import (
	"auditcore/internal/export/h2k"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func (a *application) inspectCommand() *cobra.Command {
	var section string
	cmd := &cobra.Command{
		Use:   "inspect <file.h2k>",
		Short: "Summarize a HOT2000 input file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			doc, err := h2k.Parse(f)
			if err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			if section != "" {
				s, ok := doc.Section(section)
				if !ok {
					return fmt.Errorf("section %s not found in %s", section, args[0])
				}
				for _, e := range s.Entries {
					fmt.Fprintf(tw, "%s\t%s\n", e.Key, e.Value)
				}
				return tw.Flush()
			}
			for _, line := range doc.Header {
				fmt.Fprintf(tw, "# %s\n", line)
			}
			for _, s := range doc.Sections {
				fmt.Fprintf(tw, "%s\t%d\n", s.Name, len(s.Entries))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&section, "section", "", "Print the entries of one section.")
	return cmd
}
