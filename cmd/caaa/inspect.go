package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vladimirlihacky/CaAA/internal/automaton"
)

type inspectResult struct {
	Stats automaton.Stats `json:"stats"`
	Cut   string          `json:"cut"`
}

func newInspectCmd() *cobra.Command {
	var patternsPath string
	var format string

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print automaton statistics and the text with every match removed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, patterns, err := readTextAndPatterns(cmd.InOrStdin(), patternsPath)
			if err != nil {
				return err
			}

			a := automaton.Build(patterns)
			result := inspectResult{Stats: a.Stats(), Cut: a.Cut(text)}

			out := cmd.OutOrStdout()
			switch format {
			case "", "text":
				fmt.Fprintf(out, "nodes: %d\n", result.Stats.Nodes)
				fmt.Fprintf(out, "patterns: %d\n", result.Stats.Patterns)
				fmt.Fprintf(out, "max out-degree: %d\n", result.Stats.MaxOutDegree)
				fmt.Fprintf(out, "max depth: %d\n", result.Stats.MaxDepth)
				_, err = fmt.Fprintf(out, "cut: %s\n", result.Cut)
				return err
			case "json":
				data, err := json.MarshalIndent(result, "", "  ")
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, string(data))
				return err
			default:
				return fmt.Errorf("unknown format %q", format)
			}
		},
	}

	cmd.Flags().StringVar(&patternsPath, "patterns", "", "Read patterns from this file instead of stdin")
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text|json")

	return cmd
}
