package main

import (
	"bufio"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"github.com/vladimirlihacky/CaAA/internal/automaton"
)

func newSearchCmd() *cobra.Command {
	var patternsPath string
	var tracePath string

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Find every occurrence of a set of literal patterns",
		Long: "Reads the text from the first stdin line and the patterns from the following lines\n" +
			"(or from --patterns). Prints \"start pattern\" pairs with 1-based starts and\n" +
			"1-based pattern numbers, ordered by start and then by pattern.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, patterns, err := readTextAndPatterns(cmd.InOrStdin(), patternsPath)
			if err != nil {
				return err
			}

			trace, err := openTrace(tracePath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			matches := automaton.Build(patterns, trace.options()...).FindAll(text)
			if err := trace.finish(); err != nil {
				return err
			}
			sortMatches(matches)

			w := bufio.NewWriter(cmd.OutOrStdout())
			for _, m := range matches {
				fmt.Fprintf(w, "%d %d\n", m.Start+1, m.Pattern.ID+1)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&patternsPath, "patterns", "", "Read patterns from this file instead of stdin")
	cmd.Flags().StringVar(&tracePath, "trace", "", "Write automaton trace events as JSONL to this file (- for stderr)")

	return cmd
}

func sortMatches(matches []automaton.Match) {
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Start == matches[j].Start {
			return matches[i].Pattern.ID < matches[j].Pattern.ID
		}
		return matches[i].Start < matches[j].Start
	})
}
