package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vladimirlihacky/CaAA/internal/config"
	"github.com/vladimirlihacky/CaAA/internal/wildcard"
)

func newWildcardCmd() *cobra.Command {
	var tracePath string

	cmd := &cobra.Command{
		Use:   "wildcard",
		Short: "Find a single-character wildcard pattern in a text",
		Long: "Reads three lines from stdin: the text, the pattern and the wildcard character.\n" +
			"Surrounding whitespace is trimmed from each line.\n" +
			"Prints the 1-based start of every occurrence, one per line, in ascending order.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lines, err := readLines(cmd.InOrStdin())
			if err != nil {
				return err
			}
			if len(lines) < 3 {
				return fmt.Errorf("expected 3 input lines (text, pattern, wildcard), got %d", len(lines))
			}
			text := strings.TrimSpace(lines[0])
			pattern := strings.TrimSpace(lines[1])

			symbol, err := config.ParseWildcard(strings.TrimSpace(lines[2]))
			if err != nil {
				return err
			}

			trace, err := openTrace(tracePath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			matcher := wildcard.NewMatcher(wildcard.Decompose(pattern, symbol), trace.options()...)
			starts := matcher.FindAll(text)
			if err := trace.finish(); err != nil {
				return err
			}

			out := make([]string, len(starts))
			for i, start := range starts {
				out[i] = strconv.Itoa(start + 1)
			}
			if len(out) == 0 {
				return nil
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), strings.Join(out, "\n"))
			return err
		},
	}

	cmd.Flags().StringVar(&tracePath, "trace", "", "Write automaton trace events as JSONL to this file (- for stderr)")

	return cmd
}
