package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"cronexpr"
)

const defaultNextCount = 5

func newNextCmd(opts *rootOptions) *cobra.Command {
	var (
		from  timeValue
		count int
	)
	cmd := &cobra.Command{
		Use:   "next <expression>",
		Short: "Print the next times an expression fires",
		Example: `  cronexpr next "2 4 * * * Asia/Shanghai"
  cronexpr next -n 3 --from 2024-03-09T12:00:00-05:00 "30 2 * * * America/New_York"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sched, err := parseArgs(cmd, opts, args)
			if err != nil {
				return err
			}
			if count <= 0 {
				return fmt.Errorf("--count must be positive")
			}

			times, err := sched.Iterate(from.or(opts.now())).Take(count)
			out := cmd.OutOrStdout()
			for _, t := range times {
				fmt.Fprintln(out, t.In(sched.Location()).Format(time.RFC3339))
			}
			if errors.Is(err, cronexpr.ErrExhausted) {
				color.New(color.FgYellow).Fprintf(cmd.ErrOrStderr(), "no further times for %q\n", sched.String())
				return nil
			}
			return err
		},
	}
	cmd.Flags().Var(&from, "from", "search after this instant (RFC 3339)")
	cmd.Flags().IntVarP(&count, "count", "n", defaultNextCount, "number of times to print")
	return cmd
}

func newMatchCmd(opts *rootOptions) *cobra.Command {
	var at timeValue
	cmd := &cobra.Command{
		Use:     "match <expression>",
		Short:   "Report whether an instant satisfies an expression",
		Example: `  cronexpr match --at 2024-10-07T00:00:00Z "0 0 1,15 * MON UTC"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sched, err := parseArgs(cmd, opts, args)
			if err != nil {
				return err
			}
			instant := at.or(opts.now())
			ok, err := sched.Matches(instant)
			if err != nil {
				return err
			}
			stamp := instant.In(sched.Location()).Format(time.RFC3339)
			if ok {
				color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "match: %s\n", stamp)
			} else {
				color.New(color.FgRed).Fprintf(cmd.OutOrStdout(), "no match: %s\n", stamp)
			}
			return nil
		},
	}
	cmd.Flags().Var(&at, "at", "instant to test (RFC 3339)")
	return cmd
}

func newNormalizeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "normalize <expression>",
		Short: "Validate an expression and print it with whitespace collapsed",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sched, err := parseArgs(cmd, opts, args)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), sched.String())
			return nil
		},
	}
}

// parseArgs joins args into one expression so unquoted fields work, and
// prints a caret diagnostic for parse errors.
func parseArgs(cmd *cobra.Command, opts *rootOptions, args []string) (*cronexpr.Schedule, error) {
	sched, err := cronexpr.ParseInLocation(strings.Join(args, " "), opts.zone.get())
	var perr *cronexpr.ParseError
	if errors.As(err, &perr) {
		color.New(color.FgRed).Fprintln(cmd.ErrOrStderr(), perr.Caret())
		return nil, fmt.Errorf("invalid %s", perr.Field)
	}
	return sched, err
}
