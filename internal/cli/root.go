// Package cli implements the cronexpr command line.
package cli

import (
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	appLog "cronexpr/internal/log"
)

// version can be overridden at build time via:
// go build -ldflags "-X cronexpr/internal/cli.version=1.2.3"
var version = "0.1.0-dev"

const defaultConfigPath = "cronexpr.yaml"

// rootOptions holds the persistent flags.
type rootOptions struct {
	debug      bool
	configPath string
	zone       locationValue

	now func() time.Time
}

func newRootCmd(now func() time.Time) *cobra.Command {
	opts := &rootOptions{now: now}

	root := &cobra.Command{
		Use:           "cronexpr",
		Short:         "Parse cron expressions and list when they fire",
		Long:          color.CyanString("cronexpr") + " evaluates crontab expressions in any IANA timezone, including across daylight-saving changes.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.debug {
				appLog.SetLevel(appLog.LevelDebug)
			}
		},
	}

	pf := root.PersistentFlags()
	pf.BoolVar(&opts.debug, "debug", false, "enable debug logging")
	pf.StringVarP(&opts.configPath, "config", "c", defaultConfigPath, "path to the schedules config file")
	pf.Var(&opts.zone, "tz", "timezone for expressions that name none (default Local)")

	root.AddCommand(
		newNextCmd(opts),
		newMatchCmd(opts),
		newNormalizeCmd(opts),
		newListCmd(opts),
		newICSCmd(opts),
		newServeCmd(opts),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	root := newRootCmd(time.Now)
	if err := root.Execute(); err != nil {
		color.New(color.FgRed).Fprintln(root.ErrOrStderr(), "Error:", err)
		return err
	}
	return nil
}
