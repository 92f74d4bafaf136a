package cli

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"cronexpr/internal/config"
	"cronexpr/internal/ics"
	appLog "cronexpr/internal/log"
	"cronexpr/internal/web"
)

// startServer and createOutput are replaced in tests.
var (
	startServer  = web.StartServer
	createOutput = func(name string) (io.WriteCloser, error) { return os.Create(name) }
)

// loadSchedules loads the config file and compiles its schedules.
func loadSchedules(opts *rootOptions) (*config.Config, []ics.Entry, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", opts.configPath)
		return nil, nil, err
	}
	entries, err := cfg.Entries()
	if err != nil {
		return nil, nil, err
	}
	appLog.Debug("effective config",
		"config_path", opts.configPath,
		"listen", cfg.Listen,
		"timezone", cfg.Timezone,
		"horizon_days", cfg.HorizonDays,
		"schedules", len(entries),
	)
	return cfg, entries, nil
}

func expandConfig(cfg *config.Config, from time.Time, days int) (ics.ExpandConfig, error) {
	loc, err := cfg.Location()
	if err != nil {
		return ics.ExpandConfig{}, err
	}
	if days <= 0 {
		days = cfg.HorizonDays
	}
	start := from.In(loc)
	return ics.ExpandConfig{
		DisplayLocation:        loc,
		RangeStart:             start,
		RangeEnd:               start.AddDate(0, 0, days),
		MaxOccurrencesPerEntry: cfg.MaxOccurrences,
	}, nil
}

func newListCmd(opts *rootOptions) *cobra.Command {
	var (
		from timeValue
		days int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List upcoming occurrences of the configured schedules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, entries, err := loadSchedules(opts)
			if err != nil {
				return err
			}
			ecfg, err := expandConfig(cfg, from.or(opts.now()), days)
			if err != nil {
				return err
			}
			res, err := ics.ExpandOccurrences(entries, ecfg)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "START\tEND\tNAME\tEXPRESSION")
			for _, o := range res.Occurrences {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
					o.Start.Format(time.RFC3339), o.End.Format(time.RFC3339), o.Name, o.Expression)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			for _, name := range res.TruncatedEntries {
				color.New(color.FgYellow).Fprintf(cmd.ErrOrStderr(),
					"%s: truncated at %d occurrences\n", name, ecfg.MaxOccurrencesPerEntry)
			}
			return nil
		},
	}
	addRangeFlags(cmd.Flags(), &from, &days)
	return cmd
}

func newICSCmd(opts *rootOptions) *cobra.Command {
	var (
		from   timeValue
		days   int
		output string
		name   string
	)
	cmd := &cobra.Command{
		Use:   "ics",
		Short: "Export the configured schedules as an iCalendar file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, entries, err := loadSchedules(opts)
			if err != nil {
				return err
			}
			now := opts.now()
			ecfg, err := expandConfig(cfg, from.or(now), days)
			if err != nil {
				return err
			}

			xcfg := ics.ExportConfig{ExpandConfig: ecfg, Name: name, Now: now}
			if output == "" || output == "-" {
				return ics.Export(cmd.OutOrStdout(), entries, xcfg)
			}

			f, err := createOutput(output)
			if err != nil {
				return err
			}
			if err := ics.Export(f, entries, xcfg); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			appLog.Info("calendar written", "path", output, "schedules", len(entries))
			return nil
		},
	}
	addRangeFlags(cmd.Flags(), &from, &days)
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file, or - for stdout")
	cmd.Flags().StringVar(&name, "name", "cronexpr schedules", "calendar name (X-WR-CALNAME)")
	return cmd
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the preview API and calendar feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadSchedules(opts)
			if err != nil {
				return err
			}
			// --listen overrides config file listen if provided.
			if listen != "" {
				cfg.Listen = listen
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return startServer(ctx, cfg)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config if set)")
	return cmd
}
