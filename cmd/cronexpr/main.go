// Command cronexpr evaluates cron expressions and serves the configured
// schedules as an API and calendar feed.
package main

import (
	"os"
	_ "time/tzdata"

	"cronexpr/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
