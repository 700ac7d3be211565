package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/uhppoted/eo-backup/commands"
	"github.com/uhppoted/eo-backup/log"
)

var options = commands.Options{
	Debug:  false,
	Config: commands.DEFAULT_CONFIG,
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := root().ExecuteContext(ctx); err != nil {
		log.Errorf("%v", err)
		cancel()
		os.Exit(1)
	}
}

func root() *cobra.Command {
	cmd := &cobra.Command{
		Use:           commands.APP,
		Short:         "Exports EmailOctopus mailing lists to Google Sheets backups",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVar(&options.Debug, "debug", options.Debug, "Enable debugging information")
	cmd.PersistentFlags().StringVar(&options.Config, "config", options.Config, "Configuration file")

	cmd.AddCommand(
		commands.BackupCmd.Command(&options),
		commands.PruneCmd.Command(&options),
		commands.GetCmd.Command(&options),
		commands.ScheduleCmd.Command(&options),
		commands.VersionCmd.Command(&options),
	)

	return cmd
}
