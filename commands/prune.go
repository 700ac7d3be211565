package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/uhppoted/eo-backup/backup"
	"github.com/uhppoted/eo-backup/config"
	"github.com/uhppoted/eo-backup/google"
	"github.com/uhppoted/eo-backup/log"
	"github.com/uhppoted/eo-backup/metrics"
)

var PruneCmd = Prune{}

// Prune moves backup spreadsheets older than the retention period to the Google Drive bin.
type Prune struct {
	command
	keepDays int
	dryrun   bool
	tsv      string
}

func (cmd *Prune) Command(options *Options) *cobra.Command {
	c := &cobra.Command{
		Use:   "prune",
		Short: "Removes backup spreadsheets older than the retention period",
		Long: `Moves the EO-export-<yyyymmdd> spreadsheets last modified before the retention
cutoff to the Google Drive bin. The retention period defaults to 365 days.

Only spreadsheets created by eo-backup are visible to prune (the Google Drive access is
limited to files created by the application). Backups created by other tools, e.g. an
earlier Apps Script export, are never removed and must be deleted manually.`,
		Example: `  eo-backup prune --credentials "credentials.json" --keep-days 90 --dryrun`,
		Args:    cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return cmd.Execute(c.Context(), options)
		},
	}

	cmd.flags(c)
	c.Flags().IntVar(&cmd.keepDays, "keep-days", cmd.keepDays, fmt.Sprintf("Number of days to keep backups. Defaults to the configured retention period (%v days)", config.DEFAULT_KEEP_DAYS))
	c.Flags().BoolVar(&cmd.dryrun, "dryrun", cmd.dryrun, "Lists the expired backups without removing them")
	c.Flags().StringVar(&cmd.tsv, "tsv", cmd.tsv, "Prunes the backups in a local TSV backup directory instead of Google Drive")

	return c
}

func (cmd *Prune) Execute(ctx context.Context, options *Options) error {
	conf, err := load(options)
	if err != nil {
		return err
	}

	keep := conf.Retention.KeepDays
	if cmd.keepDays > 0 {
		keep = cmd.keepDays
	}

	c := cmd.resolve(conf)

	unlock, err := lock(c.workdir)
	if err != nil {
		return err
	}

	defer unlock()

	run := metrics.NewRun(conf.Metrics.Job, "prune")

	log.Infof("Starting prune (run %v, keep %v days)", run.ID(), keep)

	result, err := cmd.prune(ctx, c, keep)

	run.Pruned(result)
	done(ctx, run, conf, err)

	if err != nil {
		return fmt.Errorf("prune failed - removed:%v failed:%v (%w)", result.Removed, result.Failed, err)
	}

	return nil
}

func (cmd *Prune) prune(ctx context.Context, c command, keep int) (backup.Result, error) {
	store, err := cmd.store(ctx, c)
	if err != nil {
		return backup.Result{}, err
	}

	sweeper := backup.NewSweeper(store, keep)

	log.Debugf("Removing backups modified before %v", sweeper.Cutoff().Format("2006-01-02"))

	return sweeper.RemoveExpiredBackups(ctx, cmd.dryrun)
}

func (cmd *Prune) store(ctx context.Context, c command) (backup.FileStore, error) {
	if strings.TrimSpace(cmd.tsv) != "" {
		return backup.NewTSVStore(cmd.tsv), nil
	}

	service, err := newDriveService(ctx, c)
	if err != nil {
		return nil, err
	}

	return google.NewDriveFiles(service), nil
}
