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
	"github.com/uhppoted/eo-backup/octopus"
)

var BackupCmd = Backup{}

// Backup exports every EmailOctopus mailing list to a new backup spreadsheet.
type Backup struct {
	command
	tsv string
}

func (cmd *Backup) Command(options *Options) *cobra.Command {
	c := &cobra.Command{
		Use:   "backup",
		Short: "Exports all the EmailOctopus mailing lists to a new backup spreadsheet",
		Long: `Exports all the EmailOctopus mailing lists to a new Google Sheets spreadsheet named
EO-export-<yyyymmdd>, with a 'Summary' worksheet and one worksheet per list. The
EmailOctopus API key is taken from the configuration file or the EO_API_TOKEN
environment variable.`,
		Example: `  eo-backup --debug backup --credentials "credentials.json"
  eo-backup backup --tsv ./backups`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return cmd.Execute(c.Context(), options)
		},
	}

	cmd.flags(c)
	c.Flags().StringVar(&cmd.tsv, "tsv", cmd.tsv, "Writes the backup to a local directory of TSV files instead of Google Sheets")

	return c
}

// Execute runs a single backup. A missing API key is logged and the backup is skipped
// without creating a document.
func (cmd *Backup) Execute(ctx context.Context, options *Options) error {
	conf, err := load(options)
	if err != nil {
		return err
	}

	if strings.TrimSpace(conf.Octopus.APIKey) == "" {
		log.Errorf("EmailOctopus API key not set - set octopus.api-key in the configuration file or %v", config.ENV_API_TOKEN)
		return nil
	}

	c := cmd.resolve(conf)

	unlock, err := lock(c.workdir)
	if err != nil {
		return err
	}

	defer unlock()

	run := metrics.NewRun(conf.Metrics.Job, "backup")

	log.Infof("Starting backup (run %v)", run.ID())

	summary, err := cmd.backup(ctx, c, conf)

	run.Exported(summary)
	done(ctx, run, conf, err)

	if err != nil {
		return err
	}

	if summary.ID != "" {
		log.Infof("Exported %v lists (%v contacts) to %v", summary.Lists, summary.Contacts, summary.URL)
	}

	return nil
}

func (cmd *Backup) backup(ctx context.Context, c command, conf *config.Config) (*backup.Summary, error) {
	store, err := cmd.store(ctx, c, conf)
	if err != nil {
		return nil, err
	}

	client := octopus.NewClient(conf.Octopus)
	writer := backup.NewWriter(store, client)

	summary, err := writer.BackupAllLists(ctx)
	if err != nil {
		return summary, fmt.Errorf("backup failed (%w)", err)
	}

	return summary, nil
}

func (cmd *Backup) store(ctx context.Context, c command, conf *config.Config) (backup.Store, error) {
	if strings.TrimSpace(cmd.tsv) != "" {
		return backup.NewTSVStore(cmd.tsv), nil
	}

	service, err := newSheetsService(ctx, c)
	if err != nil {
		return nil, err
	}

	return google.NewSpreadsheets(service, conf.Google.RateLimit), nil
}
