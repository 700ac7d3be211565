package commands

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/uhppoted/eo-backup/config"
	"github.com/uhppoted/eo-backup/log"
)

var ScheduleCmd = Schedule{}

// Schedule runs the backup and prune jobs on cron schedules until interrupted. The jobs
// never run concurrently.
type Schedule struct {
	command
	backup string
	prune  string
	tsv    string
}

type job struct {
	name string
	spec string
	run  func(ctx context.Context, options *Options) error
}

func (cmd *Schedule) Command(options *Options) *cobra.Command {
	c := &cobra.Command{
		Use:   "schedule",
		Short: "Runs the backup and prune jobs on a schedule",
		Long: `Runs the backup and prune jobs on cron schedules until interrupted. The schedules
default to the configuration file settings ('0 2 * * *' and '0 3 * * 0').`,
		Example: `  eo-backup schedule --backup "30 1 * * *" --prune "@weekly"`,
		Args:    cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return cmd.Execute(c.Context(), options)
		},
	}

	cmd.flags(c)
	c.Flags().StringVar(&cmd.backup, "backup", cmd.backup, "Cron schedule for the backup job")
	c.Flags().StringVar(&cmd.prune, "prune", cmd.prune, "Cron schedule for the prune job")
	c.Flags().StringVar(&cmd.tsv, "tsv", cmd.tsv, "Backs up to and prunes a local TSV backup directory instead of Google Sheets")

	return c
}

// Execute runs the scheduler until the context is cancelled. The schedules are rebuilt
// if the configuration file changes.
func (cmd *Schedule) Execute(ctx context.Context, options *Options) error {
	conf, err := load(options)
	if err != nil {
		return err
	}

	scheduler, err := cmd.scheduler(ctx, options, conf)
	if err != nil {
		return err
	}

	scheduler.Start()

	var reload <-chan struct{}
	if ch, err := watch(ctx, options.Config); err != nil {
		log.Warnf("Configuration changes will not be applied until restart (%v)", err)
	} else {
		reload = ch
	}

	for {
		select {
		case <-ctx.Done():
			log.Infof("Stopping scheduler")
			<-scheduler.Stop().Done()
			return nil

		case <-reload:
			conf, err := load(options)
			if err != nil {
				log.Warnf("Invalid configuration - keeping current schedule (%v)", err)
				continue
			}

			next, err := cmd.scheduler(ctx, options, conf)
			if err != nil {
				log.Warnf("Invalid schedule - keeping current schedule (%v)", err)
				continue
			}

			<-scheduler.Stop().Done()
			scheduler = next
			scheduler.Start()
		}
	}
}

func (cmd *Schedule) scheduler(ctx context.Context, options *Options, conf *config.Config) (*cron.Cron, error) {
	backupSpec := strings.TrimSpace(cmd.backup)
	if backupSpec == "" {
		backupSpec = conf.Schedule.Backup
	}

	pruneSpec := strings.TrimSpace(cmd.prune)
	if pruneSpec == "" {
		pruneSpec = conf.Schedule.Prune
	}

	backup := Backup{command: cmd.command, tsv: cmd.tsv}
	prune := Prune{command: cmd.command, tsv: cmd.tsv}

	jobs := []job{
		{"backup", backupSpec, backup.Execute},
		{"prune", pruneSpec, prune.Execute},
	}

	scheduler, err := schedule(ctx, options, jobs)
	if err != nil {
		return nil, err
	}

	log.Infof("Scheduled backup (%v) and prune (%v)", backupSpec, pruneSpec)

	return scheduler, nil
}

// schedule creates a cron scheduler for the jobs. A job is skipped if the previous run of
// the same job is still in progress and waits for any other running job to finish.
func schedule(ctx context.Context, options *Options, jobs []job) (*cron.Cron, error) {
	scheduler := cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger)))
	guard := sync.Mutex{}

	for _, j := range jobs {
		if _, err := scheduler.AddFunc(j.spec, func() {
			guard.Lock()
			defer guard.Unlock()

			if ctx.Err() != nil {
				return
			}

			log.Infof("Running scheduled %v", j.name)

			if err := j.run(ctx, options); err != nil {
				log.Errorf("Scheduled %v failed (%v)", j.name, err)
			}
		}); err != nil {
			return nil, fmt.Errorf("invalid %v schedule '%v' (%w)", j.name, j.spec, err)
		}
	}

	return scheduler, nil
}
