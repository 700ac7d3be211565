package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/uhppoted/eo-backup/config"
	"github.com/uhppoted/eo-backup/log"
	"github.com/uhppoted/eo-backup/metrics"
)

const APP = "eo-backup"

// Options holds the global command line options.
type Options struct {
	Debug  bool
	Config string
}

// command holds the options common to the commands that use the Google APIs. Empty
// values are resolved from the configuration file and then the defaults.
type command struct {
	workdir     string
	credentials string
	tokens      string
}

var spreadsheetURL = regexp.MustCompile(`^https://docs.google.com/spreadsheets/d/(.*?)(?:/.*)?$`)

func (c *command) flags(cmd *cobra.Command) {
	flagset := cmd.Flags()

	flagset.StringVar(&c.workdir, "workdir", c.workdir, "Directory for working files (lock file, tokens, etc)")
	flagset.StringVar(&c.credentials, "credentials", c.credentials, "Path to the Google API credentials file")
	flagset.StringVar(&c.tokens, "tokens", c.tokens, "Directory for the authorisation tokens. Defaults to <workdir>/.google")
}

// resolve fills in the workdir, credentials and tokens that were not set on the command
// line.
func (c command) resolve(conf *config.Config) command {
	resolved := c

	if strings.TrimSpace(resolved.workdir) == "" {
		resolved.workdir = DEFAULT_WORKDIR
	}

	if strings.TrimSpace(resolved.credentials) == "" {
		resolved.credentials = conf.Google.Credentials
	}

	if strings.TrimSpace(resolved.credentials) == "" {
		resolved.credentials = DEFAULT_CREDENTIALS
	}

	if strings.TrimSpace(resolved.tokens) == "" {
		resolved.tokens = conf.Google.Tokens
	}

	if strings.TrimSpace(resolved.tokens) == "" {
		resolved.tokens = filepath.Join(resolved.workdir, ".google")
	}

	return resolved
}

func load(options *Options) (*config.Config, error) {
	log.SetDebug(options.Debug)

	conf, err := config.Load(options.Config)
	if err != nil {
		return nil, err
	}

	log.Debugf("Loaded configuration from %v", options.Config)

	return conf, nil
}

// done records the end of a run and pushes the run metrics. A failed push is logged but
// does not fail the run.
func done(ctx context.Context, run *metrics.Run, conf *config.Config, err error) {
	run.Done(err)

	if perr := run.Push(ctx, conf.Metrics.Pushgateway); perr != nil {
		log.Warnf("%v", perr)
	}
}

func spreadsheetID(url string) (string, error) {
	match := spreadsheetURL.FindStringSubmatch(strings.TrimSpace(url))
	if len(match) < 2 || match[1] == "" {
		return "", fmt.Errorf("invalid spreadsheet URL - expected something like 'https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms'")
	}

	return match[1], nil
}
