package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/uhppoted/eo-backup/google"
	"github.com/uhppoted/eo-backup/log"
)

var GetCmd = Get{
	area: "",
	file: time.Now().Format("2006-01-02T150405.tsv"),
}

// Get downloads a worksheet range from a backup spreadsheet to a local TSV file.
type Get struct {
	command
	url  string
	area string
	file string
}

func (cmd *Get) Command(options *Options) *cobra.Command {
	c := &cobra.Command{
		Use:   "get",
		Short: "Downloads a worksheet range from a backup spreadsheet to a TSV file",
		Example: `  eo-backup --debug get --credentials "credentials.json" \
                      --url "https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms" \
                      --range "Newsletter!A1:E" \
                      --file "newsletter.tsv"`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return cmd.Execute(c.Context(), options)
		},
	}

	cmd.flags(c)
	c.Flags().StringVar(&cmd.url, "url", cmd.url, "Backup spreadsheet URL")
	c.Flags().StringVar(&cmd.area, "range", cmd.area, "Spreadsheet range e.g. 'Newsletter!A1:E'")
	c.Flags().StringVar(&cmd.file, "file", cmd.file, "TSV file name. Defaults to '<yyyy-mm-ddTHHmmss>.tsv'")

	return c
}

func (cmd *Get) Execute(ctx context.Context, options *Options) error {
	conf, err := load(options)
	if err != nil {
		return err
	}

	if strings.TrimSpace(cmd.url) == "" {
		return fmt.Errorf("--url is a required option")
	}

	if strings.TrimSpace(cmd.area) == "" {
		return fmt.Errorf("--range is a required option")
	}

	if strings.TrimSpace(cmd.file) == "" {
		return fmt.Errorf("--file is a required option")
	}

	spreadsheet, err := spreadsheetID(cmd.url)
	if err != nil {
		return err
	}

	log.Debugf("Spreadsheet - ID:%s  range:%s", spreadsheet, cmd.area)

	service, err := newSheetsService(ctx, cmd.resolve(conf))
	if err != nil {
		return err
	}

	response, err := service.Spreadsheets.Values.Get(spreadsheet, cmd.area).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("unable to retrieve data from sheet (%w)", google.WrapError(err))
	}

	if len(response.Values) == 0 {
		return fmt.Errorf("no data in spreadsheet/range")
	}

	tmp, err := os.CreateTemp(os.TempDir(), APP)
	if err != nil {
		return err
	}

	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if err := sheetToTSV(tmp, response); err != nil {
		return fmt.Errorf("error creating TSV file (%w)", err)
	}

	tmp.Close()

	dir := filepath.Dir(cmd.file)
	if err := os.MkdirAll(dir, 0770); err != nil {
		return err
	}

	if err := os.Rename(tmp.Name(), cmd.file); err != nil {
		return err
	}

	log.Infof("Retrieved %v rows to file %s", len(response.Values), cmd.file)

	return nil
}
