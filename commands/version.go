package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// VERSION is set at build time with -ldflags "-X github.com/uhppoted/eo-backup/commands.VERSION=..."
var VERSION = "v0.1.0"

// VersionCmd is an initialized Version command for the main() command list
var VersionCmd = Version{}

// Version is a CLI command implementation that displays the CLI version information.
type Version struct {
}

// Command returns the 'version' command
func (v *Version) Command(options *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Displays the current version",
		Long:  "Displays the eo-backup version in the format v<major>.<minor>.<build> e.g. v0.1.0",
		Args:  cobra.NoArgs,
		Run: func(c *cobra.Command, args []string) {
			fmt.Fprintf(c.OutOrStdout(), "%s\n", VERSION)
		},
	}
}
