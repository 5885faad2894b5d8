package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"pagepress/pkg/version"
)

var (
	shortVersion bool
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `Display the version of pagepress along with the Git commit it was
built from and the Go toolchain and platform it was built with.`,
	Example: `  pagepress version         # Show full version information
  pagepress version --short # Show only version number`,
	RunE: runVersion,
}

func runVersion(cmd *cobra.Command, args []string) error {
	if shortVersion {
		fmt.Println(version.Short())
	} else {
		fmt.Println(version.Long())
	}
	return nil
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().BoolVar(&shortVersion, "short", false, "show only version number")
}
