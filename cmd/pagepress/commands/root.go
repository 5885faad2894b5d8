package commands

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configFile string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pagepress",
	Short: "Publish markdown documents to Confluence",
	Long: `Pagepress creates or updates Confluence pages from local markdown files.
A document can be merged into a named Confluence content template with a
generative-AI pass, and supplementary files can be attached to the page
and linked from its body.`,
	Example: `  pagepress publish --markdown-file doc.md
  pagepress publish --markdown-file doc.md --template-name "Design Doc" --title "My Page"
  pagepress publish --markdown-file doc.md --attach report.pdf --attach data.csv
  pagepress get-page --space DBT --page "My Page" --format markdown`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Credentials may live in a local .env file; absence is fine.
		_ = godotenv.Load()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags available to all subcommands
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "config.yaml", "path to configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}
