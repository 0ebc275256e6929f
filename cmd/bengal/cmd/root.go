// Package cmd provides the bengal CLI commands.
package cmd

import (
	"github.com/spf13/cobra"
)

var (
	// siteRoot is the site directory, defaulting to the current directory.
	siteRoot string

	// cfgFile is an explicit config file path, overriding auto-discovery.
	cfgFile string

	// incrementalBuild enables the incremental filter instead of a full rebuild.
	incrementalBuild bool

	// verbose enables verbose output.
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "bengal",
	Short: "A content-addressed static site generator",
	Long: `Bengal builds a static site from a content tree of Markdown files,
a theme's templates, and a site configuration.

Example usage:
  bengal build                 # Full build of the current directory
  bengal build --incremental   # Only rebuild what changed since the last build
  bengal clean                 # Remove the output directory and build cache`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Version:       Version,
}

// Execute runs the root command. Called once from main.main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&siteRoot, "root", ".", "site root directory")
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: auto-discover)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
