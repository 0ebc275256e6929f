package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bengalssg/bengal/internal/config"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove the output directory and build cache",
	Long: `Clean removes build.output_dir and the .bengal/ cache directory,
forcing the next build to run as a full rebuild.`,
	RunE: runCleanCommand,
}

func init() {
	rootCmd.AddCommand(cleanCmd)
}

func runCleanCommand(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(siteRoot, cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	outputDir := filepath.Join(siteRoot, cfg.Build.OutputDir)
	cacheDir := filepath.Join(siteRoot, ".bengal")

	if verbose {
		fmt.Printf("Removing %s\n", outputDir)
		fmt.Printf("Removing %s\n", cacheDir)
	}

	if err := os.RemoveAll(outputDir); err != nil {
		return fmt.Errorf("removing output directory: %w", err)
	}
	if err := os.RemoveAll(cacheDir); err != nil {
		return fmt.Errorf("removing cache directory: %w", err)
	}

	fmt.Println("Clean complete.")
	return nil
}
