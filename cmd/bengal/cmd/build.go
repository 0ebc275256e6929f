package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bengalssg/bengal/internal/orchestrator"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the static site",
	Long: `Build runs every phase of the build pipeline: content discovery,
incremental filtering, section finalization, taxonomies, assets,
rendering, postprocessing, cache persistence, and health checks.

Example usage:
  bengal build                # Full build
  bengal build --incremental  # Only rebuild what changed since the last build
  bengal build -v             # Build with a per-phase timing summary`,
	RunE: runBuildCommand,
}

func init() {
	rootCmd.AddCommand(buildCmd)
	buildCmd.Flags().BoolVar(&incrementalBuild, "incremental", false, "only rebuild pages/assets affected by what changed")
}

func runBuildCommand(_ *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	o := orchestrator.New(orchestrator.Options{
		SiteRoot:    siteRoot,
		ConfigPath:  cfgFile,
		Incremental: incrementalBuild,
	})

	start := time.Now()
	result, err := o.Run(ctx)
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	printBuildResult(result, time.Since(start))
	return nil
}

func printBuildResult(result *orchestrator.Result, duration time.Duration) {
	fmt.Println("Build completed successfully!")
	if result.FullRebuild {
		fmt.Printf("  Mode: full rebuild (%s)\n", result.IncrementalReason)
	} else {
		fmt.Printf("  Mode: incremental (%s)\n", result.IncrementalReason)
	}
	fmt.Printf("  Pages rendered:  %d\n", result.PagesRendered)
	fmt.Printf("  Pages cached:    %d\n", result.PagesCacheHit)
	if result.PagesFailed > 0 {
		fmt.Printf("  Pages failed:    %d\n", result.PagesFailed)
	}
	fmt.Printf("  Assets processed: %d\n", result.AssetsProcessed)

	if result.HealthReport != nil && len(result.HealthReport.Issues) > 0 {
		fmt.Printf("  Health check issues: %d\n", len(result.HealthReport.Issues))
		if verbose {
			for _, issue := range result.HealthReport.Issues {
				fmt.Printf("    [%s] %s: %s\n", issue.Severity, issue.Validator, issue.Message)
			}
		}
	}

	if verbose {
		fmt.Println("\nPhase timings:")
		for _, t := range result.Timings {
			fmt.Printf("  %-32s %s\n", t.Phase, t.Duration.Round(time.Millisecond))
		}
	}

	fmt.Printf("  Duration: %s\n", duration.Round(time.Millisecond))
}
