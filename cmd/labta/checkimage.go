package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"labta/internal/config"
	"labta/internal/sandbox"
)

var pullMissing bool

var checkImageCmd = &cobra.Command{
	Use:   "check-image",
	Short: "Verify the sandbox runner image is present",
	Long: `Checks that the configured sandbox image exists locally.
With --pull, a missing image is pulled from the registry.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		runner := sandbox.NewDockerRunner(sandbox.Config{
			Image:     cfg.Sandbox.Image,
			MountPath: cfg.Sandbox.MountPath,
			Timeout:   cfg.GetSandboxTimeout(),
		})
		if !runner.IsAvailable() {
			return fmt.Errorf("docker is not available on this system")
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
		defer cancel()

		if runner.ImageExists(ctx) {
			fmt.Printf("Image %q is present.\n", cfg.Sandbox.Image)
			return nil
		}

		if !pullMissing {
			return fmt.Errorf("image %q not found locally (use --pull to fetch it)", cfg.Sandbox.Image)
		}

		fmt.Printf("Pulling %q...\n", cfg.Sandbox.Image)
		if err := runner.PullImage(ctx); err != nil {
			return fmt.Errorf("pulling image: %w", err)
		}
		fmt.Println("Done.")
		return nil
	},
}

func init() {
	checkImageCmd.Flags().BoolVar(&pullMissing, "pull", false, "Pull the image when missing")
}
