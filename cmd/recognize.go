package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/kozaktomas/face-clock/internal/config"
	"github.com/spf13/cobra"
)

var recognizeCmd = &cobra.Command{
	Use:   "recognize",
	Short: "Recognize a face and record a punch",
	Long: `Run the full recognition pipeline over a photo as if it arrived from
the kiosk. On a match the employee's next attendance event is recorded.`,
	RunE: runRecognize,
}

func init() {
	rootCmd.AddCommand(recognizeCmd)

	recognizeCmd.Flags().String("photo", "", "Path to the capture (required)")
	recognizeCmd.MarkFlagRequired("photo")
}

func runRecognize(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	image, err := os.ReadFile(mustGetString(cmd, "photo"))
	if err != nil {
		return fmt.Errorf("failed to read photo: %w", err)
	}

	pool, err := connectDatabase(cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	ctx := context.Background()
	deps, err := buildDeps(ctx, cfg, pool)
	if err != nil {
		return err
	}

	result, err := deps.engine.Recognize(ctx, image)
	if err != nil {
		return err
	}

	if !result.Matched {
		fmt.Printf("Not matched (%s): %s\n", result.Reason, result.Message)
		if result.Distance > 0 {
			fmt.Printf("  Closest distance: %.4f (threshold %.4f)\n", result.Distance, deps.matcher.Threshold())
		}
		return nil
	}

	fmt.Printf("%s: %s (%s)\n", result.AttendanceType, result.EmployeeName, result.EmployeeID)
	fmt.Printf("  Distance: %.4f (threshold %.4f)\n", result.Distance, deps.matcher.Threshold())
	fmt.Printf("  %s\n", result.Message)
	return nil
}
