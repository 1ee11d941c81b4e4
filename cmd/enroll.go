package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/kozaktomas/face-clock/internal/attendance"
	"github.com/kozaktomas/face-clock/internal/config"
	"github.com/spf13/cobra"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll",
	Short: "Enroll a new employee from a photo",
	Long: `Enroll a new employee. The photo goes through the same quality gate
as kiosk captures: exactly one face, confident detection, large enough,
and passing the liveness heuristics.`,
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)

	enrollCmd.Flags().String("photo", "", "Path to the reference photo (required)")
	enrollCmd.Flags().String("name", "", "Employee name (required)")
	enrollCmd.Flags().String("email", "", "Employee email")
	enrollCmd.Flags().String("phone", "", "Employee phone")
	enrollCmd.Flags().String("department", "", "Employee department")
	enrollCmd.MarkFlagRequired("photo")
	enrollCmd.MarkFlagRequired("name")
}

func runEnroll(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	photoPath := mustGetString(cmd, "photo")
	image, err := os.ReadFile(photoPath)
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

	result, err := deps.engine.Enroll(ctx, attendance.EnrollRequest{
		Name:       mustGetString(cmd, "name"),
		Email:      mustGetString(cmd, "email"),
		Phone:      mustGetString(cmd, "phone"),
		Department: mustGetString(cmd, "department"),
		PhotoRef:   photoPath,
		Image:      image,
	})
	if err != nil {
		return err
	}

	if result.Rejected {
		return errors.New("enrollment rejected: " + result.Message)
	}

	fmt.Printf("Enrolled %s\n", result.Employee.Name)
	fmt.Printf("  ID:            %s\n", result.Employee.ID)
	fmt.Printf("  Model version: %s (dim %d)\n", result.Employee.ModelVersion, result.Employee.Dim)
	return nil
}
