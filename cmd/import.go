package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/kozaktomas/face-clock/internal/attendance"
	"github.com/kozaktomas/face-clock/internal/config"
	"github.com/kozaktomas/face-clock/internal/database"
	"github.com/kozaktomas/face-clock/internal/database/legacy"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import data from another system",
}

var importLegacyCmd = &cobra.Command{
	Use:   "legacy",
	Short: "Import employees and punch history from the legacy MySQL system",
	Long: `Import employees and their punch history from the legacy attendance
system. Each employee's stored photo is re-enrolled through the normal
quality gate; punch records are copied with their original timestamps.

Employees whose normalized name already exists are skipped, so the
import can be re-run after fixing individual failures.`,
	RunE: runImportLegacy,
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.AddCommand(importLegacyCmd)

	importLegacyCmd.Flags().String("dsn", "", "Legacy MySQL DSN, e.g. user:pass@tcp(host:3306)/attendance (required)")
	importLegacyCmd.Flags().String("photos-dir", "", "Directory holding the legacy photo files (required)")
	importLegacyCmd.MarkFlagRequired("dsn")
	importLegacyCmd.MarkFlagRequired("photos-dir")
}

func runImportLegacy(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	photosDir := mustGetString(cmd, "photos-dir")

	legacyPool, err := legacy.NewPool(mustGetString(cmd, "dsn"))
	if err != nil {
		return fmt.Errorf("failed to connect to legacy MySQL: %w", err)
	}
	defer legacyPool.Close()

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

	legacyEmployees, err := legacyPool.GetEmployees(ctx)
	if err != nil {
		return fmt.Errorf("failed to read legacy employees: %w", err)
	}
	if len(legacyEmployees) == 0 {
		fmt.Println("Legacy database has no employees.")
		return nil
	}

	enrolled, err := deps.employees.ListEnrolled(ctx)
	if err != nil {
		return fmt.Errorf("failed to list enrolled employees: %w", err)
	}
	existing := make(map[string]string, len(enrolled))
	for _, e := range enrolled {
		existing[database.NormalizeEmployeeName(e.Name)] = e.ID
	}

	bar := progressbar.NewOptions(len(legacyEmployees),
		progressbar.OptionSetDescription("Importing employees"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("employees"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)

	var imported, skipped, failed, punchCount int
	var failures []string

	for _, le := range legacyEmployees {
		bar.Add(1)

		// Skipping here also skips the punch copy, so a re-run never
		// duplicates history for employees imported earlier.
		if _, already := existing[database.NormalizeEmployeeName(le.Name)]; already {
			skipped++
			continue
		}

		photoPath := filepath.Join(photosDir, le.PhotoPath)
		image, err := os.ReadFile(photoPath)
		if err != nil {
			failed++
			failures = append(failures, fmt.Sprintf("%s: reading photo: %v", le.Name, err))
			continue
		}

		result, err := deps.engine.Enroll(ctx, attendance.EnrollRequest{
			Name:       le.Name,
			Email:      le.Email,
			Phone:      le.Phone,
			Department: le.Department,
			PhotoRef:   photoPath,
			Image:      image,
		})
		if err != nil {
			failed++
			failures = append(failures, fmt.Sprintf("%s: %v", le.Name, err))
			continue
		}
		if result.Rejected {
			failed++
			failures = append(failures, fmt.Sprintf("%s: %s", le.Name, result.Message))
			continue
		}
		employeeID := result.Employee.ID
		imported++

		punches, err := legacyPool.GetPunches(ctx, le.ID)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: reading punches: %v", le.Name, err))
			continue
		}
		for _, punch := range punches {
			kind := database.KindEntry
			if punch.Direction == "out" {
				kind = database.KindExit
			}
			event := &database.AttendanceEvent{
				ID:           uuid.New().String(),
				EmployeeID:   employeeID,
				EmployeeName: le.Name,
				Kind:         kind,
				OccurredAt:   punch.PunchedAt,
			}
			if err := deps.events.Append(ctx, event); err != nil {
				failures = append(failures, fmt.Sprintf("%s: copying punch at %s: %v", le.Name, punch.PunchedAt, err))
				break
			}
			punchCount++
		}
	}

	fmt.Printf("\n\nImport finished:\n")
	fmt.Printf("  Enrolled: %d\n", imported)
	fmt.Printf("  Skipped (already enrolled): %d\n", skipped)
	fmt.Printf("  Failed: %d\n", failed)
	fmt.Printf("  Punches copied: %d\n", punchCount)

	if len(failures) > 0 {
		fmt.Println("\nFailures:")
		for _, f := range failures {
			fmt.Printf("  - %s\n", f)
		}
	}
	return nil
}
