package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/kozaktomas/face-clock/internal/config"
	"github.com/kozaktomas/face-clock/internal/matcher"
	"github.com/spf13/cobra"
)

var employeesCmd = &cobra.Command{
	Use:   "employees",
	Short: "Manage enrolled employees",
}

var employeesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List enrolled employees",
	RunE:  runEmployeesList,
}

var employeesDupesCmd = &cobra.Command{
	Use:   "dupes",
	Short: "Find likely duplicate enrollments",
	Long: `Report pairs of enrollments whose embeddings are suspiciously close.
A pair below the threshold usually means one person was enrolled twice
under different names.`,
	RunE: runEmployeesDupes,
}

func init() {
	rootCmd.AddCommand(employeesCmd)
	employeesCmd.AddCommand(employeesListCmd)
	employeesCmd.AddCommand(employeesDupesCmd)

	employeesDupesCmd.Flags().Float64("threshold", 0.25, "Maximum distance for a pair to count as a duplicate")
}

func runEmployeesList(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

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

	employees, err := deps.employees.ListEnrolled(ctx)
	if err != nil {
		return fmt.Errorf("failed to list employees: %w", err)
	}

	if len(employees) == 0 {
		fmt.Println("No employees enrolled.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tDEPARTMENT\tMODEL\tENROLLED")
	for _, e := range employees {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			e.ID, e.Name, e.Department, e.ModelVersion, e.CreatedAt.Format("2006-01-02"))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\n%d employees enrolled\n", len(employees))
	return nil
}

func runEmployeesDupes(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	threshold := mustGetFloat64(cmd, "threshold")

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

	employees, err := deps.employees.ListEnrolled(ctx)
	if err != nil {
		return fmt.Errorf("failed to list employees: %w", err)
	}

	candidates := make([]matcher.Candidate, 0, len(employees))
	for _, e := range employees {
		candidates = append(candidates, matcher.Candidate{
			ID:           e.ID,
			Name:         e.Name,
			ModelVersion: e.ModelVersion,
			Vector:       e.Embedding,
		})
	}

	pairs := deps.matcher.FindDuplicatePairs(candidates, threshold)
	if len(pairs) == 0 {
		fmt.Printf("No duplicate pairs below distance %.4f.\n", threshold)
		return nil
	}

	fmt.Printf("Found %d suspicious pairs (distance < %.4f):\n\n", len(pairs), threshold)
	for _, p := range pairs {
		fmt.Printf("  %.4f  %s (%s)\n          %s (%s)\n",
			p.Distance, p.FirstName, p.FirstID, p.SecondName, p.SecondID)
	}
	return nil
}
