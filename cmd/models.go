package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/kozaktomas/face-clock/internal/config"
	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Manage embedding model versions",
}

var modelsCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Report or remove enrollments from retired embedding models",
	Long: `Enrollments made with an older embedding model are skipped during
matching, so after a model upgrade they are dead weight. This command
lists enrollments per model version; with --delete it removes every
enrollment that does not match the configured model.

Deleted employees must be re-enrolled with a fresh photo.`,
	RunE: runModelsCleanup,
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.AddCommand(modelsCleanupCmd)

	modelsCleanupCmd.Flags().Bool("delete", false, "Delete enrollments from non-current model versions")
}

func runModelsCleanup(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	doDelete := mustGetBool(cmd, "delete")

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

	versions, err := deps.employees.ListModelVersions(ctx)
	if err != nil {
		return fmt.Errorf("failed to list model versions: %w", err)
	}

	if len(versions) == 0 {
		fmt.Println("No enrollments found.")
		return nil
	}

	current := cfg.Embedding.ModelVersion
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "MODEL VERSION\tDIM\tENROLLMENTS\t")
	var stale []string
	for _, v := range versions {
		marker := ""
		if v.ModelVersion == current {
			marker = "(current)"
		} else {
			stale = append(stale, v.ModelVersion)
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", v.ModelVersion, v.Dim, v.Count, marker)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(stale) == 0 {
		fmt.Println("\nAll enrollments use the current model. Nothing to clean up.")
		return nil
	}

	if !doDelete {
		fmt.Printf("\n%d retired model version(s). Run with --delete to remove their enrollments.\n", len(stale))
		return nil
	}

	for _, version := range stale {
		deleted, err := deps.employees.DeleteByModelVersion(ctx, version)
		if err != nil {
			return fmt.Errorf("failed to delete enrollments for model %s: %w", version, err)
		}
		fmt.Printf("Deleted %d enrollment(s) for model %s\n", deleted, version)
	}
	return nil
}
