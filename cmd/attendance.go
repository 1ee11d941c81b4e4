package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/kozaktomas/face-clock/internal/config"
	"github.com/spf13/cobra"
)

var attendanceCmd = &cobra.Command{
	Use:   "attendance",
	Short: "Inspect attendance records",
}

var attendanceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List attendance events in a time range",
	Long: `List attendance events. Without flags the range is today's window:
from midnight in the configured timezone up to now.`,
	RunE: runAttendanceList,
}

func init() {
	rootCmd.AddCommand(attendanceCmd)
	attendanceCmd.AddCommand(attendanceListCmd)

	attendanceListCmd.Flags().String("from", "", "Range start (RFC 3339)")
	attendanceListCmd.Flags().String("to", "", "Range end (RFC 3339)")
}

func runAttendanceList(cmd *cobra.Command, args []string) error {
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

	from, to := deps.window.Bounds(time.Now())
	if raw := mustGetString(cmd, "from"); raw != "" {
		from, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return fmt.Errorf("invalid --from value %q: %w", raw, err)
		}
	}
	if raw := mustGetString(cmd, "to"); raw != "" {
		to, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return fmt.Errorf("invalid --to value %q: %w", raw, err)
		}
	}

	events, err := deps.events.ListRange(ctx, from, to)
	if err != nil {
		return fmt.Errorf("failed to list attendance events: %w", err)
	}

	if len(events) == 0 {
		fmt.Printf("No attendance events between %s and %s.\n",
			from.Format(time.RFC3339), to.Format(time.RFC3339))
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tKIND\tEMPLOYEE\tID")
	for _, e := range events {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			e.OccurredAt.Format("2006-01-02 15:04:05"), e.Kind, e.EmployeeName, e.EmployeeID)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\n%d events\n", len(events))
	return nil
}
