package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/visionprobe/probe-cli/internal/model"
	"github.com/visionprobe/probe-cli/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect analysis run history",
	Long:  "Commands for listing and viewing stored analysis runs.",
}

// -- runs list --

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List analysis runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")

		runs, err := st.ListRuns(ctx, store.RunFilter{
			Status: model.RunStatus(status),
			Limit:  limit,
		})
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRunsList(os.Stdout, runs)
		return nil
	},
}

// -- runs show --

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show full details of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		run, err := st.GetRun(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "runs show")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	},
}

func init() {
	runsListCmd.Flags().String("status", "", "filter by run status (queued, running, complete, aborted, failed)")
	runsListCmd.Flags().Int("limit", 50, "max number of runs to display")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	rootCmd.AddCommand(runsCmd)
}

// formatRunsList writes a tabular list of runs to w.
func formatRunsList(out io.Writer, runs []model.Run) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tPRODUCT\tSTATUS\tTOKENS\tCREATED\tDURATION")
	_, _ = fmt.Fprintln(w, "--\t-------\t------\t------\t-------\t--------")

	for _, r := range runs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			truncateID(r.ID),
			runProduct(r),
			r.Status,
			runTokens(r),
			r.CreatedAt.Format("2006-01-02 15:04"),
			runDuration(r),
		)
	}
	_ = w.Flush()
}

// runProduct returns a display label for the run: the identified product when
// there is one, otherwise the input descriptor.
func runProduct(r model.Run) string {
	name := ""
	if r.Result != nil && r.Result.Report != nil && r.Result.Report.Data.Identification != nil {
		name = r.Result.Report.Data.Identification.ProductName
	}
	if name == "" {
		switch {
		case r.Input.ImageName != "":
			name = r.Input.ImageName
		case len(r.Input.URLs) > 0:
			name = r.Input.URLs[0]
		}
	}
	if len(name) > 30 {
		name = name[:27] + "..."
	}
	return name
}

func runTokens(r model.Run) string {
	if r.Result == nil {
		return ""
	}
	return fmt.Sprintf("%d", r.Result.TotalTokens)
}

func runDuration(r model.Run) string {
	if r.Result == nil {
		return ""
	}
	return (time.Duration(r.Result.DurationMS) * time.Millisecond).Round(time.Second).String()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
