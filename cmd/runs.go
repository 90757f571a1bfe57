package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/cwbudde/swarmbench/internal/store"
	"github.com/spf13/cobra"
)

var (
	runsDataDir   string
	keepLast      int
	olderThanDays int
	forceClean    bool
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Manage exported runs",
	Long: `Manage exported runs: every directory below the data directory that holds
a summary.json, including grid search combinations and suite attempts.`,
}

var listRunsCmd = &cobra.Command{
	Use:   "list",
	Short: "List all exported runs",
	Long:  `Display all runs with problem, method, iterations, final fitness, evaluations and size.`,
	RunE:  runListRuns,
}

var showRunCmd = &cobra.Command{
	Use:   "show <run>",
	Short: "Show one exported run",
	Long: `Display the configuration and summary of a run, check that its best fitness
never got worse, and report the trace when the run was made with --trace.`,
	Args: cobra.ExactArgs(1),
	RunE: runShowRun,
}

var cleanRunsCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean old runs",
	Long: `Delete runs based on a retention policy.
You can keep only the N most recent runs or delete runs older than N days.`,
	RunE: runCleanRuns,
}

func init() {
	rootCmd.AddCommand(runsCmd)

	runsCmd.AddCommand(listRunsCmd)
	runsCmd.AddCommand(showRunCmd)
	runsCmd.AddCommand(cleanRunsCmd)

	runsCmd.PersistentFlags().StringVar(&runsDataDir, "data-dir", "./data", "Base directory of exported runs")

	cleanRunsCmd.Flags().IntVar(&keepLast, "keep-last", 0, "Keep only the N most recent runs (0 = keep all)")
	cleanRunsCmd.Flags().IntVar(&olderThanDays, "older-than", 0, "Delete runs older than N days (0 = no age limit)")
	cleanRunsCmd.Flags().BoolVarP(&forceClean, "force", "f", false, "Skip confirmation prompt")
}

func runListRuns(cmd *cobra.Command, args []string) error {
	runStore, err := store.NewFSStore(runsDataDir)
	if err != nil {
		return fmt.Errorf("failed to open run store: %w", err)
	}

	infos, err := runStore.ListRuns()
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(infos) == 0 {
		fmt.Fprintf(out, "No runs found in %s.\n", runStore.BaseDir())
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tPROBLEM\tMETHOD\tITERATIONS\tFINAL FITNESS\tEVALUATIONS\tMODIFIED\tSIZE\tSTATUS")
	fmt.Fprintln(w, "---\t-------\t------\t----------\t-------------\t-----------\t--------\t----\t------")

	invalid := 0
	for _, info := range infos {
		size, err := getDirSize(runStore.RunPath(info.Dir))
		sizeStr := "unknown"
		if err == nil {
			sizeStr = formatBytes(size)
		}

		problem := info.Problem
		if problem != "" {
			problem = fmt.Sprintf("%s/%d", info.Problem, info.Dim)
		}

		status := "ok"
		if info.Issue != "" {
			status = "invalid"
			invalid++
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.6g\t%d\t%s\t%s\t%s\n",
			displayRun(info.Dir),
			problem,
			info.Method,
			info.Iterations,
			info.FinalFitness,
			info.Evaluations,
			info.ModTime.Format("2006-01-02 15:04:05"),
			sizeStr,
			status,
		)
	}

	w.Flush()

	fmt.Fprintf(out, "\nTotal runs: %d\n", len(infos))
	if invalid > 0 {
		fmt.Fprintf(out, "Invalid summaries: %d (see 'swarmbench runs show <run>')\n", invalid)
	}
	return nil
}

func runShowRun(cmd *cobra.Command, args []string) error {
	runStore, err := store.NewFSStore(runsDataDir)
	if err != nil {
		return fmt.Errorf("failed to open run store: %w", err)
	}
	runDir := args[0]

	summary, err := runStore.LoadSummary(runDir)
	if err != nil {
		return fmt.Errorf("failed to load run: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run:         %s\n", runDir)
	if config, err := runStore.LoadConfig(runDir); err == nil {
		fmt.Fprintf(out, "Problem:     %s (dim %d)\n", config.Problem.Name, config.Problem.Dim)
		fmt.Fprintf(out, "Method:      %s\n", config.Method.Name)
		names := make([]string, 0, len(config.Method.Parameters))
		for name := range config.Method.Parameters {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(out, "  %-16s %s\n", name, config.Method.Parameters[name])
		}
	}

	final, _ := summary.Final()
	fmt.Fprintf(out, "Iterations:  %d\n", len(summary.GlobalBestFitness))
	fmt.Fprintf(out, "Final:       %.6g\n", final)
	fmt.Fprintf(out, "Evaluations: %d\n", summary.EvaluationCount)
	if err := summary.Validate(); err != nil {
		fmt.Fprintf(out, "Status:      invalid: %v\n", err)
	} else {
		fmt.Fprintln(out, "Status:      ok")
	}

	reader, err := store.NewTraceReader(runStore.RunPath(runDir))
	if errors.Is(err, store.ErrNotFound) {
		return nil
	} else if err != nil {
		return err
	}
	defer reader.Close()

	entries, err := reader.ReadAll()
	if err != nil {
		return fmt.Errorf("failed to read trace: %w", err)
	}
	if len(entries) > 0 {
		first, last := entries[0], entries[len(entries)-1]
		fmt.Fprintf(out, "Trace:       %d entries over %s\n", len(entries), last.Timestamp.Sub(first.Timestamp).Round(time.Millisecond))
	}
	return nil
}

func runCleanRuns(cmd *cobra.Command, args []string) error {
	if keepLast == 0 && olderThanDays == 0 {
		return fmt.Errorf("must specify either --keep-last or --older-than")
	}

	runStore, err := store.NewFSStore(runsDataDir)
	if err != nil {
		return fmt.Errorf("failed to open run store: %w", err)
	}

	infos, err := runStore.ListRuns()
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(infos) == 0 {
		fmt.Println("No runs to clean.")
		return nil
	}

	toDelete := selectRunsForDeletion(infos, keepLast, olderThanDays)

	if len(toDelete) == 0 {
		fmt.Println("No runs match deletion criteria.")
		return nil
	}

	fmt.Printf("Found %d run(s) to delete:\n", len(toDelete))
	for _, info := range toDelete {
		fmt.Printf("  - %s (%d iterations, %s)\n",
			displayRun(info.Dir),
			info.Iterations,
			info.ModTime.Format("2006-01-02 15:04:05"),
		)
	}

	if !forceClean {
		fmt.Print("\nProceed with deletion? [y/N]: ")
		var response string
		fmt.Scanln(&response)
		if response != "y" && response != "Y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	deleted := 0
	failed := 0
	for _, info := range toDelete {
		if err := runStore.DeleteRun(info.Dir); err != nil {
			slog.Error("Failed to delete run", "dir", info.Dir, "error", err)
			failed++
		} else {
			slog.Info("Deleted run", "dir", info.Dir)
			deleted++
		}
	}

	fmt.Printf("\nDeleted %d run(s), %d failed.\n", deleted, failed)
	return nil
}

// selectRunsForDeletion applies the age limit and then keeps only the keepLast
// most recent runs. Each run is selected at most once.
func selectRunsForDeletion(infos []store.RunInfo, keepLast int, olderThanDays int) []store.RunInfo {
	var toDelete []store.RunInfo
	selected := make(map[string]bool)

	if olderThanDays > 0 {
		cutoff := time.Now().AddDate(0, 0, -olderThanDays)
		for _, info := range infos {
			if info.ModTime.Before(cutoff) {
				toDelete = append(toDelete, info)
				selected[info.Dir] = true
			}
		}
	}

	if keepLast > 0 && len(infos) > keepLast {
		sorted := make([]store.RunInfo, len(infos))
		copy(sorted, infos)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].ModTime.Before(sorted[j].ModTime)
		})

		for _, info := range sorted[:len(sorted)-keepLast] {
			if !selected[info.Dir] {
				toDelete = append(toDelete, info)
				selected[info.Dir] = true
			}
		}
	}

	return toDelete
}

// displayRun shortens long run directories for tables.
func displayRun(dir string) string {
	if len(dir) <= 40 {
		return dir
	}
	return "..." + dir[len(dir)-37:]
}

// getDirSize calculates the total size of a directory
func getDirSize(path string) (int64, error) {
	var size int64
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size, err
}

// formatBytes formats bytes as human-readable string
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
