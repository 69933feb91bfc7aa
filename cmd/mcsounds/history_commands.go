package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"mcsounds/internal/config"
	"mcsounds/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent extraction runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(ctx, func(store *history.Store) error {
				runs, err := store.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if jsonOut {
					if runs == nil {
						runs = []history.Run{}
					}
					return writeJSON(cmd, runs)
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded")
					return nil
				}
				fmt.Fprintln(out, renderRunTable(runs))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print runs as JSON")

	cmd.AddCommand(newHistoryShowCommand(ctx))
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one run and the files it skipped",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(ctx, func(store *history.Store) error {
				run, err := store.Get(cmd.Context(), args[0])
				if errors.Is(err, history.ErrNotFound) {
					return fmt.Errorf("run %q not found", args[0])
				}
				if err != nil {
					return err
				}
				failures, err := store.Failures(cmd.Context(), run.ID)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, struct {
						history.Run
						Failures []history.Failure `json:"failures"`
					}{run, failures})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderRunDetail(run, failures))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the run as JSON")
	return cmd
}

func withHistory(ctx *commandContext, fn func(*history.Store) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	return openHistory(cfg, fn)
}

func openHistory(cfg *config.Config, fn func(*history.Store) error) error {
	if !cfg.History.Enabled {
		return errors.New("run history is disabled (history.enabled = false)")
	}
	store, err := history.Open(cfg.HistoryPath())
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()
	return fn(store)
}

func renderRunTable(runs []history.Run) string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		status := run.Status
		if run.Reason != "" {
			status += " (" + run.Reason + ")"
		}
		if run.DryRun {
			status += " [dry run]"
		}
		rows = append(rows, []string{
			shortID(run.ID),
			formatTime(run.StartedAt),
			status,
			formatRunFormats(run.Formats),
			formatCount(run.Copied),
			formatCount(run.Errors),
			formatDuration(run.Duration()),
		})
	}
	return renderTable("", []string{"ID", "Started", "Status", "Formats", "Copied", "Errors", "Duration"}, rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight})
}

func renderRunDetail(run history.Run, failures []history.Failure) string {
	pairs := [][2]string{
		{"ID", run.ID},
		{"Status", run.Status},
	}
	if run.Reason != "" {
		pairs = append(pairs, [2]string{"Reason", run.Reason})
	}
	if run.Message != "" {
		pairs = append(pairs, [2]string{"Message", run.Message})
	}
	pairs = append(pairs,
		[2]string{"Source", run.SourceRoot},
		[2]string{"Output", run.OutputRoot},
		[2]string{"Asset index", dashIfEmpty(run.ManifestVersion)},
		[2]string{"Formats", formatRunFormats(run.Formats)},
		[2]string{"Keep originals", yesNo(run.KeepOriginals)},
		[2]string{"Dry run", yesNo(run.DryRun)},
		[2]string{"Copied", fmt.Sprintf("%s (%s)", formatCount(run.Copied), humanize.Bytes(uint64(max(run.CopiedBytes, 0))))},
	)
	formats := make([]string, 0, len(run.Converted))
	for format := range run.Converted {
		formats = append(formats, format)
	}
	sort.Strings(formats)
	for _, format := range formats {
		pairs = append(pairs, [2]string{"Converted " + format, formatCount(run.Converted[format])})
	}
	pairs = append(pairs,
		[2]string{"Removed originals", formatCount(run.Removed)},
		[2]string{"Errors", formatCount(run.Errors)},
		[2]string{"Started", formatTime(run.StartedAt)},
		[2]string{"Finished", formatTime(run.FinishedAt)},
		[2]string{"Duration", formatDuration(run.Duration())},
	)

	var b strings.Builder
	b.WriteString(renderPairs("Run "+shortID(run.ID), pairs))
	if len(failures) > 0 {
		rows := make([][]string, 0, len(failures))
		for _, f := range failures {
			rows = append(rows, []string{f.Phase, f.Path, f.Message})
		}
		b.WriteString("\n")
		b.WriteString(renderTable("Skipped files", []string{"Phase", "Path", "Error"}, rows, nil))
	}
	return b.String()
}

func formatRunFormats(formats []string) string {
	if len(formats) == 0 {
		return "none"
	}
	return strings.Join(formats, ", ")
}

func dashIfEmpty(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
