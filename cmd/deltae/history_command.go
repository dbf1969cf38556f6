package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"deltae/internal/history"
	"deltae/internal/report"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded scoring runs",
	}

	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryShowCommand(ctx))
	historyCmd.AddCommand(newHistoryRemoveCommand(ctx))
	historyCmd.AddCommand(newHistoryPruneCommand(ctx))
	return historyCmd
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *history.Store) error {
				runs, err := store.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if asJSON {
					if runs == nil {
						runs = []history.Run{}
					}
					return report.EncodeJSON(cmd.OutOrStdout(), runs)
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded")
					return nil
				}
				fmt.Fprintln(out, renderRunTable(runs, time.Now()))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func renderRunTable(runs []history.Run, now time.Time) string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			shortID(run.ID),
			humanize.RelTime(run.StartedAt, now, "ago", "from now"),
			truncateMiddle(baseName(run.Reconstructed), 32),
			geometry(run),
			report.Count(run.Frames),
			formatMean(run),
		})
	}
	return report.Table(
		[]string{"ID", "Started", "Reconstructed", "Stream", "Frames", "Total"},
		rows,
		[]report.Alignment{report.AlignLeft, report.AlignLeft, report.AlignLeft, report.AlignLeft, report.AlignRight, report.AlignRight},
	)
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	var showFrames bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show a recorded run (an unambiguous ID prefix is enough)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *history.Store) error {
				run, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				scores, err := store.Scores(cmd.Context(), run.ID)
				if err != nil {
					return err
				}
				if asJSON {
					payload := struct {
						*history.Run
						Scores any `json:"scores,omitempty"`
					}{Run: run}
					if showFrames {
						payload.Scores = scores
					}
					return report.EncodeJSON(cmd.OutOrStdout(), payload)
				}

				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				for _, line := range renderSectionHeader("Run "+run.ID, colorize) {
					fmt.Fprintln(out, line)
				}
				rows := [][]string{
					{"Started", run.StartedAt.Local().Format(time.DateTime)},
					{"Elapsed", run.Duration.Round(time.Millisecond).String()},
					{"Reference", run.Reference},
					{"Reconstructed", run.Reconstructed},
					{"Stream", geometry(*run)},
					{"Frames", report.Count(run.Frames)},
					{"Total", formatMean(*run)},
					{"Weights", fmt.Sprintf("kL=%g kC=%g kH=%g", run.KL, run.KC, run.KH)},
					{"Max score", strconv.FormatFloat(run.MaxScore, 'f', -1, 64)},
					{"Strict EOF", yesNo(run.StrictEOF)},
				}
				if run.UnpairedRef > 0 || run.UnpairedRec > 0 {
					rows = append(rows, []string{"Unpaired", fmt.Sprintf("reference %d, reconstructed %d", run.UnpairedRef, run.UnpairedRec)})
				}
				fmt.Fprintln(out, report.Table([]string{"Field", "Value"}, rows, nil))

				if stats, ok := report.Summarize(scores); ok {
					fmt.Fprintln(out, renderStatusLine("Worst frame", statusWarn,
						fmt.Sprintf("%08d: %s", stats.Worst, report.Score(stats.Min)), colorize))
				}
				if showFrames {
					lines := report.NewLines(out, false)
					for _, s := range scores {
						if err := lines.Emit(s); err != nil {
							return err
						}
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&showFrames, "frames", false, "Include per-frame scores")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func newHistoryRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <run-id>",
		Short: "Delete a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *history.Store) error {
				run, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				removed, err := store.Remove(cmd.Context(), run.ID)
				if err != nil {
					return err
				}
				if !removed {
					return fmt.Errorf("%w: %s", history.ErrNotFound, run.ID)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed run %s\n", run.ID)
				return nil
			})
		},
	}
}

func newHistoryPruneCommand(ctx *commandContext) *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete all but the most recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("keep") {
				keep = ctx.configValue().History.Keep
			}
			if keep <= 0 {
				return errors.New("prune requires a positive --keep (history.keep is 0)")
			}
			return ctx.withStore(func(store *history.Store) error {
				removed, err := store.Prune(cmd.Context(), keep)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d run(s), kept the newest %d\n", removed, keep)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&keep, "keep", 0, "Number of runs to keep (defaults to history.keep)")
	return cmd
}

func geometry(run history.Run) string {
	if run.Width == 0 {
		return "-"
	}
	return fmt.Sprintf("%dx%d %s", run.Width, run.Height, run.Chroma)
}

func formatMean(run history.Run) string {
	if !run.HasMean {
		return "n/a"
	}
	return report.Score(run.Mean)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func baseName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}

func truncateMiddle(value string, limit int) string {
	runes := []rune(value)
	if limit < 5 || len(runes) <= limit {
		return value
	}
	half := (limit - 3) / 2
	return string(runes[:half]) + "..." + string(runes[len(runes)-(limit-3-half):])
}
