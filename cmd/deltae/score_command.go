package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"deltae/internal/config"
	"deltae/internal/history"
	"deltae/internal/logging"
	"deltae/internal/pipeline"
	"deltae/internal/quality"
	"deltae/internal/report"
	"deltae/internal/source"
)

type scoreFlags struct {
	summary   bool
	json      bool
	format    string
	strictEOF bool
	blockSize sizeValue
	noHistory bool
	progress  string
}

// apply copies explicitly set flags over the configured values.
func (f *scoreFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("summary") {
		cfg.Output.SummaryOnly = f.summary
	}
	if flags.Changed("format") {
		cfg.Output.Format = strings.ToLower(strings.TrimSpace(f.format))
	}
	if f.json {
		cfg.Output.Format = "json"
	}
	if flags.Changed("strict-eof") {
		cfg.Input.StrictEOF = f.strictEOF
	}
	if flags.Changed("block-size") {
		cfg.Input.BlockSize = int(f.blockSize)
	}
	if f.noHistory {
		cfg.History.Enabled = false
	}
	if flags.Changed("progress") {
		cfg.Output.Progress = strings.ToLower(strings.TrimSpace(f.progress))
	}
}

func newScoreCommand(ctx *commandContext) *cobra.Command {
	flags := &scoreFlags{blockSize: sizeValue(pipeline.DefaultBlockSize)}

	cmd := &cobra.Command{
		Use:   "score <reference> <reconstructed>",
		Short: "Score a reconstructed Y4M stream against its reference",
		Long: "Score prints one line per frame pair (frame index and quality score) followed by\n" +
			"the mean score. Either input may be \"-\" to read from stdin, and .zst inputs are\n" +
			"decompressed on the fly.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScore(cmd, ctx, args[0], args[1], flags)
		},
	}

	cmd.Flags().BoolVarP(&flags.summary, "summary", "s", false, "Only print the total score")
	cmd.Flags().BoolVar(&flags.json, "json", false, "Write a JSON document instead of score lines")
	cmd.Flags().StringVar(&flags.format, "format", "", "Output format: text, json or table")
	cmd.Flags().BoolVar(&flags.strictEOF, "strict-eof", false, "Stop at the first exhausted input without counting leftover frames")
	cmd.Flags().Var(&flags.blockSize, "block-size", "Bytes read from each input per step (e.g. 64KiB, 4MiB)")
	cmd.Flags().BoolVar(&flags.noHistory, "no-history", false, "Do not record this run in the history database")
	cmd.Flags().StringVar(&flags.progress, "progress", "", "Progress display: auto, always or never")
	return cmd
}

func runScore(cmd *cobra.Command, cc *commandContext, refPath, recPath string, flags *scoreFlags) error {
	base, err := cc.ensureConfig()
	if err != nil {
		return err
	}
	cfg := *base
	flags.apply(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
	logger, err := cc.logger(stderr)
	if err != nil {
		return err
	}

	fmt.Fprintf(stderr, "Opening %s...\n", displayPath(refPath))
	fmt.Fprintf(stderr, "Opening %s...\n", displayPath(recPath))
	ref, rec, err := source.OpenPair(refPath, recPath, cmd.InOrStdin())
	if err != nil {
		return err
	}
	defer ref.Close()
	defer rec.Close()
	logger.Debug("inputs opened",
		logging.String("reference", ref.Describe()),
		logging.String("reconstructed", rec.Describe()),
	)

	var lines *report.Lines
	var sink quality.Sink
	if cfg.Output.Format == "text" {
		lines = report.NewLines(stdout, cfg.Output.SummaryOnly)
		sink = lines
	}

	progress := newProgressReporter(cfg.Output.Progress, stderr, progressTotal(ref, rec), logger)
	run := pipeline.New(pipeline.Options{
		BlockSize: cfg.Input.BlockSize,
		StrictEOF: cfg.Input.StrictEOF,
		Weights:   cfg.Weights(),
		MaxScore:  cfg.Metric.MaxScore,
		Logger:    logger,
		Sink:      sink,
		Progress:  progress.update,
	})
	runCtx := logging.WithRunID(cmd.Context(), run.ID())
	res, err := run.Execute(runCtx, ref, rec)
	progress.finish()
	if err != nil {
		return err
	}

	runLogger := logging.WithContext(runCtx, logger)
	if !res.HasMean {
		logging.WarnWithContext(runLogger, "no frame pairs were scored", "no_pairs",
			logging.String(logging.FieldErrorHint, "check that both inputs contain complete frames"),
		)
	}

	switch cfg.Output.Format {
	case "json":
		doc := report.NewDocument(res, displayPath(refPath), displayPath(recPath), cfg.Input.StrictEOF, cfg.Output.SummaryOnly)
		if err := report.WriteJSON(stdout, doc); err != nil {
			return fmt.Errorf("write json: %w", err)
		}
	case "table":
		doc := report.NewDocument(res, displayPath(refPath), displayPath(recPath), cfg.Input.StrictEOF, true)
		for _, line := range renderSectionHeader("deltae "+report.Score(meanOrZero(res)), shouldColorize(stdout)) {
			fmt.Fprintln(stdout, line)
		}
		fmt.Fprintln(stdout, report.RenderSummary(doc))
	default:
		if err := lines.Total(res.Mean, res.HasMean); err != nil {
			return fmt.Errorf("write total: %w", err)
		}
	}

	if cfg.History.Enabled {
		recordHistory(runCtx, &cfg, res, refPath, recPath, runLogger)
	}
	return nil
}

// recordHistory stores the run. Failures are logged and never fail the
// command, because the scores have already been written.
func recordHistory(ctx context.Context, cfg *config.Config, res *pipeline.Result, refPath, recPath string, logger *slog.Logger) {
	store, err := history.Open(cfg)
	if err != nil {
		logging.WarnWithContext(logger, "history unavailable", "history_open_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run was not recorded"),
		)
		return
	}
	defer store.Close()

	entry := historyRun(cfg, res, refPath, recPath)
	if err := store.Record(ctx, entry, res.Scores); err != nil {
		logging.WarnWithContext(logger, "failed to record run", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run was not recorded"),
		)
		return
	}
	if cfg.History.Keep > 0 {
		removed, err := store.Prune(ctx, cfg.History.Keep)
		if err != nil {
			logging.WarnWithContext(logger, "failed to prune history", "history_prune_failed", logging.Error(err))
			return
		}
		if removed > 0 {
			logger.Debug("history pruned", logging.Int64("removed", removed), logging.Int("keep", cfg.History.Keep))
		}
	}
}

func historyRun(cfg *config.Config, res *pipeline.Result, refPath, recPath string) history.Run {
	entry := history.Run{
		ID:            res.RunID,
		StartedAt:     res.Started,
		Duration:      res.Duration,
		Reference:     absolutePath(refPath),
		Reconstructed: absolutePath(recPath),
		Frames:        res.Frames,
		Mean:          res.Mean,
		HasMean:       res.HasMean,
		UnpairedRef:   res.Unpaired.Ref,
		UnpairedRec:   res.Unpaired.Rec,
		StrictEOF:     cfg.Input.StrictEOF,
		KL:            cfg.Metric.KL,
		KC:            cfg.Metric.KC,
		KH:            cfg.Metric.KH,
		MaxScore:      cfg.Metric.MaxScore,
	}
	if h := res.Header; h != nil {
		entry.Width, entry.Height, entry.Chroma, entry.Depth = h.Width, h.Height, h.Chroma, h.Depth
	}
	return entry
}

func progressTotal(inputs ...*source.Input) int64 {
	var total int64
	for _, in := range inputs {
		if in.Size < 0 || in.Compressed {
			return -1
		}
		total += in.Size
	}
	return total
}

func displayPath(path string) string {
	if path == source.Stdin {
		return "stdin"
	}
	return path
}

func absolutePath(path string) string {
	if path == source.Stdin {
		return "stdin"
	}
	if abs, err := config.ExpandPath(path); err == nil {
		return abs
	}
	return path
}

func meanOrZero(res *pipeline.Result) float64 {
	if res.HasMean {
		return res.Mean
	}
	return 0
}

