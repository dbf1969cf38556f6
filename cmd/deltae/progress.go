package main

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/schollz/progressbar/v3"

	"deltae/internal/logging"
	"deltae/internal/pipeline"
)

// progressReporter draws a byte progress bar on terminals and falls back to
// sampled debug records elsewhere. A nil reporter ignores updates.
type progressReporter struct {
	bar     *progressbar.ProgressBar
	logger  *slog.Logger
	sampler *logging.ProgressSampler
	total   int64
}

func newProgressReporter(mode string, w io.Writer, total int64, logger *slog.Logger) *progressReporter {
	switch mode {
	case "never":
		return nil
	case "auto":
		if !shouldColorize(w) {
			return &progressReporter{
				logger:  logging.NewComponentLogger(logger, "progress"),
				sampler: logging.NewProgressSampler(10),
				total:   total,
			}
		}
	}
	bar := progressbar.NewOptions64(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("scoring"),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
	return &progressReporter{bar: bar, total: total}
}

func (p *progressReporter) update(pr pipeline.Progress) {
	if p == nil {
		return
	}
	read := pr.RefBytes + pr.RecBytes
	if p.bar != nil {
		p.bar.Describe(fmt.Sprintf("scoring (%d frames)", pr.Scored))
		_ = p.bar.Set64(read)
		return
	}
	percent := -1.0
	if p.total > 0 {
		percent = float64(read) * 100 / float64(p.total)
	}
	if p.sampler.ShouldLog(percent, "scoring") {
		p.logger.Debug("scoring progress",
			logging.Float64("percent", percent),
			logging.Bytes("read", read),
			logging.Int("frames", pr.Scored),
		)
	}
}

func (p *progressReporter) finish() {
	if p == nil || p.bar == nil {
		return
	}
	_ = p.bar.Finish()
}
