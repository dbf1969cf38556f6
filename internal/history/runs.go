package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"deltae/internal/quality"
)

// ErrNotFound is returned when no run matches an identifier.
var ErrNotFound = errors.New("run not found")

// ErrAmbiguous is returned when an identifier prefix matches several runs.
var ErrAmbiguous = errors.New("run id prefix is ambiguous")

// Run is one stored scoring run.
type Run struct {
	ID            string        `json:"id"`
	StartedAt     time.Time     `json:"started_at"`
	Duration      time.Duration `json:"duration"`
	Reference     string        `json:"reference"`
	Reconstructed string        `json:"reconstructed"`
	Width         int           `json:"width"`
	Height        int           `json:"height"`
	Chroma        string        `json:"chroma"`
	Depth         int           `json:"depth"`
	Frames        int           `json:"frames"`
	Mean          float64       `json:"mean"`
	HasMean       bool          `json:"has_mean"`
	UnpairedRef   int           `json:"unpaired_ref"`
	UnpairedRec   int           `json:"unpaired_rec"`
	StrictEOF     bool          `json:"strict_eof"`
	KL            float64       `json:"kl"`
	KC            float64       `json:"kc"`
	KH            float64       `json:"kh"`
	MaxScore      float64       `json:"max_score"`
}

const runColumns = `id, started_at, duration_ms, reference, reconstructed, width, height, chroma, depth,
	frames, mean_score, unpaired_ref, unpaired_rec, strict_eof, kl, kc, kh, max_score`

// Record stores run and its frame scores in one transaction.
func (s *Store) Record(ctx context.Context, run Run, scores []quality.Score) error {
	if strings.TrimSpace(run.ID) == "" {
		return errors.New("record run: id is required")
	}
	return s.write(ctx, func(ctx context.Context) error {
		return s.insert(ctx, run, scores)
	})
}

func (s *Store) insert(ctx context.Context, run Run, scores []quality.Score) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var mean any
	if run.HasMean {
		mean = run.Mean
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO runs (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.Duration.Milliseconds(),
		run.Reference,
		run.Reconstructed,
		run.Width,
		run.Height,
		run.Chroma,
		run.Depth,
		run.Frames,
		mean,
		run.UnpairedRef,
		run.UnpairedRec,
		sqlBool(run.StrictEOF),
		run.KL,
		run.KC,
		run.KH,
		run.MaxScore,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO frame_scores (run_id, frame_index, mean_delta, score, clamped) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare frame insert: %w", err)
	}
	defer stmt.Close()
	for _, sc := range scores {
		if _, err := stmt.ExecContext(ctx, run.ID, sc.Index, sc.MeanDifference, sc.Value, sqlBool(sc.Clamped)); err != nil {
			return fmt.Errorf("insert frame %d: %w", sc.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

// List returns the most recent runs first. A non-positive limit returns all.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	query := "SELECT " + runColumns + " FROM runs ORDER BY started_at DESC, id"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// Get resolves a full run identifier or a unique prefix of one.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: empty id", ErrNotFound)
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+runColumns+" FROM runs WHERE id = ? OR substr(id, 1, ?) = ? ORDER BY id = ? DESC LIMIT 2",
		id, len(id), id, id)
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	defer rows.Close()

	var found []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		found = append(found, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	switch {
	case len(found) == 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	case found[0].ID == id:
		return found[0], nil
	case len(found) > 1:
		return nil, fmt.Errorf("%w: %s", ErrAmbiguous, id)
	}
	return found[0], nil
}

// Scores returns the frame scores of a run in frame order.
func (s *Store) Scores(ctx context.Context, runID string) ([]quality.Score, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT frame_index, mean_delta, score, clamped FROM frame_scores WHERE run_id = ? ORDER BY frame_index",
		runID)
	if err != nil {
		return nil, fmt.Errorf("query frame scores: %w", err)
	}
	defer rows.Close()

	var scores []quality.Score
	for rows.Next() {
		var (
			sc      quality.Score
			clamped int
		)
		if err := rows.Scan(&sc.Index, &sc.MeanDifference, &sc.Value, &clamped); err != nil {
			return nil, fmt.Errorf("scan frame score: %w", err)
		}
		sc.Clamped = clamped != 0
		scores = append(scores, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate frame scores: %w", err)
	}
	return scores, nil
}

// Prune keeps the newest keep runs and deletes the rest. It returns the
// number of runs removed. A non-positive keep removes nothing.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}
	var removed int64
	err := s.write(ctx, func(ctx context.Context) error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id NOT IN (
			SELECT id FROM runs ORDER BY started_at DESC, id LIMIT ?)`, keep)
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return removed, nil
}

// Remove deletes one run and its frame scores.
func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	var affected int64
	err := s.write(ctx, func(ctx context.Context) error {
		res, err := s.db.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", id)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return false, fmt.Errorf("remove run: %w", err)
	}
	return affected > 0, nil
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run       Run
		started   string
		duration  int64
		mean      sql.NullFloat64
		strictEOF int
	)
	if err := scanner.Scan(
		&run.ID,
		&started,
		&duration,
		&run.Reference,
		&run.Reconstructed,
		&run.Width,
		&run.Height,
		&run.Chroma,
		&run.Depth,
		&run.Frames,
		&mean,
		&run.UnpairedRef,
		&run.UnpairedRec,
		&strictEOF,
		&run.KL,
		&run.KC,
		&run.KH,
		&run.MaxScore,
	); err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, started)
	if err != nil {
		return nil, fmt.Errorf("parse started_at for run %s: %w", run.ID, err)
	}
	run.StartedAt = ts
	run.Duration = time.Duration(duration) * time.Millisecond
	run.Mean, run.HasMean = mean.Float64, mean.Valid
	run.StrictEOF = strictEOF != 0
	return &run, nil
}

func sqlBool(v bool) int {
	if v {
		return 1
	}
	return 0
}
