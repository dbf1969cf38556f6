package main

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"deltae/internal/history"
	"deltae/internal/testsupport"
)

func TestScoreRecordsHistory(t *testing.T) {
	env := setupCLITestEnv(t)
	ref := writeGreyStream(t, env.baseDir, "ref.y4m", 16, 40)
	rec := writeGreyStream(t, env.baseDir, "rec.y4m", 18, 40)

	if _, stderr, err := runCLI(t, []string{"score", ref, rec}, env.configPath, nil); err != nil {
		t.Fatalf("score: %v\n%s", err, stderr)
	}

	out, _, err := runCLI(t, []string{"history", "list", "--json"}, env.configPath, nil)
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	var runs []history.Run
	if err := json.Unmarshal([]byte(out), &runs); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected one recorded run, got %d", len(runs))
	}
	run := runs[0]
	if run.Frames != 2 || !run.HasMean || run.Reference != ref || run.Chroma != "444" || run.KL != 0.65 {
		t.Fatalf("unexpected run %+v", run)
	}

	table, _, err := runCLI(t, []string{"history", "list"}, env.configPath, nil)
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	requireContains(t, table, run.ID[:8])
	requireContains(t, table, "rec.y4m")

	show, _, err := runCLI(t, []string{"history", "show", run.ID[:8], "--frames"}, env.configPath, nil)
	if err != nil {
		t.Fatalf("history show: %v", err)
	}
	requireContains(t, show, "Run "+run.ID)
	requireContains(t, show, "kL=0.65 kC=1 kH=4")
	requireContains(t, show, "00000001: 100.0000")
	requireContains(t, show, "Worst frame")

	removed, _, err := runCLI(t, []string{"history", "rm", run.ID}, env.configPath, nil)
	if err != nil {
		t.Fatalf("history rm: %v", err)
	}
	requireContains(t, removed, "Removed run "+run.ID)

	empty, _, err := runCLI(t, []string{"history", "list"}, env.configPath, nil)
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	requireContains(t, empty, "No runs recorded")
}

func TestScoreNoHistoryFlag(t *testing.T) {
	env := setupCLITestEnv(t)
	ref := writeGreyStream(t, env.baseDir, "ref.y4m", 16)
	if _, _, err := runCLI(t, []string{"score", "--no-history", ref, ref}, env.configPath, nil); err != nil {
		t.Fatalf("score: %v", err)
	}
	out, _, err := runCLI(t, []string{"history", "list", "--json"}, env.configPath, nil)
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	if strings.TrimSpace(out) != "[]" {
		t.Fatalf("expected no runs, got %s", out)
	}
}

func TestHistoryPrune(t *testing.T) {
	env := setupCLITestEnv(t)
	store := testsupport.MustOpenStore(t, env.cfg)
	base := time.Now().Add(-time.Hour)
	for i, id := range []string{"run-a", "run-b", "run-c"} {
		entry := history.Run{ID: id, StartedAt: base.Add(time.Duration(i) * time.Minute), Reference: "r", Reconstructed: "c"}
		if err := store.Record(t.Context(), entry, nil); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	out, _, err := runCLI(t, []string{"history", "prune", "--keep", "1"}, env.configPath, nil)
	if err != nil {
		t.Fatalf("history prune: %v", err)
	}
	requireContains(t, out, "Removed 2 run(s)")

	if _, _, err := runCLI(t, []string{"history", "show", "run-a"}, env.configPath, nil); err == nil {
		t.Fatal("expected pruned run to be gone")
	}
}

func TestHistoryDisabled(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithoutHistory())
	if _, _, err := runCLI(t, []string{"history", "list"}, env.configPath, nil); err == nil {
		t.Fatal("expected error when history is disabled")
	}
}

func TestTruncateMiddle(t *testing.T) {
	if got := truncateMiddle("short.y4m", 32); got != "short.y4m" {
		t.Fatalf("unexpected %q", got)
	}
	got := truncateMiddle("a-very-long-reconstruction-name.y4m", 16)
	if len([]rune(got)) != 16 || !strings.Contains(got, "...") || !strings.HasSuffix(got, ".y4m") {
		t.Fatalf("unexpected %q", got)
	}
}
