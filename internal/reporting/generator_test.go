package reporting

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"lendscore/internal/domain"
	"lendscore/internal/storage/memory"
)

func setupTestData(t *testing.T) (*memory.RunStore, *memory.ScoreStore) {
	ctx := context.Background()

	runStore := memory.NewRunStore()
	scoreStore := memory.NewScoreStore()

	run := &domain.ScoringRun{
		RunID:       "run-1",
		StartedAt:   1700000000,
		FinishedAt:  1700000012,
		Wallets:     5,
		MinRawScore: 100,
		MaxRawScore: 900,
	}
	if err := runStore.Insert(ctx, run); err != nil {
		t.Fatalf("Insert run failed: %v", err)
	}

	scores := []domain.ScoreRecord{
		{RunID: "run-1", Wallet: "0xa", Score: 0, RawScore: 100},
		{RunID: "run-1", Wallet: "0xb", Score: 250, RawScore: 300},
		{RunID: "run-1", Wallet: "0xc", Score: 500, RawScore: 500},
		{RunID: "run-1", Wallet: "0xd", Score: 750, RawScore: 700},
		{RunID: "run-1", Wallet: "0xe", Score: 1000, RawScore: 900},
	}
	if err := scoreStore.InsertBulk(ctx, scores); err != nil {
		t.Fatalf("InsertBulk scores failed: %v", err)
	}

	return runStore, scoreStore
}

func TestGenerator_Generate(t *testing.T) {
	runStore, scoreStore := setupTestData(t)

	fixed := time.Unix(1700001000, 0).UTC()
	gen := NewGenerator(runStore, scoreStore).WithClock(func() time.Time { return fixed })

	report, err := gen.Generate(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if report.GeneratedAt != fixed {
		t.Errorf("GeneratedAt = %v, want %v", report.GeneratedAt, fixed)
	}
	if report.RunID != "run-1" {
		t.Errorf("RunID = %q, want run-1", report.RunID)
	}
	if report.Summary.Wallets != 5 {
		t.Errorf("Wallets = %d, want 5", report.Summary.Wallets)
	}
	if report.Summary.Min != 0 || report.Summary.Max != 1000 {
		t.Errorf("Min/Max = %d/%d, want 0/1000", report.Summary.Min, report.Summary.Max)
	}
	if report.Summary.Mean != 500 {
		t.Errorf("Mean = %.2f, want 500", report.Summary.Mean)
	}
	if report.Summary.Median != 500 {
		t.Errorf("Median = %.2f, want 500", report.Summary.Median)
	}
}

func TestGenerator_EmptyRunIDUsesLatest(t *testing.T) {
	runStore, scoreStore := setupTestData(t)
	ctx := context.Background()

	if err := runStore.Insert(ctx, &domain.ScoringRun{
		RunID:     "run-2",
		StartedAt: 1700005000,
	}); err != nil {
		t.Fatalf("Insert run failed: %v", err)
	}

	gen := NewGenerator(runStore, scoreStore)
	report, err := gen.Generate(ctx, "")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if report.RunID != "run-2" {
		t.Errorf("RunID = %q, want run-2 (latest)", report.RunID)
	}
	if report.Summary.Wallets != 0 {
		t.Errorf("Wallets = %d, want 0", report.Summary.Wallets)
	}
}

func TestGenerator_Distribution(t *testing.T) {
	runStore, scoreStore := setupTestData(t)

	gen := NewGenerator(runStore, scoreStore)
	report, err := gen.Generate(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if len(report.Distribution) != 10 {
		t.Fatalf("bucket count = %d, want 10", len(report.Distribution))
	}

	counts := make(map[int]int)
	total := 0
	for _, b := range report.Distribution {
		counts[b.Lo] = b.Count
		total += b.Count
	}
	if total != 5 {
		t.Errorf("total bucketed = %d, want 5", total)
	}
	if counts[0] != 1 {
		t.Errorf("bucket 0-100 = %d, want 1 (score 0)", counts[0])
	}
	if counts[200] != 1 {
		t.Errorf("bucket 200-300 = %d, want 1 (score 250)", counts[200])
	}
	// 1000 folds into the last bucket
	if counts[900] != 1 {
		t.Errorf("bucket 900-1000 = %d, want 1 (score 1000)", counts[900])
	}
}

func TestGenerator_Extremes(t *testing.T) {
	runStore, scoreStore := setupTestData(t)

	gen := NewGenerator(runStore, scoreStore)
	report, err := gen.Generate(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if len(report.TopWallets) != 5 {
		t.Fatalf("top rows = %d, want 5", len(report.TopWallets))
	}
	if report.TopWallets[0].Wallet != "0xe" {
		t.Errorf("top wallet = %q, want 0xe", report.TopWallets[0].Wallet)
	}
	if report.BottomWallets[0].Wallet != "0xa" {
		t.Errorf("bottom wallet = %q, want 0xa", report.BottomWallets[0].Wallet)
	}
}

func TestRenderMarkdown(t *testing.T) {
	runStore, scoreStore := setupTestData(t)

	gen := NewGenerator(runStore, scoreStore)
	report, err := gen.Generate(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	md := RenderMarkdown(report)
	for _, want := range []string{
		"# Wallet Score Report",
		"Run: run-1",
		"| Wallets Scored | 5 |",
		"## Score Distribution",
		"| 900-1000 | 1 |",
		"## Top Wallets",
		"| 0xe | 1000 |",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestRenderCSV(t *testing.T) {
	scores := []domain.ScoreRecord{
		{RunID: "run-1", Wallet: "0xa", Score: 0, RawScore: 100.5},
		{RunID: "run-1", Wallet: "0xb", Score: 1000, RawScore: 900},
	}

	out := RenderCSV(scores)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("line count = %d, want 3", len(lines))
	}
	if lines[0] != "run_id,wallet,score,raw_score" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "run-1,0xa,0,100.500000" {
		t.Errorf("row 1 = %q", lines[1])
	}
}

func TestRenderHistogram(t *testing.T) {
	runStore, scoreStore := setupTestData(t)

	gen := NewGenerator(runStore, scoreStore)
	report, err := gen.Generate(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	var buf bytes.Buffer
	if err := RenderHistogram(&buf, report); err != nil {
		t.Fatalf("RenderHistogram failed: %v", err)
	}
	// PNG signature
	if buf.Len() < 8 || !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
		t.Error("output is not a PNG")
	}
}

func TestRenderHistogram_EmptyRun(t *testing.T) {
	report := &Report{Distribution: bucketize(nil)}

	var buf bytes.Buffer
	if err := RenderHistogram(&buf, report); err == nil {
		t.Error("expected error for empty run")
	}
}
