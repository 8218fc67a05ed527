package usage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/modelgate/modelgate/gateway"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "usage.db"), zerolog.Nop())
	if err != nil {
		t.Fatalf("Open() returned error: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordAndSummarize(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Now()

	records := []gateway.UsageRecord{
		{Provider: "anthropic", Model: "claude-sonnet-4-5", Operation: "chat",
			Tokens: gateway.TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}, OccurredAt: now},
		{Provider: "anthropic", Model: "claude-sonnet-4-5", Operation: "vision_chat",
			Tokens: gateway.TokenUsage{PromptTokens: 20, CompletionTokens: 10, TotalTokens: 30}, OccurredAt: now},
		{Provider: "openai", Model: "gpt-4o", Operation: "chat",
			Tokens: gateway.TokenUsage{PromptTokens: 7, CompletionTokens: 3, TotalTokens: 10}, OccurredAt: now},
	}
	for _, rec := range records {
		if err := store.Record(ctx, rec); err != nil {
			t.Fatalf("Record() returned error: %v", err)
		}
	}

	summaries, err := store.Summarize(ctx, time.Time{})
	if err != nil {
		t.Fatalf("Summarize() returned error: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("len(summaries) = %d, want 2", len(summaries))
	}

	anthropic := summaries[0]
	if anthropic.Provider != "anthropic" || anthropic.Model != "claude-sonnet-4-5" {
		t.Errorf("summaries[0] = %+v, want anthropic first (ordered)", anthropic)
	}
	if anthropic.Requests != 2 {
		t.Errorf("Requests = %d, want 2", anthropic.Requests)
	}
	if anthropic.PromptTokens != 30 || anthropic.CompletionTokens != 15 || anthropic.TotalTokens != 45 {
		t.Errorf("anthropic tokens = %+v, want 30/15/45", anthropic)
	}

	oai := summaries[1]
	if oai.Provider != "openai" || oai.TotalTokens != 10 {
		t.Errorf("summaries[1] = %+v, want openai total 10", oai)
	}
}

func TestSummarizeSince(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	old := time.Now().Add(-2 * time.Hour)
	recent := time.Now()

	if err := store.Record(ctx, gateway.UsageRecord{
		Provider: "anthropic", Model: "m", Operation: "chat",
		Tokens: gateway.TokenUsage{TotalTokens: 100}, OccurredAt: old,
	}); err != nil {
		t.Fatal(err)
	}
	if err := store.Record(ctx, gateway.UsageRecord{
		Provider: "anthropic", Model: "m", Operation: "chat",
		Tokens: gateway.TokenUsage{TotalTokens: 5}, OccurredAt: recent,
	}); err != nil {
		t.Fatal(err)
	}

	summaries, err := store.Summarize(ctx, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("Summarize() returned error: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("len(summaries) = %d, want 1", len(summaries))
	}
	if summaries[0].Requests != 1 || summaries[0].TotalTokens != 5 {
		t.Errorf("summary = %+v, want only the recent record", summaries[0])
	}
}

func TestRecordFillsMissingTimestamp(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Record(ctx, gateway.UsageRecord{
		Provider: "anthropic", Model: "m", Operation: "chat",
		Tokens: gateway.TokenUsage{TotalTokens: 1},
	}); err != nil {
		t.Fatalf("Record() returned error: %v", err)
	}

	// A zero OccurredAt is stamped at insert time, so it lands within any
	// recent window.
	summaries, err := store.Summarize(ctx, time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("Summarize() returned error: %v", err)
	}
	if len(summaries) != 1 {
		t.Errorf("len(summaries) = %d, want 1", len(summaries))
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usage.db")

	store, err := Open(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("first Open() returned error: %v", err)
	}
	store.Close()

	// Reopening an already-migrated database must not fail.
	store, err = Open(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("second Open() returned error: %v", err)
	}
	store.Close()
}
