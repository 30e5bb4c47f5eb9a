//go:build integration

package pgmemory

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/leofalp/chatwidget/core/conversation"
	"github.com/leofalp/chatwidget/providers/ai"
)

var testPool *pgxpool.Pool

// TestMain starts one PostgreSQL container for the whole package and creates
// the default schema in it.
func TestMain(m *testing.M) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("chatwidget_test"),
		postgres.WithUsername("chatwidget"),
		postgres.WithPassword("chatwidget"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		log.Fatalf("pgmemory: failed to start postgres container: %v", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		log.Fatalf("pgmemory: failed to get connection string: %v", err)
	}

	testPool, err = pgxpool.New(ctx, connStr)
	if err != nil {
		log.Fatalf("pgmemory: failed to create pool: %v", err)
	}
	if err := New(testPool, "setup").EnsureSchema(ctx); err != nil {
		log.Fatalf("pgmemory: failed to create schema: %v", err)
	}

	code := m.Run()

	testPool.Close()
	if err := testcontainers.TerminateContainer(pgContainer); err != nil {
		log.Printf("pgmemory: failed to terminate container: %v", err)
	}
	os.Exit(code)
}

func newTestMemory(t *testing.T) *PgMemory {
	t.Helper()
	return New(testPool, "test-"+t.Name())
}

func TestPgMemory_AppendAndAllTurns(t *testing.T) {
	ctx := context.Background()
	mem := newTestMemory(t)

	turns := []ai.Turn{
		{Role: ai.RoleUser, Parts: []ai.Part{ai.ImagePart("image/png", "AAAA"), ai.TextPart("what is this?")}},
		{Role: ai.RoleModel, Parts: []ai.Part{ai.TextPart("a square")}},
	}
	for _, turn := range turns {
		if err := mem.AppendTurn(ctx, turn); err != nil {
			t.Fatalf("AppendTurn: %v", err)
		}
	}

	got, err := mem.AllTurns(ctx)
	if err != nil {
		t.Fatalf("AllTurns: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(got))
	}
	if got[0].ImageCount() != 1 || got[0].Parts[0].Image.Data != "AAAA" || got[0].Text() != "what is this?" {
		t.Errorf("user turn did not round-trip: %+v", got[0])
	}
	if got[1].Role != ai.RoleModel || got[1].Text() != "a square" {
		t.Errorf("model turn did not round-trip: %+v", got[1])
	}
}

func TestPgMemory_UpdateLastByRole(t *testing.T) {
	ctx := context.Background()
	mem := newTestMemory(t)

	found, err := mem.UpdateLastByRole(ctx, ai.RoleUser, func(*ai.Turn) {})
	if err != nil || found {
		t.Fatalf("expected no match on empty session, got found=%v err=%v", found, err)
	}

	_ = mem.AppendTurn(ctx, ai.Turn{Role: ai.RoleUser, Parts: []ai.Part{ai.TextPart("first")}})
	_ = mem.AppendTurn(ctx, ai.Turn{Role: ai.RoleUser, Parts: []ai.Part{ai.TextPart("second")}})
	_ = mem.AppendTurn(ctx, ai.Turn{Role: ai.RoleModel, Parts: []ai.Part{ai.TextPart("reply")}})

	found, err = mem.UpdateLastByRole(ctx, ai.RoleUser, func(turn *ai.Turn) {
		turn.Parts = append([]ai.Part{ai.ImagePart("image/jpeg", "BBBB")}, turn.Parts...)
	})
	if err != nil || !found {
		t.Fatalf("UpdateLastByRole: found=%v err=%v", found, err)
	}

	got, _ := mem.AllTurns(ctx)
	if got[0].ImageCount() != 0 || got[1].ImageCount() != 1 || got[2].Role != ai.RoleModel {
		t.Errorf("expected only the second user turn to change, got %+v", got)
	}
}

func TestPgMemory_KeepLastAndClear(t *testing.T) {
	ctx := context.Background()
	mem := newTestMemory(t)

	for i := 0; i < 5; i++ {
		_ = mem.AppendTurn(ctx, ai.Turn{Role: ai.RoleUser, Parts: []ai.Part{ai.TextPart(fmt.Sprintf("m%d", i))}})
	}

	removed, err := mem.KeepLast(ctx, 2)
	if err != nil || removed != 3 {
		t.Fatalf("KeepLast: removed=%d err=%v", removed, err)
	}
	last, _ := mem.LastTurns(ctx, 10)
	if len(last) != 2 || last[0].Text() != "m3" || last[1].Text() != "m4" {
		t.Errorf("unexpected retained turns: %+v", last)
	}

	if err := mem.ClearTurns(ctx); err != nil {
		t.Fatalf("ClearTurns: %v", err)
	}
	if n, _ := mem.Count(ctx); n != 0 {
		t.Errorf("expected empty session, got %d", n)
	}
}

func TestPgMemory_SessionIsolation(t *testing.T) {
	ctx := context.Background()
	a := New(testPool, "iso-a")
	b := New(testPool, "iso-b")

	_ = a.AppendTurn(ctx, ai.Turn{Role: ai.RoleUser, Parts: []ai.Part{ai.TextPart("only a")}})

	if n, _ := b.Count(ctx); n != 0 {
		t.Errorf("session b sees %d turns from session a", n)
	}
}

func TestPgMemory_WithTableName(t *testing.T) {
	ctx := context.Background()
	mem := New(testPool, "custom", WithTableName("widget_turns"))
	if err := mem.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	if err := mem.AppendTurn(ctx, ai.Turn{Role: ai.RoleUser, Parts: []ai.Part{ai.TextPart("hi")}}); err != nil {
		t.Fatalf("AppendTurn: %v", err)
	}
	if n, _ := New(testPool, "custom").Count(ctx); n != 0 {
		t.Errorf("default table should not see custom table rows, got %d", n)
	}
}

// TestConversationStore_OverPostgres runs the windowing policy against the
// PostgreSQL backend: 30 exchanges with MaxTurns 12 keep the last 24 turns.
func TestConversationStore_OverPostgres(t *testing.T) {
	ctx := context.Background()
	store := conversation.New(newTestMemory(t),
		conversation.WithMaxTurns(12),
		conversation.WithSystemPrompt("be brief"),
	)

	for i := 0; i < 30; i++ {
		if err := store.AppendUserTurn(ctx, fmt.Sprintf("q%d", i), nil); err != nil {
			t.Fatal(err)
		}
		if err := store.AppendModelTurn(ctx, fmt.Sprintf("a%d", i)); err != nil {
			t.Fatal(err)
		}
	}

	payload, err := store.ProviderPayload(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(payload) != 25 {
		t.Fatalf("expected pinned + 24 turns, got %d", len(payload))
	}
	if payload[0].Text() != "be brief" || payload[1].Text() != "q18" || payload[24].Text() != "a29" {
		t.Errorf("unexpected window: first=%q second=%q last=%q", payload[0].Text(), payload[1].Text(), payload[24].Text())
	}
}
