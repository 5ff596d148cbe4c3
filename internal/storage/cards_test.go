package storage

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/ramonehamilton/commander-companion/internal/cards"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	conn, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	db := NewTestDB(conn)
	if err := CreateTestSchema(db); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	return NewService(db)
}

func TestService_SaveAndGetCard(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	batch := []cards.Card{
		{
			Name:          "Goblin Warchief",
			ColorIdentity: "R",
			ManaValue:     3,
			TypeLine:      "Creature — Goblin Warrior",
			Text:          "Goblin spells you cast cost {1} less to cast.",
			Keywords:      []string{"Haste"},
		},
	}

	if err := svc.SaveCards(ctx, batch); err != nil {
		t.Fatalf("SaveCards failed: %v", err)
	}

	card, err := svc.GetCardByName(ctx, "Goblin Warchief")
	if err != nil {
		t.Fatalf("GetCardByName failed: %v", err)
	}
	if card == nil {
		t.Fatal("expected card, got nil")
	}
	if card.ColorIdentity != "R" {
		t.Errorf("unexpected color identity: %q", card.ColorIdentity)
	}
	if card.ManaValue != 3 {
		t.Errorf("unexpected mana value: %v", card.ManaValue)
	}
	if len(card.Keywords) != 1 || card.Keywords[0] != "Haste" {
		t.Errorf("unexpected keywords: %v", card.Keywords)
	}
}

func TestService_GetCardByName_Missing(t *testing.T) {
	svc := newTestService(t)

	card, err := svc.GetCardByName(context.Background(), "Nonexistent Card")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if card != nil {
		t.Errorf("expected nil for missing card, got %+v", card)
	}
}

func TestService_GetCommander(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	t.Run("empty catalog", func(t *testing.T) {
		_, err := svc.GetCommander(ctx, "Krenko, Mob Boss")
		if !errors.Is(err, ErrNoCatalog) {
			t.Errorf("expected ErrNoCatalog, got %v", err)
		}
	})

	batch := []cards.Card{{Name: "Krenko, Mob Boss", ColorIdentity: "R", ManaValue: 4}}
	if err := svc.SaveCards(ctx, batch); err != nil {
		t.Fatalf("SaveCards failed: %v", err)
	}

	t.Run("found", func(t *testing.T) {
		commander, err := svc.GetCommander(ctx, "Krenko, Mob Boss")
		if err != nil {
			t.Fatalf("GetCommander failed: %v", err)
		}
		if commander.ColorIdentity != "R" {
			t.Errorf("unexpected color identity: %q", commander.ColorIdentity)
		}
	})

	t.Run("not found", func(t *testing.T) {
		_, err := svc.GetCommander(ctx, "krenko, mob boss")
		if !errors.Is(err, ErrCommanderNotFound) {
			t.Errorf("expected ErrCommanderNotFound, got %v", err)
		}
	})
}

func TestService_SaveCards_UpsertReplaces(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first := []cards.Card{{Name: "Shock", ColorIdentity: "R", ManaValue: 1, Text: "Shock deals 2 damage to any target."}}
	if err := svc.SaveCards(ctx, first); err != nil {
		t.Fatalf("SaveCards failed: %v", err)
	}

	second := []cards.Card{{Name: "Shock", ColorIdentity: "R", ManaValue: 1, Text: "Updated text."}}
	if err := svc.SaveCards(ctx, second); err != nil {
		t.Fatalf("SaveCards (upsert) failed: %v", err)
	}

	count, err := svc.CountCards(ctx)
	if err != nil {
		t.Fatalf("CountCards failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 card after upsert, got %d", count)
	}

	card, err := svc.GetCardByName(ctx, "Shock")
	if err != nil {
		t.Fatalf("GetCardByName failed: %v", err)
	}
	if card.Text != "Updated text." {
		t.Errorf("upsert did not replace text: %q", card.Text)
	}
}

func TestService_SaveCards_SkipsUnnamed(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	batch := []cards.Card{
		{Name: "", ColorIdentity: "R"},
		{Name: "Lightning Bolt", ColorIdentity: "R", ManaValue: 1},
	}
	if err := svc.SaveCards(ctx, batch); err != nil {
		t.Fatalf("SaveCards failed: %v", err)
	}

	count, err := svc.CountCards(ctx)
	if err != nil {
		t.Fatalf("CountCards failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected unnamed card to be skipped, got %d rows", count)
	}
}

func TestService_GetAllCards_OrderedByName(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	batch := []cards.Card{
		{Name: "Zealous Conscripts", ColorIdentity: "R", ManaValue: 5},
		{Name: "Arc Trail", ColorIdentity: "R", ManaValue: 2},
	}
	if err := svc.SaveCards(ctx, batch); err != nil {
		t.Fatalf("SaveCards failed: %v", err)
	}

	all, err := svc.GetAllCards(ctx)
	if err != nil {
		t.Fatalf("GetAllCards failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 cards, got %d", len(all))
	}
	if all[0].Name != "Arc Trail" || all[1].Name != "Zealous Conscripts" {
		t.Errorf("catalog not ordered by name: %q, %q", all[0].Name, all[1].Name)
	}
}

func TestService_Meta(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	value, err := svc.GetMeta(ctx, "data_version")
	if err != nil {
		t.Fatalf("GetMeta failed: %v", err)
	}
	if value != "" {
		t.Errorf("expected empty value for missing key, got %q", value)
	}

	if err := svc.SetMeta(ctx, "data_version", "5.2.1"); err != nil {
		t.Fatalf("SetMeta failed: %v", err)
	}
	if err := svc.SetMeta(ctx, "data_version", "5.2.2"); err != nil {
		t.Fatalf("SetMeta (update) failed: %v", err)
	}

	value, err = svc.GetMeta(ctx, "data_version")
	if err != nil {
		t.Fatalf("GetMeta failed: %v", err)
	}
	if value != "5.2.2" {
		t.Errorf("unexpected meta value: %q", value)
	}
}
