package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/gtead/marketplace-backend/internal/repos"
	"github.com/gtead/marketplace-backend/internal/types"
)

func newEmptyStore(t *testing.T) *repos.Store {
	t.Helper()
	store, err := NewStore(nil, false)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store
}

func TestSolutionListInsertionOrderAndFilters(t *testing.T) {
	store := newEmptyStore(t)
	ctx := context.Background()

	vendorA := uuid.New()
	vendorB := uuid.New()
	titles := []string{"Alpha Sensor", "Bravo Radio", "Charlie Drone"}
	vendors := []uuid.UUID{vendorA, vendorB, vendorA}
	for i, title := range titles {
		_, err := store.Solutions.Create(ctx, &types.Solution{
			Title:           title,
			Description:     "desc",
			VendorID:        vendors[i],
			TRL:             i + 5,
			CapabilityAreas: datatypes.NewJSONSlice([]string{"ISR"}),
		})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	all, err := store.Solutions.List(ctx, repos.SolutionFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 solutions, got %d", len(all))
	}
	for i, title := range titles {
		if all[i].Title != title {
			t.Fatalf("position %d: expected %q, got %q", i, title, all[i].Title)
		}
	}

	mine, err := store.Solutions.List(ctx, repos.SolutionFilter{VendorID: &vendorA})
	if err != nil {
		t.Fatalf("List by vendor: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("expected 2 solutions for vendor, got %d", len(mine))
	}

	trl := 6
	byTRL, err := store.Solutions.List(ctx, repos.SolutionFilter{TRL: &trl})
	if err != nil {
		t.Fatalf("List by trl: %v", err)
	}
	if len(byTRL) != 1 || byTRL[0].Title != "Bravo Radio" {
		t.Fatalf("trl filter returned wrong rows: %+v", byTRL)
	}

	byArea, err := store.Solutions.List(ctx, repos.SolutionFilter{CapabilityArea: "isr"})
	if err != nil {
		t.Fatalf("List by area: %v", err)
	}
	if len(byArea) != 3 {
		t.Fatalf("capability area match should be case-insensitive, got %d rows", len(byArea))
	}
}

func TestSolutionUpdateRequiresExistingRecord(t *testing.T) {
	store := newEmptyStore(t)
	ctx := context.Background()

	_, err := store.Solutions.Update(ctx, &types.Solution{ID: uuid.New(), Title: "ghost"})
	if !errors.Is(err, repos.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	created, err := store.Solutions.Create(ctx, &types.Solution{VendorID: uuid.New(), Title: "real", Description: "d"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	created.Title = "renamed"
	updated, err := store.Solutions.Update(ctx, created)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Title != "renamed" {
		t.Fatalf("update not applied: %q", updated.Title)
	}
}

func TestSolutionSearchScansTitleDescriptionAreas(t *testing.T) {
	store := newEmptyStore(t)
	ctx := context.Background()
	vendor := uuid.New()

	seedRows := []types.Solution{
		{VendorID: vendor, Title: "Quadcopter ISR platform", Description: "aerial imaging"},
		{VendorID: vendor, Title: "Mesh radio", Description: "resilient comms for contested logistics"},
		{VendorID: vendor, Title: "Power cell", Description: "energy", CapabilityAreas: datatypes.NewJSONSlice([]string{"Counter-UAS"})},
	}
	for i := range seedRows {
		if _, err := store.Solutions.Create(ctx, &seedRows[i]); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	cases := []struct {
		name  string
		query string
		want  int
	}{
		{name: "title_match", query: "quadcopter", want: 1},
		{name: "description_match", query: "LOGISTICS", want: 1},
		{name: "capability_area_match", query: "counter-uas", want: 1},
		{name: "no_match", query: "submarine", want: 0},
		{name: "blank_query", query: "   ", want: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := store.Solutions.Search(ctx, tc.query)
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			if len(got) != tc.want {
				t.Fatalf("Search(%q) returned %d rows, want %d", tc.query, len(got), tc.want)
			}
		})
	}
}

func TestUserGetByEmailIsCaseInsensitive(t *testing.T) {
	store := newEmptyStore(t)
	ctx := context.Background()

	if _, err := store.Users.Create(ctx, &types.User{Email: "Vendor@Example.COM", Role: types.RoleVendor}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	user, err := store.Users.GetByEmail(ctx, "vendor@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if user.Email != "vendor@example.com" {
		t.Fatalf("email not normalized: %q", user.Email)
	}
	if _, err := store.Users.GetByEmail(ctx, "missing@example.com"); !errors.Is(err, repos.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown email, got %v", err)
	}
}

func TestChatHistoryMostRecentFirstWithLimit(t *testing.T) {
	store := newEmptyStore(t)
	ctx := context.Background()
	userID := uuid.New()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		_, err := store.ChatMessages.Create(ctx, &types.ChatMessage{
			UserID:    userID,
			Message:   "question",
			Response:  "answer",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	history, err := store.ChatMessages.History(ctx, userID, 3)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(history))
	}
	for i := 1; i < len(history); i++ {
		if history[i].CreatedAt.After(history[i-1].CreatedAt) {
			t.Fatal("history not ordered most recent first")
		}
	}
}

func TestSeededStoreHasBrowsableCatalog(t *testing.T) {
	store, err := NewStore(nil, true)
	if err != nil {
		t.Fatalf("NewStore seeded: %v", err)
	}
	ctx := context.Background()

	challenges, err := store.Challenges.List(ctx, repos.ChallengeFilter{})
	if err != nil {
		t.Fatalf("List challenges: %v", err)
	}
	if len(challenges) == 0 {
		t.Fatal("seeded store has no challenges")
	}
	solutions, err := store.Solutions.List(ctx, repos.SolutionFilter{})
	if err != nil {
		t.Fatalf("List solutions: %v", err)
	}
	if len(solutions) == 0 {
		t.Fatal("seeded store has no solutions")
	}
	for _, s := range solutions {
		if _, err := store.Users.GetByID(ctx, s.VendorID); err != nil {
			t.Fatalf("seeded solution %q references missing vendor: %v", s.Title, err)
		}
	}
}
