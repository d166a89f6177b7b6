package repos

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/gtead/marketplace-backend/internal/logger"
	"github.com/gtead/marketplace-backend/internal/types"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&types.User{},
		&types.Challenge{},
		&types.Solution{},
		&types.Review{},
		&types.Application{},
		&types.ChatMessage{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestUserRepoEmailNormalization(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepo(db, logger.NewNop())
	ctx := context.Background()

	created, err := users.Create(ctx, &types.User{Email: "Mixed@Case.COM", Role: types.RoleVendor})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Email != "mixed@case.com" {
		t.Fatalf("email not lowercased on create: %q", created.Email)
	}
	if created.ID == uuid.Nil {
		t.Fatal("id not assigned")
	}

	got, err := users.GetByEmail(ctx, "MIXED@case.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if got.ID != created.ID {
		t.Fatal("lookup returned a different user")
	}

	if _, err := users.GetByEmail(ctx, "nobody@case.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserRepoUpdateRequiresExistingRow(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepo(db, logger.NewNop())
	ctx := context.Background()

	_, err := users.Update(ctx, &types.User{ID: uuid.New(), Email: "ghost@x.com"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	created, err := users.Create(ctx, &types.User{Email: "real@x.com", Role: types.RoleVendor})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	created.Organization = "Acme Defense"
	updated, err := users.Update(ctx, created)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Organization != "Acme Defense" {
		t.Fatalf("update not applied: %+v", updated)
	}
}

func TestChallengeRepoFiltersAndDefaults(t *testing.T) {
	db := newTestDB(t)
	challenges := NewChallengeRepo(db, logger.NewNop())
	ctx := context.Background()

	open, err := challenges.Create(ctx, &types.Challenge{
		Title: "xTech Open", Description: "d", Type: types.ChallengeTypeXTech,
		FocusAreas: datatypes.NewJSONSlice([]string{"Autonomy"}),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if open.Status != types.ChallengeStatusOpen {
		t.Fatalf("status default missing: %q", open.Status)
	}
	if _, err := challenges.Create(ctx, &types.Challenge{
		Title: "Closed Call", Description: "d", Type: types.ChallengeTypeOpenCall,
		Status: types.ChallengeStatusClosed,
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	cases := []struct {
		name   string
		filter ChallengeFilter
		want   int
	}{
		{name: "all", filter: ChallengeFilter{}, want: 2},
		{name: "by_status", filter: ChallengeFilter{Status: types.ChallengeStatusOpen}, want: 1},
		{name: "by_type", filter: ChallengeFilter{Type: types.ChallengeTypeOpenCall}, want: 1},
		{name: "conjunctive_no_match", filter: ChallengeFilter{Status: types.ChallengeStatusOpen, Type: types.ChallengeTypeOpenCall}, want: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := challenges.List(ctx, tc.filter)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(got) != tc.want {
				t.Fatalf("got %d rows, want %d", len(got), tc.want)
			}
		})
	}
}

func TestSolutionRepoJSONRoundTrip(t *testing.T) {
	db := newTestDB(t)
	solutions := NewSolutionRepo(db, logger.NewNop())
	users := NewUserRepo(db, logger.NewNop())
	ctx := context.Background()

	vendor, err := users.Create(ctx, &types.User{Email: "v@x.com", Role: types.RoleVendor})
	if err != nil {
		t.Fatalf("Create vendor: %v", err)
	}
	created, err := solutions.Create(ctx, &types.Solution{
		VendorID:        vendor.ID,
		Title:           "Trace ISR Quadcopter",
		Description:     "d",
		TRL:             8,
		CapabilityAreas: datatypes.NewJSONSlice([]string{"ISR", "Autonomy"}),
		Procurements: datatypes.NewJSONSlice([]types.Procurement{
			{Unit: "1st BCT", ContractValue: "$2.4M"},
		}),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Status != types.SolutionStatusSubmitted {
		t.Fatalf("status default missing: %q", created.Status)
	}

	got, err := solutions.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(got.CapabilityAreas) != 2 || got.CapabilityAreas[0] != "ISR" {
		t.Fatalf("capability areas did not survive: %+v", got.CapabilityAreas)
	}
	if len(got.Procurements) != 1 || got.Procurements[0].Unit != "1st BCT" {
		t.Fatalf("procurements did not survive: %+v", got.Procurements)
	}
}

func TestReviewRepoListBySolution(t *testing.T) {
	db := newTestDB(t)
	reviews := NewReviewRepo(db, logger.NewNop())
	ctx := context.Background()

	target := uuid.New()
	other := uuid.New()
	for i, solutionID := range []uuid.UUID{target, other, target} {
		if _, err := reviews.Create(ctx, &types.Review{
			SolutionID: solutionID,
			ReviewerID: uuid.New(),
			Rating:     i + 3,
		}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	got, err := reviews.ListBySolution(ctx, target)
	if err != nil {
		t.Fatalf("ListBySolution: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 reviews, got %d", len(got))
	}
}
