package memstore

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"

	"github.com/gtead/marketplace-backend/internal/repos"
	"github.com/gtead/marketplace-backend/internal/types"
)

//go:embed fixtures.yaml
var fixturesYAML []byte

type fixtureUser struct {
	ID           string `yaml:"id"`
	Email        string `yaml:"email"`
	FirstName    string `yaml:"firstName"`
	LastName     string `yaml:"lastName"`
	Role         string `yaml:"role"`
	Organization string `yaml:"organization"`
	UEI          string `yaml:"uei"`
	CAGE         string `yaml:"cage"`
	NATOEligible bool   `yaml:"natoEligible"`
	BusinessSize string `yaml:"businessSize"`
}

type fixtureChallenge struct {
	ID                  string                        `yaml:"id"`
	Title               string                        `yaml:"title"`
	Description         string                        `yaml:"description"`
	Type                string                        `yaml:"type"`
	Status              string                        `yaml:"status"`
	PrizePool           string                        `yaml:"prizePool"`
	ApplicationDeadline string                        `yaml:"applicationDeadline"`
	FinalsDate          string                        `yaml:"finalsDate"`
	Phases              []types.ChallengePhase        `yaml:"phases"`
	Eligibility         types.EligibilityRequirements `yaml:"eligibility"`
	FocusAreas          []string                      `yaml:"focusAreas"`
}

type fixtureSolution struct {
	ID              string              `yaml:"id"`
	VendorID        string              `yaml:"vendorId"`
	Title           string              `yaml:"title"`
	Description     string              `yaml:"description"`
	TRL             int                 `yaml:"trl"`
	NATOCompatible  bool                `yaml:"natoCompatible"`
	SecurityCleared bool                `yaml:"securityCleared"`
	CapabilityAreas []string            `yaml:"capabilityAreas"`
	Status          string              `yaml:"status"`
	Procurements    []types.Procurement `yaml:"procurements"`
}

type fixtures struct {
	Users      []fixtureUser      `yaml:"users"`
	Challenges []fixtureChallenge `yaml:"challenges"`
	Solutions  []fixtureSolution  `yaml:"solutions"`
}

func seed(store *repos.Store) error {
	var fx fixtures
	if err := yaml.Unmarshal(fixturesYAML, &fx); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}
	ctx := context.Background()

	for _, fu := range fx.Users {
		id, err := uuid.Parse(fu.ID)
		if err != nil {
			return fmt.Errorf("fixture user %q: %w", fu.Email, err)
		}
		// Fixture accounts carry no password hash, so local login for
		// them always fails closed.
		_, err = store.Users.Create(ctx, &types.User{
			ID:           id,
			Email:        fu.Email,
			FirstName:    fu.FirstName,
			LastName:     fu.LastName,
			Role:         fu.Role,
			Organization: fu.Organization,
			UEI:          fu.UEI,
			CAGE:         fu.CAGE,
			NATOEligible: fu.NATOEligible,
			BusinessSize: fu.BusinessSize,
		})
		if err != nil {
			return err
		}
	}

	for _, fc := range fx.Challenges {
		id, err := uuid.Parse(fc.ID)
		if err != nil {
			return fmt.Errorf("fixture challenge %q: %w", fc.Title, err)
		}
		ch := &types.Challenge{
			ID:                      id,
			Title:                   fc.Title,
			Description:             fc.Description,
			Type:                    fc.Type,
			Status:                  fc.Status,
			Phases:                  datatypes.NewJSONSlice(fc.Phases),
			PrizePool:               fc.PrizePool,
			EligibilityRequirements: datatypes.NewJSONType(fc.Eligibility),
			FocusAreas:              datatypes.NewJSONSlice(fc.FocusAreas),
		}
		if fc.ApplicationDeadline != "" {
			t, err := time.Parse("2006-01-02", fc.ApplicationDeadline)
			if err != nil {
				return fmt.Errorf("fixture challenge %q deadline: %w", fc.Title, err)
			}
			ch.ApplicationDeadline = &t
		}
		if fc.FinalsDate != "" {
			t, err := time.Parse("2006-01-02", fc.FinalsDate)
			if err != nil {
				return fmt.Errorf("fixture challenge %q finals date: %w", fc.Title, err)
			}
			ch.FinalsDate = &t
		}
		if _, err := store.Challenges.Create(ctx, ch); err != nil {
			return err
		}
	}

	for _, fs := range fx.Solutions {
		id, err := uuid.Parse(fs.ID)
		if err != nil {
			return fmt.Errorf("fixture solution %q: %w", fs.Title, err)
		}
		vendorID, err := uuid.Parse(fs.VendorID)
		if err != nil {
			return fmt.Errorf("fixture solution %q vendor: %w", fs.Title, err)
		}
		_, err = store.Solutions.Create(ctx, &types.Solution{
			ID:              id,
			VendorID:        vendorID,
			Title:           fs.Title,
			Description:     fs.Description,
			TRL:             fs.TRL,
			NATOCompatible:  fs.NATOCompatible,
			SecurityCleared: fs.SecurityCleared,
			CapabilityAreas: datatypes.NewJSONSlice(fs.CapabilityAreas),
			Procurements:    datatypes.NewJSONSlice(fs.Procurements),
			Status:          fs.Status,
		})
		if err != nil {
			return err
		}
	}
	return nil
}
