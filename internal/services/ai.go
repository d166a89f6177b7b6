package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"

	"github.com/gtead/marketplace-backend/internal/logger"
	"github.com/gtead/marketplace-backend/internal/repos"
	"github.com/gtead/marketplace-backend/internal/types"
)

const (
	chatFallback = "I apologize, but I'm having trouble connecting to my knowledge base right now. Please try again in a moment, or browse the marketplace directly."

	tipsFallback = "Focus on clearly articulating the operational problem your solution addresses, provide evidence of technology maturity, and align your submission with the challenge's evaluation criteria."

	// Capability search only sends a bounded slice of the catalog.
	capabilitySearchLimit = 20
)

// SemanticMatchResult is one entry of the /api/match response.
type SemanticMatchResult struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Kind        string    `json:"kind"`
	Score       float64   `json:"score"`
	Explanation string    `json:"explanation"`
}

// CapabilityMatch couples a model-scored solution with its authoritative
// record and reviews. Catalog fields always come from the store, never
// from the model.
type CapabilityMatch struct {
	ID              uuid.UUID       `json:"id"`
	VendorID        uuid.UUID       `json:"vendorId"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	TRL             int             `json:"trl"`
	NATOCompatible  bool            `json:"natoCompatible"`
	SecurityCleared bool            `json:"securityCleared"`
	CapabilityAreas []string        `json:"capabilityAreas"`
	MatchPercentage int             `json:"matchPercentage"`
	Relevance       string          `json:"relevance"`
	Reviews         []*types.Review `json:"reviews"`
}

// FeedbackAnalysis summarizes a solution's review history.
type FeedbackAnalysis struct {
	Summary         string   `json:"summary"`
	Trends          []string `json:"trends"`
	Recommendations []string `json:"recommendations"`
}

type AIService interface {
	// Chat answers a marketplace question with a role-tailored prompt and
	// persists the exchange. It never fails the request on upstream
	// errors; the response degrades instead.
	Chat(ctx context.Context, user *types.User, message string, chatContext map[string]any) (*types.ChatMessage, error)
	Match(ctx context.Context, query string) ([]SemanticMatchResult, error)
	CapabilitySearch(ctx context.Context, requirement string) ([]CapabilityMatch, error)
	SubmissionTips(ctx context.Context, challengeType string, user *types.User) (string, error)
	AnalyzeFeedback(ctx context.Context, solutionID uuid.UUID) (*FeedbackAnalysis, error)
}

type aiService struct {
	log    *logger.Logger
	client AIClient
	store  *repos.Store
}

// NewAIService wires the AI features. A nil client puts every operation
// in degraded mode.
func NewAIService(log *logger.Logger, client AIClient, store *repos.Store) AIService {
	return &aiService{
		log:    log.With("service", "AIService"),
		client: client,
		store:  store,
	}
}

func chatSystemPrompt(role string) string {
	base := "You are an assistant for a government technology marketplace connecting defense innovators with military buyers. Keep answers under 500 tokens and grounded in the marketplace's catalog of challenges and vendor solutions."
	if types.GovernmentRole(role) || role == types.RoleAdmin {
		return base + " The user is a government evaluator. Help them assess vendor solutions, understand technology readiness levels, and navigate FAR-based and Other Transaction procurement pathways including the Tactical Funding Increase and similar transition mechanisms."
	}
	return base + " The user is a technology vendor. Help them find relevant challenges, strengthen their submissions, and understand what government evaluators look for."
}

func (ai *aiService) Chat(ctx context.Context, user *types.User, message string, chatContext map[string]any) (*types.ChatMessage, error) {
	response := chatFallback
	if ai.client != nil {
		prompt := message
		if len(chatContext) > 0 {
			if extra, err := json.Marshal(chatContext); err == nil {
				prompt = message + "\n\nContext: " + string(extra)
			}
		}
		answer, err := ai.client.Complete(ctx, chatSystemPrompt(user.Role), prompt)
		if err != nil {
			ai.log.Warn("Chat completion failed, serving fallback", "user_id", user.ID, "error", err)
		} else {
			response = answer
		}
	}

	record := &types.ChatMessage{
		UserID:   user.ID,
		Message:  message,
		Response: response,
	}
	if chatContext != nil {
		record.Context = datatypes.JSONMap(chatContext)
	}
	saved, err := ai.store.ChatMessages.Create(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("persist chat message: %w", err)
	}
	return saved, nil
}

type candidateSummary struct {
	ID          string   `json:"id"`
	Kind        string   `json:"kind"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Areas       []string `json:"areas,omitempty"`
	TRL         int      `json:"trl,omitempty"`
}

type matchModelResponse struct {
	Matches []struct {
		ID          string  `json:"id"`
		Title       string  `json:"title"`
		Score       float64 `json:"score"`
		Explanation string  `json:"explanation"`
	} `json:"matches"`
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func (ai *aiService) Match(ctx context.Context, query string) ([]SemanticMatchResult, error) {
	if ai.client == nil {
		return []SemanticMatchResult{}, nil
	}

	solutions, err := ai.store.Solutions.List(ctx, repos.SolutionFilter{})
	if err != nil {
		return nil, fmt.Errorf("load solutions: %w", err)
	}
	challenges, err := ai.store.Challenges.List(ctx, repos.ChallengeFilter{})
	if err != nil {
		return nil, fmt.Errorf("load challenges: %w", err)
	}

	kinds := map[string]string{}
	candidates := make([]candidateSummary, 0, len(solutions)+len(challenges))
	for _, s := range solutions {
		kinds[s.ID.String()] = "solution"
		candidates = append(candidates, candidateSummary{
			ID:          s.ID.String(),
			Kind:        "solution",
			Title:       s.Title,
			Description: truncate(s.Description, 300),
			Areas:       s.CapabilityAreas,
			TRL:         s.TRL,
		})
	}
	for _, c := range challenges {
		kinds[c.ID.String()] = "challenge"
		candidates = append(candidates, candidateSummary{
			ID:          c.ID.String(),
			Kind:        "challenge",
			Title:       c.Title,
			Description: truncate(c.Description, 300),
			Areas:       c.FocusAreas,
		})
	}
	if len(candidates) == 0 {
		return []SemanticMatchResult{}, nil
	}

	payload, err := json.Marshal(candidates)
	if err != nil {
		return nil, fmt.Errorf("encode candidates: %w", err)
	}
	system := "You match a free-text requirement against marketplace entries. Respond with JSON of the shape {\"matches\":[{\"id\",\"title\",\"score\",\"explanation\"}]} where score is between 0 and 1. Only use ids from the provided candidates."
	user := fmt.Sprintf("Requirement: %s\n\nCandidates:\n%s", query, payload)

	var decoded matchModelResponse
	if err := ai.client.CompleteJSON(ctx, system, user, &decoded); err != nil {
		ai.log.Warn("Semantic match failed, serving empty result", "error", err)
		return []SemanticMatchResult{}, nil
	}

	results := make([]SemanticMatchResult, 0, len(decoded.Matches))
	for _, m := range decoded.Matches {
		id, err := uuid.Parse(m.ID)
		if err != nil {
			continue
		}
		kind, ok := kinds[id.String()]
		if !ok {
			continue
		}
		score := m.Score
		if score < 0 {
			score = 0
		}
		if score > 1 {
			score = 1
		}
		results = append(results, SemanticMatchResult{
			ID:          id,
			Title:       m.Title,
			Kind:        kind,
			Score:       score,
			Explanation: m.Explanation,
		})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	return results, nil
}

type capabilityModelResponse struct {
	Matches []struct {
		ID              string `json:"id"`
		MatchPercentage int    `json:"matchPercentage"`
		Relevance       string `json:"relevance"`
	} `json:"matches"`
}

func (ai *aiService) CapabilitySearch(ctx context.Context, requirement string) ([]CapabilityMatch, error) {
	if ai.client == nil {
		return []CapabilityMatch{}, nil
	}

	solutions, err := ai.store.Solutions.List(ctx, repos.SolutionFilter{})
	if err != nil {
		return nil, fmt.Errorf("load solutions: %w", err)
	}
	if len(solutions) > capabilitySearchLimit {
		solutions = solutions[:capabilitySearchLimit]
	}
	if len(solutions) == 0 {
		return []CapabilityMatch{}, nil
	}
	byID := make(map[uuid.UUID]*types.Solution, len(solutions))

	candidates := make([]candidateSummary, 0, len(solutions))
	for _, s := range solutions {
		byID[s.ID] = s
		candidates = append(candidates, candidateSummary{
			ID:          s.ID.String(),
			Title:       s.Title,
			Description: truncate(s.Description, 300),
			Areas:       s.CapabilityAreas,
			TRL:         s.TRL,
		})
	}
	payload, err := json.Marshal(candidates)
	if err != nil {
		return nil, fmt.Errorf("encode candidates: %w", err)
	}

	system := "You help a military commander find vendor solutions for a capability need. Be generous: include partial and adjacent matches. Respond with JSON of the shape {\"matches\":[{\"id\",\"matchPercentage\",\"relevance\"}]} where matchPercentage is 0-100 and relevance is one sentence. Only use ids from the provided solutions."
	user := fmt.Sprintf("Capability need: %s\n\nSolutions:\n%s", requirement, payload)

	var decoded capabilityModelResponse
	if err := ai.client.CompleteJSON(ctx, system, user, &decoded); err != nil {
		ai.log.Warn("Capability search failed, serving empty result", "error", err)
		return []CapabilityMatch{}, nil
	}

	matches := make([]CapabilityMatch, 0, len(decoded.Matches))
	for _, m := range decoded.Matches {
		id, err := uuid.Parse(m.ID)
		if err != nil {
			continue
		}
		sol, ok := byID[id]
		if !ok {
			continue
		}
		pct := m.MatchPercentage
		if pct < 0 {
			pct = 0
		}
		if pct > 100 {
			pct = 100
		}
		matches = append(matches, CapabilityMatch{
			ID:              sol.ID,
			VendorID:        sol.VendorID,
			Title:           sol.Title,
			Description:     sol.Description,
			TRL:             sol.TRL,
			NATOCompatible:  sol.NATOCompatible,
			SecurityCleared: sol.SecurityCleared,
			CapabilityAreas: sol.CapabilityAreas,
			MatchPercentage: pct,
			Relevance:       m.Relevance,
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := range matches {
		g.Go(func() error {
			reviews, err := ai.store.Reviews.ListBySolution(gctx, matches[i].ID)
			if err != nil {
				return err
			}
			matches[i].Reviews = reviews
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("attach reviews: %w", err)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].MatchPercentage > matches[j].MatchPercentage
	})
	return matches, nil
}

func (ai *aiService) SubmissionTips(ctx context.Context, challengeType string, user *types.User) (string, error) {
	if ai.client == nil {
		return tipsFallback, nil
	}
	var profile strings.Builder
	fmt.Fprintf(&profile, "Organization: %s.", user.Organization)
	if user.BusinessSize != "" {
		fmt.Fprintf(&profile, " Business size: %s.", user.BusinessSize)
	}
	if user.SecurityClearance != "" {
		fmt.Fprintf(&profile, " Clearance: %s.", user.SecurityClearance)
	}
	system := "You advise defense technology vendors on challenge submissions. Give concise, concrete tips as short paragraphs, no markdown."
	prompt := fmt.Sprintf("Challenge type: %s. Vendor profile: %s What should this vendor emphasize in their submission?", challengeType, profile.String())
	tips, err := ai.client.Complete(ctx, system, prompt)
	if err != nil {
		ai.log.Warn("Submission tips failed, serving fallback", "error", err)
		return tipsFallback, nil
	}
	return tips, nil
}

func (ai *aiService) AnalyzeFeedback(ctx context.Context, solutionID uuid.UUID) (*FeedbackAnalysis, error) {
	degraded := &FeedbackAnalysis{
		Summary:         "Feedback analysis is temporarily unavailable.",
		Trends:          []string{},
		Recommendations: []string{},
	}
	reviews, err := ai.store.Reviews.ListBySolution(ctx, solutionID)
	if err != nil {
		return nil, fmt.Errorf("load reviews: %w", err)
	}
	if len(reviews) == 0 {
		return &FeedbackAnalysis{
			Summary:         "No evaluator feedback has been recorded for this solution yet.",
			Trends:          []string{},
			Recommendations: []string{},
		}, nil
	}
	if ai.client == nil {
		return degraded, nil
	}

	type reviewSummary struct {
		Rating           int    `json:"rating"`
		Readiness        int    `json:"readiness"`
		Interoperability int    `json:"interoperability"`
		Support          int    `json:"support"`
		FieldTested      bool   `json:"fieldTested"`
		Comment          string `json:"comment,omitempty"`
	}
	summaries := make([]reviewSummary, 0, len(reviews))
	for _, r := range reviews {
		summaries = append(summaries, reviewSummary{
			Rating:           r.Rating,
			Readiness:        r.ReadinessScore,
			Interoperability: r.InteroperabilityScore,
			Support:          r.SupportScore,
			FieldTested:      r.FieldTested,
			Comment:          truncate(r.Description, 500),
		})
	}
	payload, err := json.Marshal(summaries)
	if err != nil {
		return nil, fmt.Errorf("encode reviews: %w", err)
	}

	system := "You analyze evaluator feedback on a defense technology solution. Respond with JSON of the shape {\"summary\",\"trends\":[],\"recommendations\":[]}."
	var analysis FeedbackAnalysis
	if err := ai.client.CompleteJSON(ctx, system, "Reviews:\n"+string(payload), &analysis); err != nil {
		ai.log.Warn("Feedback analysis failed, serving fallback", "solution_id", solutionID, "error", err)
		return degraded, nil
	}
	if analysis.Trends == nil {
		analysis.Trends = []string{}
	}
	if analysis.Recommendations == nil {
		analysis.Recommendations = []string{}
	}
	return &analysis, nil
}
