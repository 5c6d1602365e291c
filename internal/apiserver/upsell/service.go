// Package upsell produces module purchase recommendations for a user,
// preferring an AI-generated ranking and degrading to a deterministic
// catalog slice when the AI call fails.
package upsell

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/recommerce-labs/console/internal/apiserver/database"
	"github.com/recommerce-labs/console/pkg/openai"

	"go.uber.org/zap"
)

const (
	activityWindow      = 30 * 24 * time.Hour
	fallbackLimit       = 3
	fallbackConfidence  = 75
	defaultCallDeadline = 30 * time.Second
)

// Recommendation is one resolved upsell suggestion. Module always points
// at a real catalog row; suggestions the AI invents are dropped.
type Recommendation struct {
	Module           *database.Module `json:"module"`
	Reasoning        []string         `json:"reasoning"`
	Confidence       int              `json:"confidence"`
	PotentialRevenue float64          `json:"potentialRevenue"`
	SellingPoints    []string         `json:"sellingPoints"`
	Priority         int              `json:"priority"`
}

// Result carries the recommendation list and whether it came from the
// fallback path instead of the AI.
type Result struct {
	Recommendations []Recommendation `json:"recommendations"`
	Fallback        bool             `json:"fallback"`
}

// Service builds recommendations from the user's owned modules, billing
// history and recent activity.
type Service struct {
	db       database.Database
	ai       openai.ChatCompleter
	logger   *zap.Logger
	deadline time.Duration
}

// NewService creates the recommendation service. deadline bounds each AI
// call; zero means the default.
func NewService(db database.Database, ai openai.ChatCompleter, logger *zap.Logger, deadline time.Duration) *Service {
	if deadline <= 0 {
		deadline = defaultCallDeadline
	}
	return &Service{
		db:       db,
		ai:       ai,
		logger:   logger.Named("upsell"),
		deadline: deadline,
	}
}

// Recommend returns upsell suggestions for the user. The AI path and the
// fallback path both only ever suggest active catalog modules the user
// does not already own.
func (s *Service) Recommend(ctx context.Context, user *database.User) (*Result, error) {
	catalog, err := s.db.ListModules(ctx, "", true)
	if err != nil {
		return nil, fmt.Errorf("failed to load module catalog: %w", err)
	}

	assignments, err := s.db.ListAssignmentsForUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load assignments: %w", err)
	}
	subs, err := s.db.ListSubscriptions(ctx, []string{user.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to load subscriptions: %w", err)
	}
	activityCount, err := s.db.CountActivitiesSince(ctx, user.ID, time.Now().Add(-activityWindow))
	if err != nil {
		return nil, fmt.Errorf("failed to load activity: %w", err)
	}

	owned := ownedModuleIDs(assignments)

	recs, err := s.fromAI(ctx, user, catalog, assignments, subs, activityCount, owned)
	if err != nil {
		s.logger.Warn("AI recommendation failed, using fallback",
			zap.String("user_id", user.ID),
			zap.Error(err))
		return &Result{Recommendations: s.fallback(catalog, owned), Fallback: true}, nil
	}
	return &Result{Recommendations: recs}, nil
}

func (s *Service) fromAI(ctx context.Context, user *database.User, catalog []*database.Module, assignments []*database.ModuleAssignment, subs []*database.Subscription, activityCount int64, owned map[string]bool) ([]Recommendation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.deadline)
	defer cancel()

	prompt := buildPrompt(user, catalog, assignments, subs, activityCount)
	completion, err := s.ai.ChatCompletionJSON(ctx, openai.UserMessage(prompt))
	if err != nil {
		return nil, err
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("empty completion")
	}

	parsed, err := parseResponse(completion.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	recs := resolveRecommendations(parsed, catalog, owned, s.logger)
	if len(recs) == 0 {
		return nil, fmt.Errorf("no resolvable recommendations")
	}
	return recs, nil
}

// fallback returns up to fallbackLimit unowned active modules in catalog
// order, each with a fixed confidence.
func (s *Service) fallback(catalog []*database.Module, owned map[string]bool) []Recommendation {
	recs := make([]Recommendation, 0, fallbackLimit)
	for _, m := range catalog {
		if owned[m.ID] {
			continue
		}
		recs = append(recs, Recommendation{
			Module:           m,
			Reasoning:        []string{fmt.Sprintf("%s is a popular addition for accounts like yours", m.DisplayName)},
			Confidence:       fallbackConfidence,
			PotentialRevenue: m.Price,
			SellingPoints:    m.FeatureList(),
			Priority:         len(recs) + 1,
		})
		if len(recs) == fallbackLimit {
			break
		}
	}
	return recs
}

func ownedModuleIDs(assignments []*database.ModuleAssignment) map[string]bool {
	owned := make(map[string]bool, len(assignments))
	for _, a := range assignments {
		if a.IsActive {
			owned[a.ModuleID] = true
		}
	}
	return owned
}

// wire format expected back from the model
type aiRecommendation struct {
	ModuleName       string   `json:"moduleName"`
	Reasoning        []string `json:"reasoning"`
	Confidence       int      `json:"confidence"`
	PotentialRevenue float64  `json:"potentialRevenue"`
	SellingPoints    []string `json:"sellingPoints"`
	Priority         int      `json:"priority"`
}

type aiResponse struct {
	Recommendations []aiRecommendation `json:"recommendations"`
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// normalizeModuleName lowercases and collapses whitespace runs to a
// single underscore, so "CRM Advanced" matches the catalog name
// "crm_advanced".
func normalizeModuleName(name string) string {
	return whitespaceRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "_")
}

// parseResponse decodes the model output, tolerating markdown code fences
// around the JSON body.
func parseResponse(content string) (*aiResponse, error) {
	body := strings.TrimSpace(content)
	if start := strings.Index(body, "{"); start >= 0 {
		if end := strings.LastIndex(body, "}"); end > start {
			body = body[start : end+1]
		}
	}
	var resp aiResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		return nil, fmt.Errorf("malformed recommendation payload: %w", err)
	}
	return &resp, nil
}

// resolveRecommendations matches each suggestion to a catalog module by
// normalized name or display name. Unresolvable and already-owned
// suggestions are dropped.
func resolveRecommendations(resp *aiResponse, catalog []*database.Module, owned map[string]bool, logger *zap.Logger) []Recommendation {
	byName := make(map[string]*database.Module, len(catalog)*2)
	for _, m := range catalog {
		byName[normalizeModuleName(m.Name)] = m
		byName[normalizeModuleName(m.DisplayName)] = m
	}

	recs := make([]Recommendation, 0, len(resp.Recommendations))
	for _, r := range resp.Recommendations {
		m, ok := byName[normalizeModuleName(r.ModuleName)]
		if !ok {
			logger.Debug("dropping unknown module suggestion", zap.String("module", r.ModuleName))
			continue
		}
		if owned[m.ID] {
			continue
		}
		revenue := r.PotentialRevenue
		if revenue == 0 {
			revenue = m.Price
		}
		recs = append(recs, Recommendation{
			Module:           m,
			Reasoning:        r.Reasoning,
			Confidence:       r.Confidence,
			PotentialRevenue: revenue,
			SellingPoints:    r.SellingPoints,
			Priority:         r.Priority,
		})
	}
	return recs
}

func buildPrompt(user *database.User, catalog []*database.Module, assignments []*database.ModuleAssignment, subs []*database.Subscription, activityCount int64) string {
	var b strings.Builder

	b.WriteString("You are a sales assistant for a SaaS reseller platform. ")
	b.WriteString("Recommend modules from the catalog below that this customer should buy next.\n\n")

	fmt.Fprintf(&b, "Customer profile:\n- Level: %s\n- Company: %s\n- Actions in the last 30 days: %d\n\n",
		user.Level, user.CompanyName, activityCount)

	b.WriteString("Currently owned modules:\n")
	if len(assignments) == 0 {
		b.WriteString("- none\n")
	}
	for _, a := range assignments {
		if a.Module != nil && a.IsActive {
			fmt.Fprintf(&b, "- %s (%s)\n", a.Module.Name, a.Module.Category)
		}
	}

	var monthly float64
	for _, sub := range subs {
		if sub.Status == database.SubscriptionActive {
			monthly += sub.TotalAmount
		}
	}
	fmt.Fprintf(&b, "\nCurrent monthly spend: %.2f USD\n\nCatalog:\n", monthly)
	for _, m := range catalog {
		fmt.Fprintf(&b, "- %s (%s, %.2f USD/month): %s\n", m.Name, m.Category, m.Price, m.Description)
	}

	b.WriteString(`
Respond with a single JSON object of this shape and nothing else:
{"recommendations":[{"moduleName":"<catalog name>","reasoning":["..."],"confidence":0-100,"potentialRevenue":0.0,"sellingPoints":["..."],"priority":1}]}
Only recommend modules from the catalog that the customer does not already own. Order by priority.`)

	return b.String()
}
