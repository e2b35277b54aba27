package narrative

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"time"

	"dietflow/internal/config"
	"dietflow/internal/plan"
	"dietflow/internal/tracking"
)

// Facts is the structured input handed to the generator. The core
// pipeline emits these after its commit; the generator never sees or
// touches engine state.
type Facts struct {
	UserName   string
	Goal       plan.Goal
	Snapshot   *tracking.ProgressSnapshot
	Adjustment *tracking.CalorieAdjustment
	// SessionID, when set, threads the model call through the plan's
	// stored conversation so week N's text can reference week N-1.
	SessionID string
}

// Generator turns check-in facts into user-facing prose via an
// OpenAI-compatible chat endpoint. Every call is bounded by the
// configured timeout and degrades to deterministic templated text, so
// the caller is never blocked on the model.
type Generator struct {
	modelURL  string
	modelName string
	timeout   time.Duration
	client    *http.Client
	sessions  *SessionStore
}

func NewGenerator(cfg config.NarrativeConfig) *Generator {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	return &Generator{
		modelURL:  cfg.ModelURL,
		modelName: cfg.ModelName,
		timeout:   timeout,
		client:    &http.Client{Timeout: timeout},
	}
}

// Generate produces the narrative for one check-in. It never fails:
// any model error, timeout or unparseable reply yields the fallback.
func (g *Generator) Generate(ctx context.Context, facts *Facts) *Result {
	if g.modelURL == "" {
		return Fallback(facts)
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	res, err := g.callLLM(ctx, facts)
	if err != nil {
		log.Printf("[Narrative] falling back to templated text: %v", err)
		return Fallback(facts)
	}
	g.recordExchange(ctx, facts, res)
	return res
}

// WithSessions enables conversation continuity across check-ins via a
// redis-backed session store.
func (g *Generator) WithSessions(store *SessionStore) *Generator {
	g.sessions = store
	return g
}

func (g *Generator) recordExchange(ctx context.Context, facts *Facts, res *Result) {
	if g.sessions == nil || facts.SessionID == "" {
		return
	}
	reply, err := json.Marshal(res)
	if err != nil {
		return
	}
	for _, msg := range []Message{
		{Role: "user", Content: factsPrompt(facts)},
		{Role: "assistant", Content: string(reply)},
	} {
		if err := g.sessions.Append(ctx, facts.SessionID, msg); err != nil {
			log.Printf("[Narrative] session append failed: %v", err)
			return
		}
	}
}

func (g *Generator) callLLM(ctx context.Context, facts *Facts) (*Result, error) {
	messages := []map[string]string{
		{
			"role": "system",
			"content": "You are a supportive dietitian assistant. Given weekly progress facts, " +
				"reply with JSON only: {\"assessment_text\": string, \"recommendations\": [string], \"motivation_text\": string}.",
		},
	}
	if g.sessions != nil && facts.SessionID != "" {
		history, err := g.sessions.History(ctx, facts.SessionID)
		if err != nil {
			log.Printf("[Narrative] session history unavailable: %v", err)
		}
		for _, m := range history {
			messages = append(messages, map[string]string{"role": m.Role, "content": m.Content})
		}
	}
	messages = append(messages, map[string]string{
		"role":    "user",
		"content": factsPrompt(facts),
	})

	reqBody := map[string]interface{}{
		"model":       g.modelName,
		"messages":    messages,
		"stream":      false,
		"temperature": 0.7,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", g.modelURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("LLM returned status %d: %s", resp.StatusCode, string(body))
	}

	var raw struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(raw.Choices) == 0 {
		return nil, fmt.Errorf("no choices returned")
	}

	var parsed struct {
		Assessment      string   `json:"assessment_text"`
		Recommendations []string `json:"recommendations"`
		Motivation      string   `json:"motivation_text"`
	}
	if err := json.Unmarshal([]byte(raw.Choices[0].Message.Content), &parsed); err != nil {
		return nil, fmt.Errorf("model reply is not the expected JSON: %w", err)
	}
	if parsed.Assessment == "" {
		return nil, fmt.Errorf("model reply missing assessment_text")
	}
	return &Result{
		SchemaVersion:   SchemaVersion,
		Assessment:      parsed.Assessment,
		Recommendations: parsed.Recommendations,
		Motivation:      parsed.Motivation,
	}, nil
}

func factsPrompt(facts *Facts) string {
	s := facts.Snapshot
	msg := fmt.Sprintf(
		"User: %s. Goal: %s. Week %d. Weight change this week: %.2f kg. Total change: %.2f kg. "+
			"Average: %.2f kg/week. Variance from expected: %.2f kg. Plateau: %t. Off-track: %t.",
		facts.UserName, facts.Goal, s.WeekNumber, s.WeightChangeKg, s.TotalChangeKg,
		s.AvgWeeklyChangeKg, s.VarianceKg, s.IsPlateau, s.IsOffTrack)
	if adj := facts.Adjustment; adj != nil {
		msg += fmt.Sprintf(" Calorie target adjusted by %+d kcal to %d (reason: %s).",
			adj.DeltaKcal, adj.NewCalories, adj.Reason)
	}
	return msg
}

// Fallback builds deterministic templated text from the same facts.
// Used whenever the model is unreachable, slow or off-script.
func Fallback(facts *Facts) *Result {
	s := facts.Snapshot
	res := &Result{SchemaVersion: SchemaVersion, Fallback: true}

	switch {
	case s.IsPlateau:
		res.Assessment = fmt.Sprintf("Week %d: your weight has stayed nearly flat for a couple of weeks (%.2f kg this week).", s.WeekNumber, s.WeightChangeKg)
		res.Recommendations = append(res.Recommendations, "A plateau is normal; small tweaks to portions or activity usually restart progress.")
	case s.IsOffTrack:
		res.Assessment = fmt.Sprintf("Week %d: you are %.2f kg away from your expected trajectory.", s.WeekNumber, math.Abs(s.VarianceKg))
		res.Recommendations = append(res.Recommendations, "Review this week's adherence and look for one habit to tighten up.")
	default:
		res.Assessment = fmt.Sprintf("Week %d: weight changed by %.2f kg, %.2f kg total since the start.", s.WeekNumber, s.WeightChangeKg, s.TotalChangeKg)
		res.Recommendations = append(res.Recommendations, "Keep doing what you're doing and check in again next week.")
	}
	if adj := facts.Adjustment; adj != nil {
		res.Recommendations = append(res.Recommendations, fmt.Sprintf(
			"Your daily calorie target moved by %+d kcal to %d.", adj.DeltaKcal, adj.NewCalories))
	}
	res.Motivation = "Consistency beats perfection; logging this check-in is itself progress."
	return res
}
