package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ascendhq/ascend-backend/internal/config"
	"github.com/google/uuid"
)

// NarrativeInput carries the computed snapshot fields the text generator
// narrates over. Habit names are used instead of ids so the prompt reads
// naturally.
type NarrativeInput struct {
	UserID           uuid.UUID
	WeekStart        time.Time
	CompletionPct    int
	CurrentStreak    int
	BestStreak       int
	BestMoment       string
	WorstMoment      string
	TopHabits        []string
	StrugglingHabits []string
}

// Narrative is the generated weekly summary text.
type Narrative struct {
	Summary  string   `json:"summary"`
	Insights []string `json:"insights"`
}

// NarrativeGenerator produces a weekly narrative. Implementations are
// best-effort collaborators: callers must treat any error as "no
// narrative", never as a pipeline failure.
type NarrativeGenerator interface {
	GenerateNarrative(input NarrativeInput) (*Narrative, error)
}

// --- OpenAI chat completion types ---

type openAIChatRequest struct {
	Model    string          `json:"model"`
	Messages []openAIMessage `json:"messages"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// OpenAINarrativeService generates weekly narratives through the OpenAI
// chat completions API with a bounded timeout.
type OpenAINarrativeService struct {
	apiKey string
	apiURL string
	model  string
	client *http.Client
}

func NewOpenAINarrativeService(cfg *config.Config) *OpenAINarrativeService {
	return &OpenAINarrativeService{
		apiKey: cfg.OpenAIAPIKey,
		apiURL: cfg.OpenAIAPIURL,
		model:  cfg.OpenAIModel,
		client: &http.Client{Timeout: cfg.AITimeout},
	}
}

func (s *OpenAINarrativeService) GenerateNarrative(input NarrativeInput) (*Narrative, error) {
	if s.apiKey == "" {
		return nil, errors.New("no API key configured")
	}

	reqBody := openAIChatRequest{
		Model: s.model,
		Messages: []openAIMessage{
			{Role: "system", Content: "You are a supportive habit coach. Given a user's weekly habit stats, respond with JSON only (no markdown, no code fences): {\"summary\": \"2-3 sentence encouraging recap of the week\", \"insights\": [\"up to 3 short observations\"]}. Be specific to the numbers given, never generic."},
			{Role: "user", Content: s.buildPrompt(input)},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequest("POST", s.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("narrative request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("narrative request returned status %d", resp.StatusCode)
	}

	var chatResp openAIChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return nil, errors.New("empty completion response")
	}

	content := strings.TrimSpace(chatResp.Choices[0].Message.Content)
	if strings.HasPrefix(content, "```") {
		lines := strings.Split(content, "\n")
		if len(lines) > 2 {
			content = strings.Join(lines[1:len(lines)-1], "\n")
		}
	}

	var narrative Narrative
	if err := json.Unmarshal([]byte(content), &narrative); err != nil {
		return nil, fmt.Errorf("failed to parse narrative JSON: %w", err)
	}
	if narrative.Summary == "" {
		return nil, errors.New("narrative missing summary")
	}
	return &narrative, nil
}

func (s *OpenAINarrativeService) buildPrompt(input NarrativeInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Week of %s. Completion: %d%%. Current streak: %d days, best ever: %d days.",
		FormatDate(input.WeekStart), input.CompletionPct, input.CurrentStreak, input.BestStreak)
	if input.BestMoment != "" {
		fmt.Fprintf(&b, " Strongest time of day: %s.", input.BestMoment)
	}
	if input.WorstMoment != "" && input.WorstMoment != input.BestMoment {
		fmt.Fprintf(&b, " Weakest time of day: %s.", input.WorstMoment)
	}
	if len(input.TopHabits) > 0 {
		fmt.Fprintf(&b, " Going well: %s.", strings.Join(input.TopHabits, ", "))
	}
	if len(input.StrugglingHabits) > 0 {
		fmt.Fprintf(&b, " Struggling: %s.", strings.Join(input.StrugglingHabits, ", "))
	}
	return b.String()
}
