package stage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"media-analyzer/internal/model"
)

// maxPromptChars bounds how much transcript is sent to the model; beyond
// this the verdict quality no longer improves.
const maxPromptChars = 12000

const classifyInstructions = `You are a content auditor. Given a transcript of an online video, respond with ONLY a JSON object, no prose, with these fields:
- ai_generated_score: integer 0-100, likelihood the transcript is AI-generated
- confidence: integer 0-100, your confidence in the score
- ai_indicators: array of short strings naming observed AI-generation signals
- dangerous_content: boolean, whether the transcript contains harmful or dangerous material
- danger_severity: "low", "medium" or "high" when dangerous_content is true, otherwise omit
- danger_categories: array of short category strings when dangerous_content is true, otherwise omit
- explanation: one or two sentences justifying the verdict

Transcript:
`

// LLMClassifier calls an OpenAI-compatible chat-completions endpoint and
// parses the JSON verdict out of the reply.
type LLMClassifier struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

func NewLLMClassifier(httpClient *http.Client, baseURL, apiKey, modelName string) *LLMClassifier {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &LLMClassifier{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      modelName,
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *LLMClassifier) Classify(ctx context.Context, transcript string) (model.Analysis, error) {
	if len(transcript) > maxPromptChars {
		transcript = transcript[:maxPromptChars]
	}

	payload, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "user", Content: classifyInstructions + transcript},
		},
		Temperature: 0.1,
	})
	if err != nil {
		return model.Analysis{}, Fail(model.StageClassify, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return model.Analysis{}, Fail(model.StageClassify, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.Analysis{}, Failf(model.StageClassify, "call model: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return model.Analysis{}, Failf(model.StageClassify, "read model response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return model.Analysis{}, Failf(model.StageClassify, "model returned %d: %s", resp.StatusCode, firstLine(body))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return model.Analysis{}, Failf(model.StageClassify, "decode model response: %v", err)
	}
	if len(parsed.Choices) == 0 {
		return model.Analysis{}, Failf(model.StageClassify, "model returned no choices")
	}

	analysis, err := parseVerdict(parsed.Choices[0].Message.Content)
	if err != nil {
		return model.Analysis{}, Fail(model.StageClassify, err)
	}
	return analysis, nil
}

// parseVerdict extracts the JSON verdict, tolerating markdown code fences
// around it.
func parseVerdict(content string) (model.Analysis, error) {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	}

	var analysis model.Analysis
	if err := json.Unmarshal([]byte(content), &analysis); err != nil {
		return model.Analysis{}, fmt.Errorf("parse verdict: %w", err)
	}

	analysis.AIGeneratedScore = clampScore(analysis.AIGeneratedScore)
	analysis.Confidence = clampScore(analysis.Confidence)
	if !analysis.DangerousContent {
		analysis.DangerSeverity = ""
		analysis.DangerCategories = nil
	}
	return analysis, nil
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func firstLine(b []byte) string {
	s := strings.TrimSpace(string(b))
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 512 {
		s = s[:512]
	}
	return s
}
