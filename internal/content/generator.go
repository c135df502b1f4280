package content

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"linkedin_poster/internal/config"
	"linkedin_poster/internal/logger"
	"linkedin_poster/internal/models"
)

const promptTemplate = `Create a professional LinkedIn post about this trending Indian business topic:

Trend: "%s"
Search Volume: %s

Requirements:
1. Write an engaging caption (3-4 lines, include relevant emojis)
2. Add 5 relevant hashtags for Indian business audience
3. Include a thought-provoking question to encourage engagement
4. Keep tone professional but conversational
5. Make it suitable for LinkedIn professionals in India

Format your response as valid JSON:
{
    "caption": "Your engaging caption here...",
    "hashtags": ["#BusinessIndia", "#Startup", "#Economy", "#Finance", "#DigitalIndia"],
    "question": "Your engaging question here?",
    "source_mention": "Based on trending searches"
}`

// fallbackHashtags используются в запасном шаблоне поста.
var fallbackHashtags = []string{
	"#BusinessIndia", "#IndianEconomy", "#MarketTrends", "#StartupIndia", "#DigitalGrowth",
}

// Generator превращает один тренд в текст поста через сервис генерации.
type Generator struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

func NewGenerator(cfg *config.Config) *Generator {
	return &Generator{
		client:  &http.Client{Timeout: cfg.HTTPTimeout},
		baseURL: strings.TrimRight(cfg.GeminiURL, "/"),
		apiKey:  cfg.GeminiAPIKey,
		model:   cfg.GeminiModel,
	}
}

// Generate всегда возвращает готовый контент: при любой ошибке вызова
// или непригодном ответе отдаётся детерминированный запасной шаблон
// для этого тренда.
func (g *Generator) Generate(ctx context.Context, trend models.Trend) models.GeneratedContent {
	log := logger.WithStage("content").WithField("trend", trend.Title)

	text, err := g.complete(ctx, fmt.Sprintf(promptTemplate, trend.Title, trend.Traffic))
	if err != nil {
		log.Errorf("Content generation failed: %v", err)
		return fallbackContent(trend)
	}

	parts, err := parsePost(text)
	if err != nil {
		log.Warnf("Unusable generation response: %v", err)
		return fallbackContent(trend)
	}

	fullPost := fmt.Sprintf("%s\n\n%s\n\n%s\n\n%s",
		parts.Caption, parts.Question, strings.Join(parts.Hashtags, " "), parts.SourceMention)

	return models.GeneratedContent{
		FullPost:   fullPost,
		TrendTitle: trend.Title,
		Hashtags:   parts.Hashtags,
	}
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (g *Generator) complete(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var parsed geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("empty completion")
	}
	return parsed.Candidates[0].Content.Parts[0].Text, nil
}

// postParts — JSON-контракт, который модель должна вернуть.
type postParts struct {
	Caption       string   `json:"caption"`
	Hashtags      []string `json:"hashtags"`
	Question      string   `json:"question"`
	SourceMention string   `json:"source_mention"`
}

func parsePost(text string) (*postParts, error) {
	var parts postParts
	if err := json.Unmarshal([]byte(stripFences(text)), &parts); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if parts.Caption == "" {
		return nil, errors.New("missing caption")
	}
	if parts.Question == "" {
		return nil, errors.New("missing question")
	}
	if len(parts.Hashtags) == 0 {
		return nil, errors.New("missing hashtags")
	}
	return &parts, nil
}

// stripFences убирает markdown-ограждение вокруг JSON, если модель
// обернула ответ в ```json ... ``` или просто ``` ... ```.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if idx := strings.Index(text, "```json"); idx >= 0 {
		text = text[idx+len("```json"):]
		if end := strings.Index(text, "```"); end >= 0 {
			text = text[:end]
		}
		return strings.TrimSpace(text)
	}
	if strings.Contains(text, "```") {
		segments := strings.SplitN(text, "```", 3)
		if len(segments) >= 2 {
			return strings.TrimSpace(segments[1])
		}
	}
	return text
}

func fallbackContent(trend models.Trend) models.GeneratedContent {
	fullPost := fmt.Sprintf(
		"🚀 Trending in Indian Business: %s\n\nWhat's your take on this development? Share your thoughts below! 👇\n\n%s\n\nBased on trending searches",
		trend.Title, strings.Join(fallbackHashtags, " "))

	return models.GeneratedContent{
		FullPost:   fullPost,
		TrendTitle: trend.Title,
		Hashtags:   fallbackHashtags,
		Fallback:   true,
	}
}
