package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"pdf-intake/internal/domain"
	apperrors "pdf-intake/pkg/errors"

	openai "github.com/sashabaranov/go-openai"
)

// openAIMaxInputChars keeps prompts well inside the model context window.
const openAIMaxInputChars = 48000

// AlchemyKeywordService ranks keywords with the hosted TextGetRankedKeywords API
type AlchemyKeywordService struct {
	baseURL     string
	apiKey      string
	maxKeywords int
	httpClient  *http.Client
	logger      domain.Logger
}

type alchemyKeywordsResponse struct {
	Status     string `json:"status"`
	StatusInfo string `json:"statusInfo"`
	Keywords   []struct {
		Text string `json:"text"`
	} `json:"keywords"`
}

// NewAlchemyKeywordService creates a keyword client.
// baseURL is the API root, e.g. http://gateway-a.watsonplatform.net/calls/
func NewAlchemyKeywordService(
	baseURL string,
	apiKey string,
	maxKeywords int,
	timeout time.Duration,
	logger domain.Logger,
) *AlchemyKeywordService {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &AlchemyKeywordService{
		baseURL:     baseURL,
		apiKey:      apiKey,
		maxKeywords: maxKeywords,
		httpClient:  &http.Client{Timeout: timeout},
		logger:      logger,
	}
}

// ExtractKeywords posts the text and returns keyword texts in rank order
func (s *AlchemyKeywordService) ExtractKeywords(ctx context.Context, text string) ([]string, error) {
	form := url.Values{}
	form.Set("apikey", s.apiKey)
	form.Set("text", text)
	form.Set("outputMode", "json")

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"text/TextGetRankedKeywords",
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to build keyword request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewNetworkError("Keyword extraction service unavailable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamErrorBody))
		return nil, apperrors.NewUpstreamError(
			"Keyword extraction failed",
			strings.TrimSpace(string(detail)),
			fmt.Errorf("keyword API returned status %d", resp.StatusCode),
		)
	}

	var payload alchemyKeywordsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, apperrors.NewUpstreamError("Keyword extraction failed", "malformed response", err)
	}
	// The API reports failures with a 200 and status ERROR.
	if strings.EqualFold(payload.Status, "ERROR") {
		return nil, apperrors.NewUpstreamError("Keyword extraction failed", payload.StatusInfo, nil)
	}

	keywords := make([]string, 0, len(payload.Keywords))
	for _, k := range payload.Keywords {
		keywords = append(keywords, k.Text)
	}
	return NormalizeKeywords(keywords, s.maxKeywords), nil
}

// OpenAIKeywordService ranks keywords with a chat completion model
type OpenAIKeywordService struct {
	client      *openai.Client
	model       string
	maxKeywords int
	logger      domain.Logger
}

// NewOpenAIKeywordService creates a keyword extractor on the OpenAI API.
// baseURL may point at any compatible endpoint; empty keeps the default.
func NewOpenAIKeywordService(
	apiKey string,
	baseURL string,
	model string,
	maxKeywords int,
	timeout time.Duration,
	logger domain.Logger,
) *OpenAIKeywordService {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIKeywordService{
		client:      openai.NewClientWithConfig(cfg),
		model:       model,
		maxKeywords: maxKeywords,
		logger:      logger,
	}
}

func (s *OpenAIKeywordService) ExtractKeywords(ctx context.Context, text string) ([]string, error) {
	if len(text) > openAIMaxInputChars {
		cut := openAIMaxInputChars
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}

	limit := s.maxKeywords
	if limit <= 0 {
		limit = 50
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: fmt.Sprintf(
					"Extract the most relevant keywords and key phrases from the document the user sends. "+
						"Answer with a JSON object of the form {\"keywords\": [\"...\"]}, ordered from most to least relevant, "+
						"with at most %d entries.", limit),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: text,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0,
	})
	if err != nil {
		return nil, apperrors.NewUpstreamError("Keyword extraction failed", "", err)
	}
	if len(resp.Choices) == 0 {
		return nil, apperrors.NewUpstreamError("Keyword extraction failed", "empty response", nil)
	}

	var payload struct {
		Keywords []string `json:"keywords"`
	}
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &payload); err != nil {
		return nil, apperrors.NewUpstreamError("Keyword extraction failed", "malformed response", err)
	}

	s.logger.Debug("Keywords extracted", "model", s.model, "count", len(payload.Keywords))
	return NormalizeKeywords(payload.Keywords, s.maxKeywords), nil
}

// NormalizeKeywords trims entries, drops empty and case-insensitive duplicate
// ones (the first occurrence wins) and keeps at most limit entries; limit <= 0 keeps all.
func NormalizeKeywords(keywords []string, limit int) []string {
	out := make([]string, 0, len(keywords))
	seen := make(map[string]struct{}, len(keywords))
	for _, k := range keywords {
		k = strings.Join(strings.Fields(k), " ")
		if k == "" {
			continue
		}
		key := strings.ToLower(k)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, k)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
