package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tztgracious/Jobify/internal/apperr"
	"github.com/tztgracious/Jobify/internal/config"
	"github.com/tztgracious/Jobify/internal/logger"
	"github.com/tztgracious/Jobify/internal/models"
)

// GrammarChecker reports language issues in a document.
type GrammarChecker interface {
	Check(ctx context.Context, text string) (*models.GrammarReport, error)
}

// LanguageToolService calls the LanguageTool /v2/check endpoint.
type LanguageToolService struct {
	endpoint   string
	language   string
	httpClient *http.Client
}

var _ GrammarChecker = (*LanguageToolService)(nil)

func NewLanguageToolService(cfg config.GrammarConfig) *LanguageToolService {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	language := cfg.Language
	if language == "" {
		language = "en-US"
	}

	return &LanguageToolService{
		endpoint:   cfg.URL,
		language:   language,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Check implements GrammarChecker.
func (l *LanguageToolService) Check(ctx context.Context, text string) (*models.GrammarReport, error) {
	form := url.Values{}
	form.Set("text", text)
	form.Set("language", l.language)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, apperr.Service(err, "languagetool")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Service(err, "languagetool")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apperr.Service(
			fmt.Errorf("status %d: %s", resp.StatusCode, logger.TruncateForLog(string(raw), 200)),
			"languagetool")
	}

	var report models.GrammarReport
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, apperr.Malformed(err, "languagetool")
	}
	if report.Matches == nil {
		report.Matches = []models.GrammarMatch{}
	}

	return &report, nil
}
