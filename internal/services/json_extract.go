package services

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/tztgracious/Jobify/internal/apperr"
	"github.com/tztgracious/Jobify/internal/logger"
)

var (
	// objectPattern matches either a flat object or one with a single level of
	// nesting, the shapes the prompts ask for.
	objectPattern = regexp.MustCompile(`(?s)\{[^{}]*\{.*\}[^{}]*\}|\{[^{}]*\}`)
	fencePattern  = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")
)

// stripFence returns the body of the first markdown code fence, or text unchanged.
func stripFence(text string) string {
	if m := fencePattern.FindStringSubmatch(text); len(m) == 2 {
		return m[1]
	}
	return text
}

// DecodeJSONObject decodes the first JSON object embedded in a model reply.
func DecodeJSONObject(text string, v interface{}) error {
	text = strings.TrimSpace(stripFence(text))
	if text == "" {
		return apperr.Malformed(nil, "json decode")
	}

	if err := json.Unmarshal([]byte(text), v); err == nil {
		return nil
	}

	candidate := objectPattern.FindString(text)
	if candidate == "" {
		return apperr.Malformed(errors.Newf("no JSON object in reply %q", logger.TruncateForLog(text, 80)), "json decode")
	}

	if err := json.Unmarshal([]byte(candidate), v); err != nil {
		return apperr.Malformed(err, "json decode")
	}

	return nil
}

// DecodeFirstJSONArray decodes the first well-formed JSON array embedded in a
// model reply into v.
func DecodeFirstJSONArray(text string, v interface{}) error {
	text = stripFence(text)
	data := []byte(text)

	var lastErr error
	for i := 0; i < len(data); i++ {
		if data[i] != '[' {
			continue
		}

		var raw json.RawMessage
		if err := json.NewDecoder(bytes.NewReader(data[i:])).Decode(&raw); err != nil {
			lastErr = err
			continue
		}

		if err := json.Unmarshal(raw, v); err != nil {
			lastErr = err
			continue
		}

		return nil
	}

	if lastErr == nil {
		lastErr = errors.Newf("no JSON array in reply %q", logger.TruncateForLog(text, 80))
	}

	return apperr.Malformed(lastErr, "json decode")
}
