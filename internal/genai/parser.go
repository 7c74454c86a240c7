package genai

import (
	"encoding/json"
	"errors"
	"io"
	"regexp"
	"strings"

	"quizforge/internal/logger"

	"go.uber.org/zap"
)

// logSampleLen bounds how much of an unparsable response is logged.
const logSampleLen = 500

var (
	fencedBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")
	bracketRe     = regexp.MustCompile(`(?s)\[\{.*\}\]|\[.*\]|\{.*\}`)
)

// ExtractJSON pulls a JSON value out of raw model output. Models wrap their
// answers in markdown fences, prose, or both, so several strategies are tried
// in order: direct parse, fenced code blocks, the largest bracket-delimited
// substring, and finally the text with newlines stripped. The first strategy
// that yields valid JSON wins. It never returns an error; a total failure is
// reported as ok=false after logging a sample of the input.
func ExtractJSON(raw string) (any, bool) {
	if v, err := decodeStrict(raw); err == nil {
		return v, true
	}

	for _, m := range fencedBlockRe.FindAllStringSubmatch(raw, -1) {
		if v, err := decodeStrict(m[1]); err == nil {
			return v, true
		}
	}

	for _, m := range bracketRe.FindAllString(raw, -1) {
		if v, err := decodeStrict(m); err == nil {
			return v, true
		}
	}

	cleaned := strings.NewReplacer("\n", "", "\r", "").Replace(strings.TrimSpace(raw))
	if v, err := decodeStrict(cleaned); err == nil {
		return v, true
	}

	logger.Get().Warn("Could not parse JSON from model response",
		zap.String("response", truncateForLog(raw, logSampleLen)))
	return nil, false
}

// decodeStrict parses s as a single JSON value, rejecting trailing content.
// Numbers are kept as json.Number so positions survive coercion intact.
func decodeStrict(s string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing content after JSON value")
	}
	return v, nil
}

func truncateForLog(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
