package classifier

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Result is one immutable classification outcome.
type Result struct {
	Label      string
	Confidence float64
	Summary    string
	Provider   string
	Latency    time.Duration
}

// ProviderFallback marks results produced without any provider.
const ProviderFallback = "fallback"

const fallbackSummary = "Failed to classify ticket due to AI service unavailability"

type responsePayload struct {
	Label      *string         `json:"label"`
	Confidence json.RawMessage `json:"confidence"`
	Summary    *string         `json:"summary"`
}

// parseResponse decodes a provider completion into a Result. The raw text may
// be wrapped in markdown code fences. Missing fields and non-numeric
// confidence values are parse errors; an out-of-taxonomy label is coerced to
// "other" and confidence is clamped into [0, 1].
func parseResponse(raw string) (Result, error) {
	cleaned := stripCodeFences(raw)

	var payload responsePayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return Result{}, fmt.Errorf("decode classification response: %w", err)
	}
	if payload.Label == nil || len(payload.Confidence) == 0 || string(payload.Confidence) == "null" || payload.Summary == nil {
		return Result{}, fmt.Errorf("classification response missing required fields")
	}

	label := *payload.Label
	if !ValidLabel(label) {
		label = LabelOther
	}

	confidence, err := parseConfidence(payload.Confidence)
	if err != nil {
		return Result{}, err
	}
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return Result{
		Label:      label,
		Confidence: confidence,
		Summary:    *payload.Summary,
	}, nil
}

// parseConfidence accepts a JSON number or, because some models quote the
// value, a string holding one. Anything else is a parse failure.
func parseConfidence(raw json.RawMessage) (float64, error) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f, nil
		}
	}
	return 0, fmt.Errorf("classification confidence is not numeric: %s", raw)
}

func stripCodeFences(raw string) string {
	cleaned := strings.TrimSpace(raw)
	if strings.HasPrefix(cleaned, "```json") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
	} else {
		cleaned = strings.TrimPrefix(cleaned, "```")
	}
	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	return strings.TrimSpace(cleaned)
}
