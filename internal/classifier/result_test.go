package classifier

import (
	"strings"
	"testing"
)

func TestParseResponse(t *testing.T) {
	res, err := parseResponse(`{"label":"billing_issue","confidence":0.95,"summary":"duplicate charge"}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if res.Label != LabelBillingIssue || res.Confidence != 0.95 || res.Summary != "duplicate charge" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestParseResponseStripsCodeFences(t *testing.T) {
	cases := []string{
		"```json\n{\"label\":\"bug\",\"confidence\":0.8,\"summary\":\"crash on save\"}\n```",
		"```\n{\"label\":\"bug\",\"confidence\":0.8,\"summary\":\"crash on save\"}\n```",
		"  {\"label\":\"bug\",\"confidence\":0.8,\"summary\":\"crash on save\"}  ",
	}
	for _, raw := range cases {
		res, err := parseResponse(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if res.Label != LabelBug {
			t.Fatalf("unexpected label %q for %q", res.Label, raw)
		}
	}
}

func TestParseResponseUnknownLabelCoerced(t *testing.T) {
	res, err := parseResponse(`{"label":"complaint","confidence":0.7,"summary":"angry user"}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if res.Label != LabelOther {
		t.Fatalf("expected label coerced to other, got %q", res.Label)
	}
	if res.Confidence != 0.7 {
		t.Fatalf("confidence should survive coercion, got %v", res.Confidence)
	}
}

func TestParseResponseQuotedConfidence(t *testing.T) {
	res, err := parseResponse(`{"label":"bug","confidence":"0.95","summary":"x"}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if res.Confidence != 0.95 {
		t.Fatalf("expected quoted number converted, got %v", res.Confidence)
	}

	res, err = parseResponse(`{"label":"bug","confidence":" 0.4 ","summary":"x"}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if res.Confidence != 0.4 {
		t.Fatalf("expected padded quoted number converted, got %v", res.Confidence)
	}
}

func TestParseResponseClampsConfidence(t *testing.T) {
	res, err := parseResponse(`{"label":"bug","confidence":1.7,"summary":"x"}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if res.Confidence != 1 {
		t.Fatalf("expected clamp to 1, got %v", res.Confidence)
	}

	res, err = parseResponse(`{"label":"bug","confidence":-0.2,"summary":"x"}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if res.Confidence != 0 {
		t.Fatalf("expected clamp to 0, got %v", res.Confidence)
	}
}

func TestParseResponseFailures(t *testing.T) {
	cases := map[string]string{
		"not json":               "the ticket is about billing",
		"missing confidence":     `{"label":"bug","summary":"x"}`,
		"missing label":          `{"confidence":0.5,"summary":"x"}`,
		"missing summary":        `{"label":"bug","confidence":0.5}`,
		"non-numeric confidence": `{"label":"bug","confidence":"high","summary":"x"}`,
		"null confidence":        `{"label":"bug","confidence":null,"summary":"x"}`,
	}
	for name, raw := range cases {
		if _, err := parseResponse(raw); err == nil {
			t.Errorf("%s: expected parse error for %q", name, raw)
		}
	}
}

func TestStripCodeFencesLeavesInnerBackticks(t *testing.T) {
	raw := "```json\n{\"label\":\"bug\",\"confidence\":0.5,\"summary\":\"use `go build`\"}\n```"
	res, err := parseResponse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !strings.Contains(res.Summary, "`go build`") {
		t.Fatalf("inner backticks should survive, got %q", res.Summary)
	}
}
