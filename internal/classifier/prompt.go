package classifier

import "fmt"

// Taxonomy labels. Every classification collapses into one of these.
const (
	LabelBug            = "bug"
	LabelFeatureRequest = "feature_request"
	LabelBillingIssue   = "billing_issue"
	LabelOther          = "other"
)

// ValidLabel reports whether the label belongs to the taxonomy.
func ValidLabel(label string) bool {
	switch label {
	case LabelBug, LabelFeatureRequest, LabelBillingIssue, LabelOther:
		return true
	}
	return false
}

const promptTemplate = `Classify this customer support ticket and provide a summary.

Ticket: %s

Categories: bug, feature_request, billing_issue, other

Respond with valid JSON:
{
    "label": "category_name",
    "confidence": 0.0-1.0,
    "summary": "brief summary of the issue"
}

Strict JSON only.`

// BuildPrompt renders the fixed instruction prompt for the ticket text.
func BuildPrompt(text string) string {
	return fmt.Sprintf(promptTemplate, text)
}
