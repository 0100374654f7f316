package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Label is the risk classification assigned to a patient message by the
// remote model.
type Label string

const (
	LabelSupportive Label = "Supportive"
	LabelIdeation   Label = "Ideation"
	LabelIndicator  Label = "Indicator"
	LabelBehavior   Label = "Behavior"
	LabelAttempt    Label = "Attempt"
)

// Labels lists every label in ascending order of risk.
var Labels = []Label{LabelSupportive, LabelIndicator, LabelIdeation, LabelBehavior, LabelAttempt}

// Severity groups labels by how urgently a caregiver should act.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

var labelAdvice = map[Label]string{
	LabelAttempt:    "Immediate intervention is required. Contact emergency services and ensure the patient is not left alone.",
	LabelBehavior:   "Monitor the patient closely and consider involving mental health professionals for further assessment.",
	LabelIdeation:   "Engage in a detailed conversation with the patient to understand their thoughts and feelings. Consider a referral to a mental health specialist.",
	LabelIndicator:  "Look for additional signs and symptoms. It may be beneficial to schedule a follow-up appointment soon.",
	LabelSupportive: "Provide emotional support and encourage the patient to continue with their current coping strategies.",
}

// ParseLabel resolves s (case-insensitive, surrounding space ignored) to a Label.
func ParseLabel(s string) (Label, error) {
	s = strings.TrimSpace(s)
	for _, l := range Labels {
		if strings.EqualFold(s, string(l)) {
			return l, nil
		}
	}
	return "", fmt.Errorf("unknown label %q", s)
}

// Valid reports whether l is one of the five known labels.
func (l Label) Valid() bool {
	_, ok := labelAdvice[l]
	return ok
}

// Severity returns the alert level shown alongside the label.
func (l Label) Severity() Severity {
	switch l {
	case LabelAttempt, LabelBehavior:
		return SeverityCritical
	case LabelIdeation, LabelIndicator:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

// Advice returns the caregiver guidance for l.
func (l Label) Advice() string {
	if a, ok := labelAdvice[l]; ok {
		return a
	}
	return "No specific advice available."
}

// UnmarshalJSON rejects labels outside the known set so that malformed
// persisted or remote data never enters the cache.
func (l *Label) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseLabel(s)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
