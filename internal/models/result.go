package models

import "time"

// CheckResult is a manual pass/fail grade for one step of one paragraph.
// Re-grading the same step overwrites the previous entry.
type CheckResult struct {
	ParagraphID string
	StepKey     string
	Pass        bool
	MarkedAt    time.Time
}
