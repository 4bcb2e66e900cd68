// Package event defines the canonical repository event record and the
// normalization of raw GitHub webhook payloads into it.
package event

import "time"

// Action classifies a tracked repository event.
type Action string

const (
	ActionPush        Action = "PUSH"
	ActionPullRequest Action = "PULL_REQUEST"
	ActionMerge       Action = "MERGE"
)

// TimeLayout is the wire and storage format for event timestamps.
// Fixed-width microsecond precision keeps lexicographic order equal to
// chronological order for the stored TEXT column.
const TimeLayout = "2006-01-02T15:04:05.000000Z"

// FormatTime renders t in UTC using TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// Event is the single persisted entity: one normalized webhook delivery.
//
// RequestID is the delivery id assigned by GitHub (X-GitHub-Delivery) and
// doubles as the idempotency key. Timestamp is set at ingestion time from
// the server clock, never from the payload. CreatedAt is stamped by the
// store on insert.
type Event struct {
	RequestID  string  `json:"request_id"`
	Author     string  `json:"author"`
	Action     Action  `json:"action"`
	FromBranch *string `json:"from_branch"`
	ToBranch   string  `json:"to_branch"`
	Timestamp  string  `json:"timestamp"`
	CreatedAt  string  `json:"created_at,omitempty"`
}
