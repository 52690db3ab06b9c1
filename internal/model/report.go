package model

import "time"

// SessionReport is produced once per collection session. It is created at
// session start, finalized at session end, and immutable afterward.
type SessionReport struct {
	Supplier     string            `json:"supplier"`
	SessionID    string            `json:"session_id"`
	StartedAt    time.Time         `json:"started_at"`
	EndedAt      time.Time         `json:"ended_at,omitempty"`
	Records      []CandidateRecord `json:"records"`
	Persisted    int               `json:"persisted"`
	Errors       []string          `json:"errors,omitempty"`
	Warnings     []string          `json:"warnings,omitempty"`
	CacheHits    int               `json:"cache_hits"`
	RequestsMade int               `json:"requests_made"`
}

// Duration returns the session wall-clock duration, or zero if the
// session has not ended.
func (r *SessionReport) Duration() time.Duration {
	if r.EndedAt.IsZero() {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}

// AddError records a per-record or session-level error.
func (r *SessionReport) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
}

// AddWarning records a non-fatal issue.
func (r *SessionReport) AddWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}
