// Package types contains the views returned to callers of the service.
package types

import (
	"time"

	"github.com/okian/eventrank/internal/domain/dedupe"
	model "github.com/okian/eventrank/internal/domain/model"
)

// Entry is one row of the ranked shortlist.
type Entry struct {
	Rank         int              `json:"rank"`
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	URL          string           `json:"url,omitempty"`
	StartDate    model.Date       `json:"startDate"`
	ScoreOverall int              `json:"scoreOverall"`
	Confidence   model.Confidence `json:"confidence"`
	Band         string           `json:"band"`
	ChangeLog    model.ChangeLog  `json:"changeLog,omitempty"`
	MatchedBy    model.MatchTier  `json:"matchedBy,omitempty"`
	Warnings     []string         `json:"warnings,omitempty"`
}

// NewEntry builds a ranked row from a scored record.
func NewEntry(rank int, r model.Record, band string) Entry {
	return Entry{
		Rank:         rank,
		ID:           r.ID,
		Name:         r.Name,
		URL:          r.URL,
		StartDate:    r.StartDate,
		ScoreOverall: r.ScoreOverall,
		Confidence:   r.Confidence,
		Band:         band,
		ChangeLog:    r.ChangeLog,
		MatchedBy:    r.MatchedBy,
		Warnings:     append([]string(nil), r.Warnings...),
	}
}

// Detail is a full stored record with its ranking position.
type Detail struct {
	Rank   int          `json:"rank"`
	Band   string       `json:"band"`
	Record model.Record `json:"record"`
}

// Report summarizes one evaluated batch.
type Report struct {
	RunID      string    `json:"runId"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`

	Found     int `json:"found"`
	New       int `json:"new"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	Malformed int `json:"malformed"`
	Ambiguous int `json:"ambiguous"`

	Errors []string `json:"errors,omitempty"`

	// Records holds the batch's scored records, ranked against the whole store.
	Records []Entry           `json:"records"`
	Log     []dedupe.LogEntry `json:"log"`
}
