// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Confidence labels how much defaulting or weak matching went into a score.
type Confidence string

// Confidence levels, strongest first.
const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

func (c Confidence) level() int {
	switch c {
	case ConfidenceLow:
		return 0
	case ConfidenceMedium:
		return 1
	default:
		return 2
	}
}

// Cap returns the weaker of c and limit. An empty Confidence counts as high.
func (c Confidence) Cap(limit Confidence) Confidence {
	if c == "" {
		c = ConfidenceHigh
	}
	if limit == "" || c.level() <= limit.level() {
		return c
	}
	return limit
}

// ChangeLog records what deduplication did with a record.
type ChangeLog string

// Change log values.
const (
	ChangeNew       ChangeLog = "new"
	ChangeUpdated   ChangeLog = "updated"
	ChangeUnchanged ChangeLog = "unchanged"
)

// MatchTier names the dedupe rule that tied an incoming record to an existing one.
type MatchTier string

// Match tiers. MatchNone is the zero value.
const (
	MatchNone     MatchTier = ""
	MatchURL      MatchTier = "url"
	MatchNameDate MatchTier = "name_date"
)

// ConfidenceCap is the best confidence a record matched by this tier may carry.
func (t MatchTier) ConfidenceCap() Confidence {
	if t == MatchNameDate {
		return ConfidenceMedium
	}
	return ConfidenceHigh
}

// Factor is one scoring dimension.
type Factor string

// The six scoring factors.
const (
	FactorICP         Factor = "icp"
	FactorCompetitors Factor = "competitors"
	FactorAudience    Factor = "audience"
	FactorSpeaking    Factor = "speaking"
	FactorCommercials Factor = "commercials"
	FactorTiming      Factor = "timing"
)

// Factors returns the scoring factors in display order.
func Factors() []Factor {
	return []Factor{FactorICP, FactorCompetitors, FactorAudience, FactorSpeaking, FactorCommercials, FactorTiming}
}

// EvidenceStrong marks competitor presence confirmed by a strong source (exhibitor list, agenda).
const EvidenceStrong = "strong"

// Scores holds the normalized 0-100 sub-score per factor.
type Scores map[Factor]int

// FactorTrace explains how one sub-score was produced.
type FactorTrace struct {
	Factor       Factor   `json:"factor"`
	RawPoints    float64  `json:"rawPoints"`
	MaxPoints    float64  `json:"maxPoints"`
	Score        int      `json:"score"`
	Weight       float64  `json:"weight"`
	Contribution float64  `json:"contribution"`
	Defaulted    bool     `json:"defaulted"`
	Evidence     []string `json:"evidence,omitempty"`
}

// Record is a candidate event under evaluation.
//
// Absent values are empty strings, nil pointers, nil slices and zero dates.
// A non-nil empty slice is present and means "none".
type Record struct {
	ID string `json:"id,omitempty"`

	// Identity
	URL       string `json:"url,omitempty"`
	Name      string `json:"name,omitempty"`
	StartDate Date   `json:"startDate"`
	EndDate   *Date  `json:"endDate,omitempty"`

	// Descriptive
	Location  string   `json:"location,omitempty"`
	Organiser string   `json:"organiser,omitempty"`
	Type      string   `json:"type,omitempty"`
	Source    string   `json:"source,omitempty"`
	Topics    []string `json:"topics,omitempty"`
	Sectors   []string `json:"sectors,omitempty"`
	ICPRoles  []string `json:"icpRoles,omitempty"`

	// Signals
	AttendanceClaimed     *int             `json:"attendanceClaimed,omitempty"`
	AttendanceLastYear    *int             `json:"attendanceLastYear,omitempty"`
	CompetitorsPresent    []string         `json:"competitorsPresent,omitempty"`
	CompetitorEvidence    string           `json:"competitorEvidence,omitempty"`
	SeniorityIndicator    *bool            `json:"seniorityIndicator,omitempty"`
	SpeakingOpportunity   *bool            `json:"speakingOpportunity,omitempty"`
	SpeakingSlotConfirmed *bool            `json:"speakingSlotConfirmed,omitempty"`
	AgendaTopics          []string         `json:"agendaTopics,omitempty"`
	CFPDeadline           *Date            `json:"cfpDeadline,omitempty"`
	PriceStandEstimate    *decimal.Decimal `json:"priceStandEstimate,omitempty"`
	DateConflict          *bool            `json:"dateConflict,omitempty"`

	// Derived
	Scores       Scores        `json:"scores,omitempty"`
	ScoreOverall int           `json:"scoreOverall"`
	Confidence   Confidence    `json:"confidence,omitempty"`
	ChangeLog    ChangeLog     `json:"changeLog,omitempty"`
	MatchedBy    MatchTier     `json:"matchedBy,omitempty"`
	Breakdown    []FactorTrace `json:"breakdown,omitempty"`
	Warnings     []string      `json:"warnings,omitempty"`
}

// Validate enforces the identity invariant: url, or name together with start date.
func (r *Record) Validate() error {
	if strings.TrimSpace(r.URL) != "" {
		return nil
	}
	switch {
	case strings.TrimSpace(r.Name) == "" && r.StartDate.IsZero():
		return fmt.Errorf("%w: no url, name or start date", ErrMalformedRecord)
	case strings.TrimSpace(r.Name) == "":
		return fmt.Errorf("%w: no url and no name", ErrMalformedRecord)
	case r.StartDate.IsZero():
		return fmt.Errorf("%w: no url and no start date", ErrMalformedRecord)
	}
	return nil
}

// Attendance returns the claimed attendance, falling back to last year's figure.
func (r *Record) Attendance() (int, bool) {
	if r.AttendanceClaimed != nil {
		return *r.AttendanceClaimed, true
	}
	if r.AttendanceLastYear != nil {
		return *r.AttendanceLastYear, true
	}
	return 0, false
}

// Clean trims free-text fields and tidies the set fields in place.
func (r *Record) Clean() {
	r.URL = strings.TrimSpace(r.URL)
	r.Name = strings.TrimSpace(r.Name)
	r.Location = strings.TrimSpace(r.Location)
	r.Organiser = strings.TrimSpace(r.Organiser)
	r.Type = strings.TrimSpace(r.Type)
	r.Source = strings.TrimSpace(r.Source)
	r.CompetitorEvidence = strings.ToLower(strings.TrimSpace(r.CompetitorEvidence))
	r.Topics = CleanSet(r.Topics)
	r.Sectors = CleanSet(r.Sectors)
	r.ICPRoles = CleanSet(r.ICPRoles)
	r.CompetitorsPresent = CleanSet(r.CompetitorsPresent)
	r.AgendaTopics = CleanSet(r.AgendaTopics)
}

// Clone returns a deep copy so merges and scoring never alias caller memory.
func (r Record) Clone() Record {
	c := r
	c.EndDate = clonePtr(r.EndDate)
	c.Topics = cloneSlice(r.Topics)
	c.Sectors = cloneSlice(r.Sectors)
	c.ICPRoles = cloneSlice(r.ICPRoles)
	c.AttendanceClaimed = clonePtr(r.AttendanceClaimed)
	c.AttendanceLastYear = clonePtr(r.AttendanceLastYear)
	c.CompetitorsPresent = cloneSlice(r.CompetitorsPresent)
	c.SeniorityIndicator = clonePtr(r.SeniorityIndicator)
	c.SpeakingOpportunity = clonePtr(r.SpeakingOpportunity)
	c.SpeakingSlotConfirmed = clonePtr(r.SpeakingSlotConfirmed)
	c.AgendaTopics = cloneSlice(r.AgendaTopics)
	c.CFPDeadline = clonePtr(r.CFPDeadline)
	c.PriceStandEstimate = clonePtr(r.PriceStandEstimate)
	c.DateConflict = clonePtr(r.DateConflict)
	if r.Scores != nil {
		c.Scores = make(Scores, len(r.Scores))
		for f, s := range r.Scores {
			c.Scores[f] = s
		}
	}
	if r.Breakdown != nil {
		c.Breakdown = make([]FactorTrace, len(r.Breakdown))
		for i, t := range r.Breakdown {
			t.Evidence = cloneSlice(t.Evidence)
			c.Breakdown[i] = t
		}
	}
	c.Warnings = cloneSlice(r.Warnings)
	return c
}

// RanksBefore orders records for display: higher overall score first, then
// earlier start date (absent dates last), then ID.
func RanksBefore(a, b *Record) bool {
	if a.ScoreOverall != b.ScoreOverall {
		return a.ScoreOverall > b.ScoreOverall
	}
	switch {
	case a.StartDate.IsZero() && !b.StartDate.IsZero():
		return false
	case !a.StartDate.IsZero() && b.StartDate.IsZero():
		return true
	case !a.StartDate.Equal(b.StartDate):
		return a.StartDate.Before(b.StartDate.Time)
	}
	return a.ID < b.ID
}

// CleanSet trims entries and drops blanks and exact duplicates, keeping order.
// A nil set stays nil so absence survives cleaning.
func CleanSet(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// SameSet reports whether a and b hold the same members, ignoring order.
func SameSet(a, b []string) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	as := make(map[string]struct{}, len(a))
	for _, s := range a {
		as[s] = struct{}{}
	}
	bs := make(map[string]struct{}, len(b))
	for _, s := range b {
		if _, ok := as[s]; !ok {
			return false
		}
		bs[s] = struct{}{}
	}
	return len(as) == len(bs)
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneSlice(s []string) []string {
	if s == nil {
		return nil
	}
	return append(make([]string, 0, len(s)), s...)
}
