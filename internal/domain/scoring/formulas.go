package scoring

import (
	"fmt"
	"math"
	"strings"
	"time"

	model "github.com/okian/eventrank/internal/domain/model"
	"github.com/shopspring/decimal"
)

// Profile is the Ideal Customer Profile the icp factor measures against.
type Profile struct {
	Roles   []string `json:"roles,omitempty" koanf:"roles"`
	Sectors []string `json:"sectors,omitempty" koanf:"sectors"`
	Topics  []string `json:"topics,omitempty" koanf:"topics"`
}

// Empty reports whether the profile names no roles, sectors or topics.
func (p Profile) Empty() bool {
	return len(p.Roles) == 0 && len(p.Sectors) == 0 && len(p.Topics) == 0
}

// countMatches counts record entries whose folded text contains any profile term.
func countMatches(entries, terms []string) (int, []string) {
	folded := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = fold(t); t != "" {
			folded = append(folded, t)
		}
	}
	n := 0
	var hits []string
	for _, e := range entries {
		fe := fold(e)
		for _, t := range folded {
			if strings.Contains(fe, t) {
				n++
				hits = append(hits, e)
				break
			}
		}
	}
	return n, hits
}

// Env is the read-only context shared by every formula in one scoring call.
type Env struct {
	Now         time.Time
	Profile     Profile
	Competitors *Registry
}

// Points is a formula's raw result.
type Points struct {
	Raw decimal.Decimal
	// Defaulted is set when a required input was absent and Raw is the neutral value.
	Defaulted bool
	Evidence  []string
}

// Formula turns a record into raw points for one factor.
type Formula interface {
	Factor() model.Factor
	MaxPoints() decimal.Decimal
	// Points returns ErrInvalidScoreInput for inputs that exist but cannot be scored.
	Points(r *model.Record, env Env) (Points, error)
}

// neutral is half of max, marked defaulted.
func neutral(f Formula, why string) Points {
	return Points{Raw: f.MaxPoints().Div(decimal.NewFromInt(2)), Defaulted: true, Evidence: []string{why}}
}

func pts(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

// DefaultFormulas returns the six standard formulas in factor order.
func DefaultFormulas() []Formula {
	return []Formula{ICPFormula{}, CompetitorsFormula{}, AudienceFormula{}, SpeakingFormula{}, CommercialsFormula{}, TimingFormula{}}
}

// ICPFormula: +10 per matching role (max 2), +5 per matching sector (max 2),
// +3 per matching topic (topic total max 10), capped at 30.
type ICPFormula struct{}

func (ICPFormula) Factor() model.Factor       { return model.FactorICP }
func (ICPFormula) MaxPoints() decimal.Decimal { return pts(30) }

func (f ICPFormula) Points(r *model.Record, env Env) (Points, error) {
	if r.ICPRoles == nil && r.Sectors == nil && r.Topics == nil {
		return neutral(f, "no roles, sectors or topics"), nil
	}
	if env.Profile.Empty() {
		return neutral(f, "no ideal customer profile configured"), nil
	}
	roles, roleHits := countMatches(r.ICPRoles, env.Profile.Roles)
	sectors, sectorHits := countMatches(r.Sectors, env.Profile.Sectors)
	topics, topicHits := countMatches(r.Topics, env.Profile.Topics)

	raw := min(10*min(roles, 2)+5*min(sectors, 2)+min(3*topics, 10), 30)

	var ev []string
	for _, h := range roleHits {
		ev = append(ev, "role: "+h)
	}
	for _, h := range sectorHits {
		ev = append(ev, "sector: "+h)
	}
	for _, h := range topicHits {
		ev = append(ev, "topic: "+h)
	}
	return Points{Raw: pts(int64(raw)), Evidence: ev}, nil
}

// CompetitorsFormula: +7 per distinct registered competitor present, +3 for
// strong evidence, capped at 20.
type CompetitorsFormula struct{}

func (CompetitorsFormula) Factor() model.Factor       { return model.FactorCompetitors }
func (CompetitorsFormula) MaxPoints() decimal.Decimal { return pts(20) }

func (f CompetitorsFormula) Points(r *model.Record, env Env) (Points, error) {
	if r.CompetitorsPresent == nil {
		return neutral(f, "competitors present unknown"), nil
	}
	seen := make(map[string]struct{})
	var ev []string
	for _, mention := range r.CompetitorsPresent {
		name, ok := env.Competitors.Lookup(mention)
		if !ok {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		ev = append(ev, "competitor: "+name)
	}
	raw := min(7*len(seen), 20)
	if r.CompetitorEvidence == model.EvidenceStrong {
		raw += 3
		ev = append(ev, "strong evidence")
	}
	return Points{Raw: pts(int64(min(raw, 20))), Evidence: ev}, nil
}

// AudienceFormula: min(15, 5*log10(attendance)) plus 5 for senior audiences.
type AudienceFormula struct{}

func (AudienceFormula) Factor() model.Factor       { return model.FactorAudience }
func (AudienceFormula) MaxPoints() decimal.Decimal { return pts(20) }

func (f AudienceFormula) Points(r *model.Record, _ Env) (Points, error) {
	a, ok := r.Attendance()
	if !ok {
		return neutral(f, "attendance unknown"), nil
	}
	if a < 0 {
		return Points{}, fmt.Errorf("%w: negative attendance %d", ErrInvalidScoreInput, a)
	}
	size := decimal.NewFromFloat(math.Min(15, 5*math.Log10(float64(max(a, 1)))))
	ev := []string{fmt.Sprintf("attendance %d", a)}
	if r.SeniorityIndicator != nil && *r.SeniorityIndicator {
		size = size.Add(pts(5))
		ev = append(ev, "senior audience")
	}
	return Points{Raw: size, Evidence: ev}, nil
}

// SpeakingFormula: +10 for an open speaking opportunity, +5 for a confirmed
// slot, +3 when the agenda overlaps the record's topics, capped at 15.
type SpeakingFormula struct{}

func (SpeakingFormula) Factor() model.Factor       { return model.FactorSpeaking }
func (SpeakingFormula) MaxPoints() decimal.Decimal { return pts(15) }

func (f SpeakingFormula) Points(r *model.Record, env Env) (Points, error) {
	if r.SpeakingOpportunity == nil {
		return neutral(f, "speaking opportunity unknown"), nil
	}
	raw := 0
	var ev []string
	if *r.SpeakingOpportunity {
		today := model.DateOf(env.Now)
		if r.CFPDeadline == nil || !r.CFPDeadline.Before(today.Time) {
			raw += 10
			ev = append(ev, "call for papers open")
		} else {
			ev = append(ev, "call for papers closed "+r.CFPDeadline.String())
		}
	}
	if r.SpeakingSlotConfirmed != nil && *r.SpeakingSlotConfirmed {
		raw += 5
		ev = append(ev, "speaking slot confirmed")
	}
	if overlap := intersect(r.AgendaTopics, r.Topics); len(overlap) > 0 {
		raw += 3
		ev = append(ev, "agenda fit: "+strings.Join(overlap, ", "))
	}
	return Points{Raw: pts(int64(min(raw, 15))), Evidence: ev}, nil
}

func intersect(a, b []string) []string {
	set := make(map[string]struct{}, len(b))
	for _, s := range b {
		set[fold(s)] = struct{}{}
	}
	var out []string
	for _, s := range a {
		if _, ok := set[fold(s)]; ok {
			out = append(out, s)
		}
	}
	return out
}

// CommercialsFormula buckets the stand price per attendee: under 20 scores
// 10, under 50 scores 7, under 100 scores 5, anything else 3.
type CommercialsFormula struct{}

func (CommercialsFormula) Factor() model.Factor       { return model.FactorCommercials }
func (CommercialsFormula) MaxPoints() decimal.Decimal { return pts(10) }

func (f CommercialsFormula) Points(r *model.Record, _ Env) (Points, error) {
	if r.PriceStandEstimate == nil {
		return neutral(f, "stand price unknown"), nil
	}
	a, ok := r.Attendance()
	if !ok {
		return neutral(f, "attendance unknown"), nil
	}
	if r.PriceStandEstimate.IsNegative() {
		return Points{}, fmt.Errorf("%w: negative stand price %s", ErrInvalidScoreInput, r.PriceStandEstimate)
	}
	if a < 0 {
		return Points{}, fmt.Errorf("%w: negative attendance %d", ErrInvalidScoreInput, a)
	}
	cpa := r.PriceStandEstimate.Div(decimal.NewFromInt(int64(max(a, 1))))
	var raw int64
	switch {
	case cpa.LessThan(pts(20)):
		raw = 10
	case cpa.LessThan(pts(50)):
		raw = 7
	case cpa.LessThan(pts(100)):
		raw = 5
	default:
		raw = 3
	}
	return Points{Raw: pts(raw), Evidence: []string{"cost per attendee " + cpa.StringFixed(2)}}, nil
}

// TimingFormula: +3 for 60 to 180 days of lead time, +2 unless the date clashes.
type TimingFormula struct{}

func (TimingFormula) Factor() model.Factor       { return model.FactorTiming }
func (TimingFormula) MaxPoints() decimal.Decimal { return pts(5) }

func (f TimingFormula) Points(r *model.Record, env Env) (Points, error) {
	if r.StartDate.IsZero() {
		return neutral(f, "start date unknown"), nil
	}
	raw := int64(0)
	days := r.StartDate.DaysFrom(env.Now)
	ev := []string{fmt.Sprintf("lead time %d days", days)}
	if days >= 60 && days <= 180 {
		raw += 3
	}
	if r.DateConflict == nil || !*r.DateConflict {
		raw += 2
	} else {
		ev = append(ev, "date conflict")
	}
	return Points{Raw: pts(raw), Evidence: ev}, nil
}

// normalize maps raw points onto 0-100, rounding half up.
func normalize(raw, maxRaw decimal.Decimal) int {
	if !maxRaw.IsPositive() {
		return 0
	}
	v := raw.Mul(pts(100)).Div(maxRaw).Round(0).IntPart()
	return int(min(max(v, 0), maxScore))
}
