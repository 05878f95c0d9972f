// Package dedupe merges incoming records into the set of known records.
//
// Matching is two-tier and short-circuiting: a normalized URL match is
// authoritative; failing that, a normalized name plus exact start date match
// is accepted with reduced confidence. Anything else is new.
package dedupe

import (
	"context"
	"fmt"

	model "github.com/okian/eventrank/internal/domain/model"
	"github.com/okian/eventrank/pkg/logger"
	"github.com/okian/eventrank/pkg/metrics"

	"github.com/google/uuid"
)

// Decision is the outcome recorded for one incoming record.
type Decision string

// Match log decisions.
const (
	DecisionNew       Decision = "new"
	DecisionMatched   Decision = "matched"
	DecisionCollapsed Decision = "collapsed"
	DecisionAmbiguous Decision = "ambiguous"
	DecisionMalformed Decision = "malformed"
)

// LogEntry is one audit line describing what happened to an incoming record.
type LogEntry struct {
	ID            string          `json:"id"`
	Index         int             `json:"index"`
	Decision      Decision        `json:"decision"`
	Tier          model.MatchTier `json:"tier,omitempty"`
	URL           string          `json:"url,omitempty"`
	Name          string          `json:"name,omitempty"`
	Target        int             `json:"target"`
	TargetID      string          `json:"targetId,omitempty"`
	ChangedFields []string        `json:"changedFields,omitempty"`
	Error         string          `json:"error,omitempty"`
}

// Rejection is an incoming record excluded from the merge.
type Rejection struct {
	Index  int          `json:"index"`
	Record model.Record `json:"record"`
	Err    error        `json:"-"`
}

// MatchResult says which tier tied an incoming record to a known one.
// Known is an index into the working set; it is -1 for MatchNone.
type MatchResult struct {
	Tier  model.MatchTier
	Known int
}

// Result partitions one deduplication run.
type Result struct {
	// New holds records that matched nothing known.
	New []model.Record
	// Updated and Unchanged hold the existing records touched by this batch.
	Updated   []model.Record
	Unchanged []model.Record
	// Existing is the full existing set after merging, in input order.
	Existing  []model.Record
	Ambiguous []Rejection
	Malformed []Rejection
	Log       []LogEntry
}

// Known returns the merged existing set followed by the new records.
func (r Result) Known() []model.Record {
	out := make([]model.Record, 0, len(r.Existing)+len(r.New))
	out = append(out, r.Existing...)
	return append(out, r.New...)
}

// Engine deduplicates batches. It holds no per-batch state and is safe for concurrent use.
type Engine struct {
	log   logger.Logger
	newID func() string
}

// New creates a deduplication engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		log:   logger.Nop(),
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// index maps comparison keys to positions in the working set.
type index struct {
	byURL      map[string][]int
	byNameDate map[string][]int
}

func newIndex() *index {
	return &index{byURL: map[string][]int{}, byNameDate: map[string][]int{}}
}

func (ix *index) add(pos int, r *model.Record) {
	if k := NormalizeURL(r.URL); k != "" {
		ix.byURL[k] = appendUnique(ix.byURL[k], pos)
	}
	if k := NameDateKey(r); k != "" {
		ix.byNameDate[k] = appendUnique(ix.byNameDate[k], pos)
	}
}

// dropNameDate removes pos from its name+date key ahead of a merge. URL keys
// stay: a record answers to every URL it has held during the run.
func (ix *index) dropNameDate(pos int, r *model.Record) {
	if k := NameDateKey(r); k != "" {
		ix.byNameDate[k] = without(ix.byNameDate[k], pos)
	}
}

func appendUnique(list []int, v int) []int {
	for _, x := range list {
		if x == v {
			return list
		}
	}
	return append(list, v)
}

func without(list []int, v int) []int {
	out := list[:0]
	for _, x := range list {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}

// match applies the tiers in order. A tier with several candidates decides
// the outcome: the record is ambiguous and lower tiers are not consulted.
func (ix *index) match(r *model.Record) (MatchResult, int, error) {
	if k := NormalizeURL(r.URL); k != "" {
		switch c := ix.byURL[k]; len(c) {
		case 0:
		case 1:
			return MatchResult{Tier: model.MatchURL, Known: c[0]}, 1, nil
		default:
			return MatchResult{Tier: model.MatchURL, Known: -1}, len(c),
				fmt.Errorf("%w: %d known records share url %q", ErrAmbiguousMatch, len(c), k)
		}
	}
	if k := NameDateKey(r); k != "" {
		switch c := ix.byNameDate[k]; len(c) {
		case 0:
		case 1:
			return MatchResult{Tier: model.MatchNameDate, Known: c[0]}, 1, nil
		default:
			return MatchResult{Tier: model.MatchNameDate, Known: -1}, len(c),
				fmt.Errorf("%w: %d known records share name and date %q", ErrAmbiguousMatch, len(c), k)
		}
	}
	return MatchResult{Tier: model.MatchNone, Known: -1}, 0, nil
}

// Deduplicate partitions incoming against existing. Neither input slice is modified.
//
// Records without a URL or a name and start date are rejected as malformed.
// Incoming records sharing a normalized URL collapse first, the last one
// winning. Survivors are matched in batch order against the existing records
// and against records already accepted as new earlier in the same batch.
func (e *Engine) Deduplicate(ctx context.Context, incoming, existing []model.Record) Result {
	var res Result
	metrics.RecordRecordsIngested(len(incoming))

	// Validate and tidy.
	type candidate struct {
		pos int
		rec model.Record
	}
	valid := make([]candidate, 0, len(incoming))
	for i := range incoming {
		rec := incoming[i].Clone()
		rec.Clean()
		if err := rec.Validate(); err != nil {
			res.Malformed = append(res.Malformed, Rejection{Index: i, Record: rec, Err: err})
			res.Log = append(res.Log, e.entry(i, DecisionMalformed, &rec, MatchResult{Known: -1}, "", nil, err))
			metrics.RecordMalformedRecord()
			e.log.Warn(ctx, "malformed record rejected",
				logger.Int("index", i),
				logger.String("url", rec.URL),
				logger.String("name", rec.Name),
				logger.Error(err),
			)
			continue
		}
		valid = append(valid, candidate{pos: i, rec: rec})
	}

	// Collapse duplicate URLs inside the batch; the last occurrence wins.
	lastByURL := make(map[string]int, len(valid))
	for _, c := range valid {
		if k := NormalizeURL(c.rec.URL); k != "" {
			lastByURL[k] = c.pos
		}
	}
	survivors := valid[:0]
	for _, c := range valid {
		k := NormalizeURL(c.rec.URL)
		if k == "" || lastByURL[k] == c.pos {
			survivors = append(survivors, c)
			continue
		}
		err := fmt.Errorf("superseded by incoming record %d with the same url", lastByURL[k])
		res.Log = append(res.Log, e.entry(c.pos, DecisionCollapsed, &c.rec, MatchResult{Known: -1}, "", nil, err))
		metrics.RecordMatchDecision(string(DecisionCollapsed))
		e.log.Debug(ctx, "collapsed duplicate url in batch",
			logger.Int("index", c.pos),
			logger.Int("winner", lastByURL[k]),
			logger.String("url", k),
		)
	}

	// Working set: merged copies of existing, then accepted new records.
	work := make([]model.Record, 0, len(existing)+len(survivors))
	for i := range existing {
		work = append(work, existing[i].Clone())
	}
	ix := newIndex()
	for i := range work {
		ix.add(i, &work[i])
	}
	touched := make(map[int]struct{})
	tiers := make(map[int]model.MatchTier)

	for _, c := range survivors {
		rec := c.rec
		m, n, err := ix.match(&rec)
		if err != nil {
			res.Ambiguous = append(res.Ambiguous, Rejection{Index: c.pos, Record: rec, Err: err})
			res.Log = append(res.Log, e.entry(c.pos, DecisionAmbiguous, &rec, m, "", nil, err))
			metrics.RecordMatchDecision(string(DecisionAmbiguous))
			metrics.RecordErrorByComponent("dedupe", "ambiguous_match")
			e.log.Warn(ctx, "ambiguous match held out",
				logger.Int("index", c.pos),
				logger.String("tier", string(m.Tier)),
				logger.Int("candidates", n),
				logger.Error(err),
			)
			continue
		}

		if m.Tier == model.MatchNone {
			rec.ChangeLog = model.ChangeNew
			rec.MatchedBy = model.MatchNone
			pos := len(work)
			work = append(work, rec)
			ix.add(pos, &work[pos])
			res.Log = append(res.Log, e.entry(c.pos, DecisionNew, &rec, MatchResult{Known: pos}, "", nil, nil))
			metrics.RecordMatchDecision("none")
			continue
		}

		target := &work[m.Known]
		ix.dropNameDate(m.Known, target)
		changed := merge(target, &rec)
		ix.add(m.Known, target)
		touched[m.Known] = struct{}{}
		if prev, ok := tiers[m.Known]; !ok || prev != model.MatchNameDate {
			tiers[m.Known] = m.Tier
		}

		res.Log = append(res.Log, e.entry(c.pos, DecisionMatched, &rec, m, target.ID, changed, nil))
		metrics.RecordMatchDecision(string(m.Tier))
		e.log.Debug(ctx, "record matched",
			logger.Int("index", c.pos),
			logger.String("tier", string(m.Tier)),
			logger.Int("target", m.Known),
			logger.Strings("changed", changed),
		)
	}

	// Partition. Change is judged against the original so repeated merges
	// that end where they started count as unchanged.
	for i := range existing {
		rec := work[i]
		if _, ok := touched[i]; ok {
			rec.MatchedBy = tiers[i]
			if len(diff(&existing[i], &rec)) > 0 {
				rec.ChangeLog = model.ChangeUpdated
				res.Updated = append(res.Updated, rec)
			} else {
				rec.ChangeLog = model.ChangeUnchanged
				res.Unchanged = append(res.Unchanged, rec)
			}
			metrics.RecordChangeOutcome(string(rec.ChangeLog))
		}
		res.Existing = append(res.Existing, rec)
	}
	for i := len(existing); i < len(work); i++ {
		rec := work[i]
		rec.MatchedBy = model.MatchNone
		res.New = append(res.New, rec)
		metrics.RecordChangeOutcome(string(model.ChangeNew))
	}

	e.log.Info(ctx, "deduplication complete",
		logger.Int("incoming", len(incoming)),
		logger.Int("new", len(res.New)),
		logger.Int("updated", len(res.Updated)),
		logger.Int("unchanged", len(res.Unchanged)),
		logger.Int("ambiguous", len(res.Ambiguous)),
		logger.Int("malformed", len(res.Malformed)),
	)
	return res
}

func (e *Engine) entry(pos int, d Decision, r *model.Record, m MatchResult, targetID string, changed []string, err error) LogEntry {
	le := LogEntry{
		ID:            e.newID(),
		Index:         pos,
		Decision:      d,
		Tier:          m.Tier,
		URL:           r.URL,
		Name:          r.Name,
		Target:        m.Known,
		TargetID:      targetID,
		ChangedFields: changed,
	}
	if err != nil {
		le.Error = err.Error()
	}
	return le
}
