package repository

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"
	model "github.com/okian/eventrank/internal/domain/model"
	"github.com/okian/eventrank/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Ordering: overall score DESC, then start date ASC with absent dates last,
// then ID ASC. "less" means ranks earlier, so in-order traversal yields the
// ranking from best to worst.

// key is the part of a record the tree is ordered by.
type key struct {
	score int
	start model.Date
	id    string
}

func keyOf(r *model.Record) key {
	return key{score: r.ScoreOverall, start: r.StartDate, id: r.ID}
}

// less returns true if a should appear before b in the ranking.
func less(a, b key) bool {
	return model.RanksBefore(
		&model.Record{ScoreOverall: a.score, StartDate: a.start, ID: a.id},
		&model.Record{ScoreOverall: b.score, StartDate: b.start, ID: b.id},
	)
}

// treap node
type node struct {
	key   key
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

func rotateRight(y *node) *node {
	x := y.left
	t2 := x.right
	x.right = y
	y.left = t2
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	t2 := y.left
	y.left = x
	x.right = t2
	fix(x)
	fix(y)
	return y
}

// idPriority derives a heap priority from the record ID so the tree shape is
// reproducible for the same contents.
func idPriority(id string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	return h.Sum64()
}

func insert(n *node, k key) *node {
	if n == nil {
		return &node{key: k, prio: idPriority(k.id), size: 1}
	}
	if less(k, n.key) {
		n.left = insert(n.left, k)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, k)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, k key) *node {
	if n == nil {
		return nil
	}
	switch {
	case n.key.id == k.id:
		// Rotate the higher-priority child up until the node is a leaf.
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, k)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, k)
		}
	case less(k, n.key):
		n.left = deleteNode(n.left, k)
	default:
		n.right = deleteNode(n.right, k)
	}
	fix(n)
	return n
}

// position returns the zero-based in-order index of k.
func position(n *node, k key) int {
	pos := 0
	for n != nil {
		switch {
		case n.key.id == k.id:
			return pos + nsize(n.left)
		case less(k, n.key):
			n = n.left
		default:
			pos += nsize(n.left) + 1
			n = n.right
		}
	}
	return -1
}

// collectTopN appends up to limit records in rank order.
func collectTopN(n *node, limit int, byID map[string]model.Record, out *[]Entry) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, byID, out)
	if len(*out) < limit {
		if rec, ok := byID[n.key.id]; ok {
			*out = append(*out, Entry{Record: rec.Clone()})
		}
	}
	if len(*out) < limit {
		collectTopN(n.right, limit, byID, out)
	}
}

// TreapStore keeps records in a treap ordered by rank plus an ID index.
type TreapStore struct {
	mu    sync.RWMutex
	root  *node
	byID  map[string]model.Record
	newID func() string
}

// NewTreapStore constructs a treap store with configuration options.
func NewTreapStore(opts ...Option) *TreapStore {
	s := &TreapStore{
		byID:  make(map[string]model.Record),
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upsert implements Store.Upsert with O(log n) expected time per record.
func (s *TreapStore) Upsert(ctx context.Context, records ...model.Record) ([]model.Record, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("upsert: %w", err)
	}

	out := make([]model.Record, len(records))
	s.mu.Lock()
	for i := range records {
		rec := records[i].Clone()
		if rec.ID == "" {
			rec.ID = s.newID()
		}
		if old, ok := s.byID[rec.ID]; ok {
			s.root = deleteNode(s.root, keyOf(&old))
		}
		s.byID[rec.ID] = rec
		s.root = insert(s.root, keyOf(&rec))
		out[i] = rec.Clone()
	}
	count := len(s.byID)
	s.mu.Unlock()

	metrics.UpdateStoredRecords(count)
	return out, nil
}

// Get returns a copy of the record with id.
func (s *TreapStore) Get(ctx context.Context, id string) (model.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byID[id]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.Record{}, fmt.Errorf("get %q: %w", id, ErrNotFound)
	}
	return rec.Clone(), nil
}

// Rank returns the ranked entry for id in O(log n) plus the tie walk.
func (s *TreapStore) Rank(ctx context.Context, id string) (Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[id]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return Entry{}, fmt.Errorf("rank %q: %w", id, ErrNotFound)
	}

	// Ranks are dense over distinct scores, so walk the prefix.
	pos := position(s.root, keyOf(&rec))
	prefix := make([]Entry, 0, pos+1)
	collectTopN(s.root, pos+1, s.byID, &prefix)
	assignRanksWithTies(prefix)
	return prefix[len(prefix)-1], nil
}

// TopN returns the top n entries in rank order.
func (s *TreapStore) TopN(ctx context.Context, n int) ([]Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, fmt.Errorf("top %d: %w", n, ErrInvalidLimit)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0, min(n, len(s.byID)))
	collectTopN(s.root, n, s.byID, &out)
	assignRanksWithTies(out)
	return out, nil
}

// All returns every record in rank order.
func (s *TreapStore) All(ctx context.Context) []model.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]Entry, 0, len(s.byID))
	collectTopN(s.root, len(s.byID), s.byID, &entries)
	out := make([]model.Record, len(entries))
	for i, e := range entries {
		out[i] = e.Record
	}
	return out
}

// Count returns the total number of records.
func (s *TreapStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// assignRanksWithTies assigns dense ranks: records with the same overall
// score share a rank and the next score takes the next rank.
func assignRanksWithTies(entries []Entry) {
	rank := 0
	for i := range entries {
		if i == 0 || entries[i].Record.ScoreOverall != entries[i-1].Record.ScoreOverall {
			rank++
		}
		entries[i].Rank = rank
	}
}
