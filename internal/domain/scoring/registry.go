package scoring

import (
	"strings"

	"golang.org/x/text/cases"
)

// Competitor is one known competitor and the keywords that identify it.
type Competitor struct {
	Name     string   `json:"name" koanf:"name"`
	Keywords []string `json:"keywords,omitempty" koanf:"keywords"`
}

type registryEntry struct {
	name     string
	key      string
	keywords []string
}

// Registry is a read-only set of known competitors. A nil Registry is empty.
type Registry struct {
	entries []registryEntry
}

// NewRegistry builds a registry. Entries without a name are skipped.
func NewRegistry(competitors ...Competitor) *Registry {
	r := &Registry{entries: make([]registryEntry, 0, len(competitors))}
	for _, c := range competitors {
		key := fold(c.Name)
		if key == "" {
			continue
		}
		e := registryEntry{name: strings.TrimSpace(c.Name), key: key}
		for _, kw := range c.Keywords {
			if kw = fold(kw); kw != "" {
				e.keywords = append(e.keywords, kw)
			}
		}
		r.entries = append(r.entries, e)
	}
	return r
}

// Len returns the number of competitors.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.entries)
}

// Names returns competitor names in registration order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.name
	}
	return out
}

// Lookup resolves a mention to a registered competitor name. A mention
// matches when it equals the competitor name or contains one of its keywords,
// ignoring case.
func (r *Registry) Lookup(mention string) (string, bool) {
	if r == nil {
		return "", false
	}
	m := fold(mention)
	if m == "" {
		return "", false
	}
	for _, e := range r.entries {
		if m == e.key {
			return e.name, true
		}
	}
	for _, e := range r.entries {
		for _, kw := range e.keywords {
			if strings.Contains(m, kw) {
				return e.name, true
			}
		}
	}
	return "", false
}

func fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}
