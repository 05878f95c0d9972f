package dedupe

import (
	"net/url"
	"strings"
	"unicode"

	model "github.com/okian/eventrank/internal/domain/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// trackingParams are query parameters that never change which page a URL names.
var trackingParams = map[string]struct{}{ //nolint:gochecknoglobals // read-only lookup table
	"fbclid": {},
	"gclid":  {},
	"mc_cid": {},
	"mc_eid": {},
	"ref":    {},
}

func isTrackingParam(key string) bool {
	key = strings.ToLower(key)
	if strings.HasPrefix(key, "utm_") {
		return true
	}
	_, ok := trackingParams[key]
	return ok
}

// NormalizeURL returns the comparison key for a record URL: scheme and host
// lower-cased, fragment and tracking parameters dropped, remaining query
// parameters sorted and the trailing slash removed. Paths keep their case.
// A bare "host/path" is treated as a URL without a scheme. Unparseable input
// falls back to a trimmed, lower-cased string.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if (err != nil || u.Host == "") && !strings.Contains(raw, "://") && !strings.HasPrefix(raw, "//") {
		u, err = url.Parse("//" + raw)
	}
	if err != nil || u.Host == "" {
		return strings.TrimRight(strings.ToLower(raw), "/")
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""

	q := u.Query()
	for k := range q {
		if isTrackingParam(k) {
			q.Del(k)
		}
	}
	u.RawQuery = q.Encode()
	u.ForceQuery = false

	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""

	return strings.TrimPrefix(u.String(), "//")
}

// NormalizeName folds a display name to its comparison form: accents removed,
// case folded, punctuation dropped and whitespace collapsed.
func NormalizeName(name string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), cases.Fold(), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = strings.ToLower(name)
	}

	var b strings.Builder
	b.Grow(len(folded))
	gap := false
	for _, r := range folded {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			gap = true
			continue
		}
		if gap && b.Len() > 0 {
			b.WriteByte(' ')
		}
		gap = false
		b.WriteRune(r)
	}
	return b.String()
}

// NameDateKey combines the normalized name with the start date. It is empty
// when either part is absent.
func NameDateKey(r *model.Record) string {
	name := NormalizeName(r.Name)
	if name == "" || r.StartDate.IsZero() {
		return ""
	}
	return name + "|" + r.StartDate.String()
}
