package dedupe

import (
	model "github.com/okian/eventrank/internal/domain/model"
	"github.com/shopspring/decimal"
)

// field describes one mergeable Record attribute.
type field struct {
	name    string
	present func(r *model.Record) bool
	equal   func(a, b *model.Record) bool
	copy    func(dst, src *model.Record)
}

func stringField(name string, get func(*model.Record) *string) field {
	return field{
		name:    name,
		present: func(r *model.Record) bool { return *get(r) != "" },
		equal:   func(a, b *model.Record) bool { return *get(a) == *get(b) },
		copy:    func(dst, src *model.Record) { *get(dst) = *get(src) },
	}
}

func setField(name string, get func(*model.Record) *[]string) field {
	return field{
		name:    name,
		present: func(r *model.Record) bool { return *get(r) != nil },
		equal:   func(a, b *model.Record) bool { return model.SameSet(*get(a), *get(b)) },
		copy: func(dst, src *model.Record) {
			*get(dst) = append(make([]string, 0, len(*get(src))), *get(src)...)
		},
	}
}

func ptrField[T any](name string, get func(*model.Record) **T, eq func(a, b T) bool) field {
	return field{
		name:    name,
		present: func(r *model.Record) bool { return *get(r) != nil },
		equal: func(a, b *model.Record) bool {
			pa, pb := *get(a), *get(b)
			if pa == nil || pb == nil {
				return pa == pb
			}
			return eq(*pa, *pb)
		},
		copy: func(dst, src *model.Record) {
			v := **get(src)
			*get(dst) = &v
		},
	}
}

func same[T comparable](a, b T) bool { return a == b }

// mergeFields lists every attribute the merge policy considers, in log order.
var mergeFields = []field{ //nolint:gochecknoglobals // read-only field table
	{
		name:    "url",
		present: func(r *model.Record) bool { return r.URL != "" },
		equal:   func(a, b *model.Record) bool { return NormalizeURL(a.URL) == NormalizeURL(b.URL) },
		copy:    func(dst, src *model.Record) { dst.URL = src.URL },
	},
	stringField("name", func(r *model.Record) *string { return &r.Name }),
	{
		name:    "startDate",
		present: func(r *model.Record) bool { return !r.StartDate.IsZero() },
		equal:   func(a, b *model.Record) bool { return a.StartDate.Equal(b.StartDate) },
		copy:    func(dst, src *model.Record) { dst.StartDate = src.StartDate },
	},
	ptrField("endDate", func(r *model.Record) **model.Date { return &r.EndDate }, model.Date.Equal),
	stringField("location", func(r *model.Record) *string { return &r.Location }),
	stringField("organiser", func(r *model.Record) *string { return &r.Organiser }),
	stringField("type", func(r *model.Record) *string { return &r.Type }),
	stringField("source", func(r *model.Record) *string { return &r.Source }),
	setField("topics", func(r *model.Record) *[]string { return &r.Topics }),
	setField("sectors", func(r *model.Record) *[]string { return &r.Sectors }),
	setField("icpRoles", func(r *model.Record) *[]string { return &r.ICPRoles }),
	ptrField("attendanceClaimed", func(r *model.Record) **int { return &r.AttendanceClaimed }, same[int]),
	ptrField("attendanceLastYear", func(r *model.Record) **int { return &r.AttendanceLastYear }, same[int]),
	setField("competitorsPresent", func(r *model.Record) *[]string { return &r.CompetitorsPresent }),
	stringField("competitorEvidence", func(r *model.Record) *string { return &r.CompetitorEvidence }),
	ptrField("seniorityIndicator", func(r *model.Record) **bool { return &r.SeniorityIndicator }, same[bool]),
	ptrField("speakingOpportunity", func(r *model.Record) **bool { return &r.SpeakingOpportunity }, same[bool]),
	ptrField("speakingSlotConfirmed", func(r *model.Record) **bool { return &r.SpeakingSlotConfirmed }, same[bool]),
	setField("agendaTopics", func(r *model.Record) *[]string { return &r.AgendaTopics }),
	ptrField("cfpDeadline", func(r *model.Record) **model.Date { return &r.CFPDeadline }, model.Date.Equal),
	ptrField("priceStandEstimate", func(r *model.Record) **decimal.Decimal { return &r.PriceStandEstimate }, decimal.Decimal.Equal),
	ptrField("dateConflict", func(r *model.Record) **bool { return &r.DateConflict }, same[bool]),
}

// merge overwrites dst with every present src value and returns the names of
// the fields whose value changed.
func merge(dst *model.Record, src *model.Record) []string {
	var changed []string
	for _, f := range mergeFields {
		if !f.present(src) || f.equal(dst, src) {
			continue
		}
		f.copy(dst, src)
		changed = append(changed, f.name)
	}
	return changed
}

// diff returns the names of the fields that differ between a and b.
func diff(a, b *model.Record) []string {
	var changed []string
	for _, f := range mergeFields {
		if !f.equal(a, b) {
			changed = append(changed, f.name)
		}
	}
	return changed
}
