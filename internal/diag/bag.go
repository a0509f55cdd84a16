package diag

import (
	"cmp"
	"slices"
)

// Bag collects the diagnostics of one unit or of a whole build. It is not
// safe for concurrent use; parallel units each fill their own bag and the
// driver merges them.
type Bag struct {
	items   []Diagnostic
	limit   int
	dropped int
}

// NewBag returns a bag keeping at most limit diagnostics; limit <= 0 means
// no limit.
func NewBag(limit int) *Bag {
	return &Bag{limit: max(limit, 0)}
}

// Add keeps d unless the limit is reached. Fatal diagnostics are always
// kept: they explain why a unit produced nothing.
func (b *Bag) Add(d Diagnostic) bool {
	if b.limit > 0 && len(b.items) >= b.limit && d.Severity < SevFatal {
		b.dropped++
		return false
	}
	b.items = append(b.items, d)
	return true
}

func (b *Bag) Len() int { return len(b.items) }

// Dropped counts diagnostics rejected by the limit.
func (b *Bag) Dropped() int { return b.dropped }

// Items возвращает внутренний срез; не модифицировать.
func (b *Bag) Items() []Diagnostic { return b.items }

func (b *Bag) HasErrors() bool {
	return slices.ContainsFunc(b.items, func(d Diagnostic) bool { return d.Severity >= SevError })
}

// HasFatal reports whether a unit was abandoned.
func (b *Bag) HasFatal() bool {
	return slices.ContainsFunc(b.items, func(d Diagnostic) bool { return d.Severity == SevFatal })
}

// Merge moves everything from other into b. The limit of b does not apply:
// other already enforced its own.
func (b *Bag) Merge(other *Bag) {
	if other == nil {
		return
	}
	b.items = append(b.items, other.items...)
	b.dropped += other.dropped
}

// Sort orders session-wide diagnostics first, then by file and position;
// at the same span the more severe one comes first.
func (b *Bag) Sort() {
	slices.SortStableFunc(b.items, func(x, y Diagnostic) int {
		if x.Global != y.Global {
			if x.Global {
				return -1
			}
			return 1
		}
		return cmp.Or(
			cmp.Compare(x.Primary.File, y.Primary.File),
			cmp.Compare(x.Primary.Start, y.Primary.Start),
			cmp.Compare(x.Primary.End, y.Primary.End),
			cmp.Compare(y.Severity, x.Severity),
			cmp.Compare(x.Code, y.Code),
		)
	})
}
