package ledger

import (
	"math"
	"strings"
	"unicode/utf8"
)

// MaxCount is the largest quantity a single entry holds. Counts saturate at it.
const MaxCount = math.MaxInt32

// Entry is one product line of a cart ledger.
type Entry struct {
	ProductID string `json:"productId"`
	Count     int    `json:"count"`
}

// Ledger is an ordered productId -> count mapping. The zero value is an empty
// ledger. A Ledger is never modified in place; every operation returns a new one.
type Ledger struct {
	entries []Entry
}

// New builds a ledger from raw entries. Blank or non-UTF-8 ids and non-positive
// counts are dropped and repeated ids are merged into the first occurrence.
func New(entries ...Entry) Ledger {
	if len(entries) == 0 {
		return Ledger{}
	}

	out := make([]Entry, 0, len(entries))
	index := make(map[string]int, len(entries))
	for _, e := range entries {
		id, ok := normalizeID(e.ProductID)
		if !ok || e.Count <= 0 {
			continue
		}
		if i, ok := index[id]; ok {
			out[i].Count = addCount(out[i].Count, e.Count)
			continue
		}
		index[id] = len(out)
		out = append(out, Entry{ProductID: id, Count: min(e.Count, MaxCount)})
	}

	if len(out) == 0 {
		return Ledger{}
	}
	return Ledger{entries: out}
}

func (l Ledger) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l Ledger) Len() int { return len(l.entries) }

func (l Ledger) IsEmpty() bool { return len(l.entries) == 0 }

// Count returns the quantity held for productID, 0 when absent.
func (l Ledger) Count(productID string) int {
	if i := l.indexOf(productID); i >= 0 {
		return l.entries[i].Count
	}
	return 0
}

// ProductIDs returns the ids in ledger order.
func (l Ledger) ProductIDs() []string {
	ids := make([]string, len(l.entries))
	for i, e := range l.entries {
		ids[i] = e.ProductID
	}
	return ids
}

func (l Ledger) TotalCount() int {
	total := 0
	for _, e := range l.entries {
		total += e.Count
	}
	return total
}

// Equal reports whether both ledgers hold the same entries in the same order.
func (l Ledger) Equal(other Ledger) bool {
	if len(l.entries) != len(other.entries) {
		return false
	}
	for i := range l.entries {
		if l.entries[i] != other.entries[i] {
			return false
		}
	}
	return true
}

func (l Ledger) indexOf(productID string) int {
	for i, e := range l.entries {
		if e.ProductID == productID {
			return i
		}
	}
	return -1
}

// normalizeID trims id and reports whether it can be stored. Ids that are not
// valid UTF-8 would not survive JSON encoding unchanged.
func normalizeID(id string) (string, bool) {
	id = strings.TrimSpace(id)
	return id, id != "" && utf8.ValidString(id)
}

func addCount(a, b int) int {
	if b >= MaxCount-a {
		return MaxCount
	}
	return a + b
}
