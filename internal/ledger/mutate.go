package ledger

import "strings"

// Add increments the count for productID, inserting it with count 1 when absent.
// A count already at MaxCount stays there.
func Add(l Ledger, productID string) Ledger {
	productID, ok := normalizeID(productID)
	if !ok {
		return l
	}

	out := l.Entries()
	if i := l.indexOf(productID); i >= 0 {
		out[i].Count = addCount(out[i].Count, 1)
		return Ledger{entries: out}
	}
	return Ledger{entries: append(out, Entry{ProductID: productID, Count: 1})}
}

// Decrement lowers the count for productID by one and drops the entry once it
// would fall below 1. An absent id leaves the ledger unchanged.
func Decrement(l Ledger, productID string) Ledger {
	i := l.indexOf(strings.TrimSpace(productID))
	if i < 0 {
		return l
	}

	if l.entries[i].Count <= 1 {
		return without(l, i)
	}
	out := l.Entries()
	out[i].Count--
	return Ledger{entries: out}
}

// Remove drops productID regardless of its count.
func Remove(l Ledger, productID string) Ledger {
	i := l.indexOf(strings.TrimSpace(productID))
	if i < 0 {
		return l
	}
	return without(l, i)
}

func Clear(Ledger) Ledger { return Ledger{} }

func without(l Ledger, i int) Ledger {
	if len(l.entries) == 1 {
		return Ledger{}
	}
	out := make([]Entry, 0, len(l.entries)-1)
	out = append(out, l.entries[:i]...)
	out = append(out, l.entries[i+1:]...)
	return Ledger{entries: out}
}
