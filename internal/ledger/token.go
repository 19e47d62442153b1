package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

// DefaultMaxTokenBytes bounds the size of a token accepted by Parse. Browsers
// cap a single cookie at roughly 4KB.
const DefaultMaxTokenBytes = 4096

var (
	ErrInvalidToken  = errors.New("invalid cart token")
	ErrTokenTooLarge = fmt.Errorf("%w: token exceeds size limit", ErrInvalidToken)
)

type wireEntry struct {
	ProductID *string  `json:"productId"`
	Count     *float64 `json:"count"`
}

// Parse decodes a token with the default size bound. See ParseLimit.
func Parse(token string) (Ledger, error) {
	return ParseLimit(token, DefaultMaxTokenBytes)
}

// ParseLimit decodes a token produced by Serialize. An empty token is an empty
// ledger. Any malformed token also yields an empty ledger, together with an
// error wrapping ErrInvalidToken so callers can log it.
func ParseLimit(token string, maxBytes int) (Ledger, error) {
	if token == "" {
		return Ledger{}, nil
	}
	if maxBytes > 0 && len(token) > maxBytes {
		return Ledger{}, ErrTokenTooLarge
	}

	var wire []wireEntry
	if err := json.Unmarshal([]byte(token), &wire); err != nil {
		return Ledger{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if len(wire) == 0 {
		return Ledger{}, fmt.Errorf("%w: no entries", ErrInvalidToken)
	}

	entries := make([]Entry, 0, len(wire))
	for i, w := range wire {
		if w.ProductID == nil || strings.TrimSpace(*w.ProductID) == "" {
			return Ledger{}, fmt.Errorf("%w: entry %d has no productId", ErrInvalidToken, i)
		}
		if w.Count == nil {
			return Ledger{}, fmt.Errorf("%w: entry %d has no count", ErrInvalidToken, i)
		}
		c := *w.Count
		if c != math.Trunc(c) || math.Abs(c) > math.MaxInt32 {
			return Ledger{}, fmt.Errorf("%w: entry %d count %v is not an integer", ErrInvalidToken, i, c)
		}
		entries = append(entries, Entry{ProductID: *w.ProductID, Count: int(c)})
	}

	return New(entries...), nil
}

// Serialize encodes a ledger as a compact JSON array. An empty ledger encodes
// to the empty string: an empty cart is stored as the absence of a token.
func Serialize(l Ledger) string {
	if l.IsEmpty() {
		return ""
	}
	b, err := json.Marshal(l.entries)
	if err != nil {
		return ""
	}
	return string(b)
}
