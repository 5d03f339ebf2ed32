package ledger

import (
	"cmp"
	"math"
	"slices"
	"strconv"
	"strings"
)

const (
	proxyKeyPrefix    = "proxy_"
	activityKeyPrefix = "activity_"

	// Keys written by the legacy front-end.
	legacyProxyKeyPrefix    = "poder_"
	legacyActivityKeyPrefix = "actividad_"
)

var (
	proxyKeyPrefixes    = []string{proxyKeyPrefix, legacyProxyKeyPrefix}
	activityKeyPrefixes = []string{activityKeyPrefix, legacyActivityKeyPrefix}
)

// ProxyKey returns the key of the n-th slot ("proxy_n").
func ProxyKey(n int) string {
	return proxyKeyPrefix + strconv.Itoa(n)
}

// ActivityKey returns the key of the n-th activity ("activity_n").
func ActivityKey(n int) string {
	return activityKeyPrefix + strconv.Itoa(n)
}

// NumberedSlot is a slot paired with the key it was stored under. Keys may
// be malformed when they come from stored or imported data.
type NumberedSlot struct {
	Key  string
	Slot ProxySlot
}

// Renumber orders entries by the integer suffix of their keys and returns
// them as a contiguous set keyed proxy_1..proxy_N. Legacy poder_N keys
// count as well formed. Malformed keys sort after every well-formed one,
// keeping their relative order. Every slot mutation goes through here.
func Renumber(entries []NumberedSlot) ProxySlotSet {
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b NumberedSlot) int {
		return cmp.Compare(sortIndex(a.Key, proxyKeyPrefixes), sortIndex(b.Key, proxyKeyPrefixes))
	})

	slots := make([]ProxySlot, 0, len(sorted))
	for _, e := range sorted {
		slots = append(slots, e.Slot)
	}
	return newProxySlotSet(slots)
}

// keyIndex parses the decimal suffix of key after the first matching prefix.
func keyIndex(key string, prefixes []string) (int, bool) {
	var digits string
	for _, prefix := range prefixes {
		if d, ok := strings.CutPrefix(key, prefix); ok {
			digits = d
			break
		}
	}
	if digits == "" {
		return 0, false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

func sortIndex(key string, prefixes []string) int {
	if n, ok := keyIndex(key, prefixes); ok {
		return n
	}
	return math.MaxInt
}
