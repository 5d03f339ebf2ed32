package ledger

import (
	"bytes"
	"encoding/json"
	"slices"
)

// Activity kinds written by this service.
const (
	KindEntry   = "entry"
	KindReEntry = "re-entry"
	KindExit    = "exit"
)

// Kind spellings written by the legacy front-end.
var kindAliases = map[string]string{
	"ingreso":   KindEntry,
	"reingreso": KindReEntry,
	"salida":    KindExit,
}

// CanonicalKind folds kind and maps legacy spellings onto the service's
// kinds. Unknown kinds come back folded.
func CanonicalKind(kind string) string {
	k := Fold(kind)
	if alias, ok := kindAliases[k]; ok {
		return alias
	}
	return k
}

// IsArrival reports whether kind puts the attendee in the room.
func IsArrival(kind string) bool {
	switch CanonicalKind(kind) {
	case KindEntry, KindReEntry:
		return true
	}
	return false
}

// Activity is one entry of an EntryLog. Time is the free-text clock string
// captured at the door, e.g. "9:05AM".
type Activity struct {
	Kind string `json:"kind"`
	Time string `json:"time"`
}

// UnmarshalJSON also accepts the legacy "tipo"/"hora" field names.
func (a *Activity) UnmarshalJSON(data []byte) error {
	var raw struct {
		Kind string `json:"kind"`
		Time string `json:"time"`
		Tipo string `json:"tipo"`
		Hora string `json:"hora"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*a = Activity{
		Kind: firstNonEmpty(raw.Kind, raw.Tipo),
		Time: firstNonEmpty(raw.Time, raw.Hora),
	}
	return nil
}

// LogEntry is an activity with the key it is stored under.
type LogEntry struct {
	Key      string
	Activity Activity
}

// EntryLog is the append-only, numbered log of a record's entries and
// exits. Keys read from storage are kept verbatim, so a log may carry
// malformed keys; those never count as the latest activity.
type EntryLog struct {
	entries []LogEntry
}

// NewEntryLog numbers activities activity_1..activity_N in order.
func NewEntryLog(activities ...Activity) EntryLog {
	entries := make([]LogEntry, len(activities))
	for i, a := range activities {
		entries[i] = LogEntry{Key: ActivityKey(i + 1), Activity: a}
	}
	return EntryLog{entries: entries}
}

// Len returns the number of entries.
func (l EntryLog) Len() int {
	return len(l.entries)
}

// Entries returns a copy of the entries ordered by key number.
func (l EntryLog) Entries() []LogEntry {
	return slices.Clone(l.entries)
}

// Latest returns the activity with the highest well-formed number, even
// when its kind is blank. Entries with malformed keys are ignored.
func (l EntryLog) Latest() (Activity, bool) {
	best, found := -1, false
	var latest Activity
	for _, e := range l.entries {
		n, ok := keyIndex(e.Key, activityKeyPrefixes)
		if !ok {
			continue
		}
		if n > best {
			best, latest, found = n, e.Activity, true
		}
	}
	return latest, found
}

// Append adds a at the next number after the highest well-formed key.
func (l EntryLog) Append(a Activity) EntryLog {
	next := 1
	for _, e := range l.entries {
		if n, ok := keyIndex(e.Key, activityKeyPrefixes); ok && n >= next {
			next = n + 1
		}
	}
	entries := slices.Clone(l.entries)
	entries = append(entries, LogEntry{Key: ActivityKey(next), Activity: a})
	return EntryLog{entries: entries}
}

// MarshalJSON renders the log as an object keyed in numeric order.
func (l EntryLog) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range l.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(e.Activity)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object of activities keyed by any names. Values
// that are not objects are skipped.
func (l *EntryLog) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*l = EntryLog{}
		return nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	entries := make([]LogEntry, 0, len(raw))
	for _, key := range sortedKeys(raw, activityKeyPrefixes) {
		var a Activity
		if err := json.Unmarshal(raw[key], &a); err != nil {
			continue
		}
		entries = append(entries, LogEntry{Key: key, Activity: a})
	}
	*l = EntryLog{entries: entries}
	return nil
}
