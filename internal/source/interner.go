package source

import "errors"

var errRestoreTable = errors.New("source: malformed string table")

// StringID is a stable handle for an interned string.
type StringID uint32

// NoStringID maps to the empty string.
const NoStringID StringID = 0

// Interner deduplicates strings and hands out stable IDs.
type Interner struct {
	byID  []string
	index map[string]StringID
}

func NewInterner() *Interner {
	return &Interner{
		byID:  []string{""},
		index: map[string]StringID{"": 0},
	}
}

// Intern returns the ID for s, allocating one if needed.
func (i *Interner) Intern(s string) StringID {
	if id, ok := i.index[s]; ok {
		return id
	}
	// Copy so the interner does not pin the caller's backing buffer.
	cpy := string([]byte(s))
	id := StringID(len(i.byID))
	i.byID = append(i.byID, cpy)
	i.index[cpy] = id
	return id
}

// Lookup returns the string for id, or "" and false for an unknown ID.
func (i *Interner) Lookup(id StringID) (string, bool) {
	if int(id) >= len(i.byID) {
		return "", false
	}
	return i.byID[id], true
}

// MustLookup panics when id is invalid.
func (i *Interner) MustLookup(id StringID) string {
	s, ok := i.Lookup(id)
	if !ok {
		panic("source: invalid string ID")
	}
	return s
}

// Len reports how many strings are interned, including the empty string.
func (i *Interner) Len() int {
	return len(i.byID)
}

// All returns every interned string in ID order. The slice is a copy.
func (i *Interner) All() []string {
	return append([]string(nil), i.byID...)
}

// Restore rebuilds an interner whose table matches strs exactly, so IDs
// recorded elsewhere stay valid. Slot 0 must hold the empty string.
func Restore(strs []string) (*Interner, error) {
	if len(strs) == 0 || strs[0] != "" {
		return nil, errRestoreTable
	}
	in := &Interner{
		byID:  append([]string(nil), strs...),
		index: make(map[string]StringID, len(strs)),
	}
	for id, s := range in.byID {
		if _, dup := in.index[s]; dup {
			return nil, errRestoreTable
		}
		in.index[s] = StringID(id) //nolint:gosec // G115: bounded by table length
	}
	return in, nil
}
