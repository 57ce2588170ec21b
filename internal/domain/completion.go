package domain

import "encoding/json"

// CompletionSet is an insertion-ordered set of completed lesson keys.
// The zero value is an empty, usable set.
type CompletionSet struct {
	keys  []string
	index map[string]struct{}
}

// NewCompletionSet builds a set from keys, dropping duplicates.
func NewCompletionSet(keys ...string) CompletionSet {
	var s CompletionSet
	for _, k := range keys {
		s.Add(k)
	}
	return s
}

// Add inserts key and reports whether the set grew.
func (s *CompletionSet) Add(key string) bool {
	if s.index == nil {
		s.index = make(map[string]struct{})
	}
	if _, ok := s.index[key]; ok {
		return false
	}
	s.index[key] = struct{}{}
	s.keys = append(s.keys, key)
	return true
}

// Has reports membership.
func (s CompletionSet) Has(key string) bool {
	_, ok := s.index[key]
	return ok
}

// Len is the number of completed lessons.
func (s CompletionSet) Len() int {
	return len(s.keys)
}

// Keys returns the keys in insertion order.
func (s CompletionSet) Keys() []string {
	return append([]string{}, s.keys...)
}

// Clone returns an independent copy.
func (s CompletionSet) Clone() CompletionSet {
	return NewCompletionSet(s.keys...)
}

func (s CompletionSet) MarshalJSON() ([]byte, error) {
	keys := s.keys
	if keys == nil {
		keys = []string{}
	}
	return json.Marshal(keys)
}

func (s *CompletionSet) UnmarshalJSON(data []byte) error {
	var keys []string
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	*s = NewCompletionSet(keys...)
	return nil
}
