package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Statistics is an ordered mapping of display name to value. Keys are
// unique: Insert renames a colliding key by appending "+" until it is free.
// The zero value is ready to use.
type Statistics struct {
	keys   []string
	values map[string]decimal.Decimal
}

// StatisticEntry is one name/value pair of a Statistics map.
type StatisticEntry struct {
	Name  string
	Value decimal.Decimal
}

// NewStatistics returns an empty map.
func NewStatistics() *Statistics {
	return &Statistics{values: make(map[string]decimal.Decimal)}
}

// Insert adds value under name, appending "+" to name while it is taken.
// It returns the key actually used.
func (s *Statistics) Insert(name string, value decimal.Decimal) string {
	if s.values == nil {
		s.values = make(map[string]decimal.Decimal)
	}
	for {
		if _, taken := s.values[name]; !taken {
			break
		}
		name += "+"
	}
	s.keys = append(s.keys, name)
	s.values[name] = value
	return name
}

// Get returns the value stored under name.
func (s *Statistics) Get(name string) (decimal.Decimal, bool) {
	v, ok := s.values[name]
	return v, ok
}

// Len returns the number of entries.
func (s *Statistics) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

// Keys returns the keys in map order.
func (s *Statistics) Keys() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// Entries returns the entries in map order.
func (s *Statistics) Entries() []StatisticEntry {
	if s == nil {
		return nil
	}
	out := make([]StatisticEntry, 0, len(s.keys))
	for _, k := range s.keys {
		out = append(out, StatisticEntry{Name: k, Value: s.values[k]})
	}
	return out
}

// Sort orders the entries by key (ordinal comparison).
func (s *Statistics) Sort() {
	sort.Strings(s.keys)
}

// MarshalJSON writes the entries as a JSON object in map order.
func (s *Statistics) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range s.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(s.values[k].String())
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object, keeping document order.
func (s *Statistics) UnmarshalJSON(data []byte) error {
	*s = Statistics{values: make(map[string]decimal.Decimal)}
	return decodeOrderedObject(data, func(key string, raw json.RawMessage) error {
		var v decimal.Decimal
		if err := v.UnmarshalJSON(raw); err != nil {
			return fmt.Errorf("statistic %q: %w", key, err)
		}
		s.Insert(key, v)
		return nil
	})
}
