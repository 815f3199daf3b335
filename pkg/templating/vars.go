package templating

import (
	"sort"
	"strings"
)

// VariableSet is an ordered set of "@key" to value substitutions.
// The zero value is ready to use. A VariableSet is not safe for concurrent
// mutation.
type VariableSet struct {
	keys   []string
	values map[string]string
}

// NewVariableSet returns an empty VariableSet.
func NewVariableSet() *VariableSet {
	return &VariableSet{values: map[string]string{}}
}

// Set stores value under key. An existing key keeps its insertion position.
func (v *VariableSet) Set(key, value string) {
	if key == "" {
		return
	}
	if v.values == nil {
		v.values = map[string]string{}
	}
	if _, ok := v.values[key]; !ok {
		v.keys = append(v.keys, key)
	}
	v.values[key] = value
}

// SetDefault stores value only when key is not set yet.
func (v *VariableSet) SetDefault(key, value string) {
	if _, ok := v.values[key]; ok {
		return
	}
	v.Set(key, value)
}

// Get returns the value stored under key.
func (v *VariableSet) Get(key string) (string, bool) {
	val, ok := v.values[key]
	return val, ok
}

// Len returns the number of keys.
func (v *VariableSet) Len() int {
	return len(v.keys)
}

// Keys returns the keys in insertion order.
func (v *VariableSet) Keys() []string {
	return append([]string(nil), v.keys...)
}

// Merge copies every key of other into v, overriding existing values.
func (v *VariableSet) Merge(other *VariableSet) {
	if other == nil {
		return
	}
	for _, k := range other.keys {
		v.Set(k, other.values[k])
	}
}

// Clone returns an independent copy of v.
func (v *VariableSet) Clone() *VariableSet {
	c := &VariableSet{
		keys:   append([]string(nil), v.keys...),
		values: make(map[string]string, len(v.values)),
	}
	for k, val := range v.values {
		c.values[k] = val
	}
	return c
}

// Sorted returns the keys longest first. Keys of equal length keep their
// insertion order.
func (v *VariableSet) Sorted() []string {
	keys := v.Keys()
	sort.SliceStable(keys, func(i, j int) bool {
		return len(keys[i]) > len(keys[j])
	})
	return keys
}

// Apply substitutes every key in text in a single pass. Where several keys
// match at the same position the longest one wins, so "@page" never eats
// the front of "@page_name". Substituted values are not scanned again and
// unknown keys are left as they are.
func (v *VariableSet) Apply(text string) string {
	if len(v.keys) == 0 {
		return text
	}
	keys := v.Sorted()
	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, k, v.values[k])
	}
	return strings.NewReplacer(pairs...).Replace(text)
}
