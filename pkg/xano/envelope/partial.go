package envelope

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Partial is a JSON object whose fields are either absent or present. Only
// present fields are serialized, so an update built from a Partial changes
// exactly the fields the caller supplied and never sends null for the rest.
// Fields serialize in the order they were first set.
type Partial struct {
	keys   []string
	values map[string]any
}

// NewPartial returns an empty Partial.
func NewPartial() *Partial {
	return &Partial{values: make(map[string]any)}
}

// Set marks key present with value v. Setting an existing key replaces its
// value and keeps its position.
func (p *Partial) Set(key string, v any) *Partial {
	if p.values == nil {
		p.values = make(map[string]any)
	}
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = v
	return p
}

// Delete marks key absent.
func (p *Partial) Delete(key string) {
	if _, ok := p.values[key]; !ok {
		return
	}
	delete(p.values, key)
	for i, k := range p.keys {
		if k == key {
			p.keys = append(p.keys[:i], p.keys[i+1:]...)
			break
		}
	}
}

// Get returns the value of a present key.
func (p *Partial) Get(key string) (any, bool) {
	v, ok := p.values[key]
	return v, ok
}

// Has reports whether key is present.
func (p *Partial) Has(key string) bool {
	_, ok := p.values[key]
	return ok
}

// Keys returns the present keys in serialization order.
func (p *Partial) Keys() []string {
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

// Len returns the number of present keys.
func (p *Partial) Len() int {
	return len(p.keys)
}

// MarshalJSON implements json.Marshaler.
func (p *Partial) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range p.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(p.values[k])
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Put sets key on p only when v is non-nil. It is the omit-if-absent helper
// for optional parameters modelled as pointers.
func Put[T any](p *Partial, key string, v *T) {
	if v != nil {
		p.Set(key, *v)
	}
}

// PutNonEmpty sets key on p only when v is not the empty string.
func PutNonEmpty(p *Partial, key, v string) {
	if v != "" {
		p.Set(key, v)
	}
}

// Condition is one opaque search condition. Its syntax is validated by the
// remote service, not here.
type Condition = map[string]any

// Search returns the body shared by every search-style operation:
// {"page":…, "per_page":…, "search":[…], "sort":{…}}. "search" is always
// present (empty when no conditions are given); "sort" only when set.
func Search(page, perPage int, conditions []Condition, sort map[string]string) *Partial {
	if conditions == nil {
		conditions = []Condition{}
	}
	p := NewPartial().
		Set("page", page).
		Set("per_page", perPage).
		Set("search", conditions)
	if len(sort) > 0 {
		p.Set("sort", sort)
	}
	return p
}
