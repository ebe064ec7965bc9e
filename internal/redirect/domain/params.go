package domain

import (
	"net/url"
	"strings"
)

// Params is an insertion-ordered string to string mapping. Setting an existing key replaces its
// value in place, so the first position of a key is kept while the latest value wins.
// The zero value is an empty, usable Params.
type Params struct {
	keys   []string
	values map[string]string
}

// ParamsOf builds Params from alternating key/value pairs.
func ParamsOf(kv ...string) Params {
	var p Params
	for i := 0; i+1 < len(kv); i += 2 {
		p.Set(kv[i], kv[i+1])
	}
	return p
}

// ParseQuery decodes a raw query string preserving key order. When a key repeats, its first
// value is kept. Malformed pairs are skipped and the first decoding error is returned alongside
// whatever could be parsed.
func ParseQuery(rawQuery string) (Params, error) {
	var (
		p        Params
		firstErr error
	)
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if _, exists := p.Get(key); exists {
			continue
		}
		p.Set(key, value)
	}
	return p, firstErr
}

func (p *Params) Set(key, value string) {
	if p.values == nil {
		p.values = make(map[string]string)
	}
	if _, exists := p.values[key]; !exists {
		p.keys = append(p.keys, key)
	}
	p.values[key] = value
}

func (p Params) Get(key string) (string, bool) {
	v, ok := p.values[key]
	return v, ok
}

func (p Params) Len() int {
	return len(p.keys)
}

// Keys returns the keys in insertion order.
func (p Params) Keys() []string {
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

func (p Params) Each(fn func(key, value string)) {
	for _, k := range p.keys {
		fn(k, p.values[k])
	}
}

func (p Params) Clone() Params {
	var out Params
	p.Each(out.Set)
	return out
}

// Merge layers other on top of p: keys present in other overwrite p's values.
func (p *Params) Merge(other Params) {
	other.Each(p.Set)
}

// Equal reports whether both mappings hold the same keys, values and order.
func (p Params) Equal(other Params) bool {
	if len(p.keys) != len(other.keys) {
		return false
	}
	for i, k := range p.keys {
		if other.keys[i] != k || other.values[k] != p.values[k] {
			return false
		}
	}
	return true
}

// Encode renders the mapping as a URL query string in insertion order.
func (p Params) Encode() string {
	var b strings.Builder
	for i, k := range p.keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.values[k]))
	}
	return b.String()
}
