package usecase

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"quantum-redirect/internal/redirect/domain"
)

const (
	ParamClickID   = "quantum_click_id"
	ParamVerified  = "quantum_verified"
	ParamTimestamp = "quantum_timestamp"
)

// quantumMetadata returns the verification parameters appended to every final URL.
func quantumMetadata(clickID string, at time.Time) domain.Params {
	return domain.ParamsOf(
		ParamClickID, clickID,
		ParamVerified, "true",
		ParamTimestamp, strconv.FormatInt(at.Unix(), 10),
	)
}

// BuildFinalURL layers query parameters onto destination, lowest priority first: tracking
// defaults, the destination's own query, quantum metadata, then the caller's original
// parameters. A key from a higher layer always replaces the same key from a lower one, so
// original parameters reach the destination untouched. Destination pairs whose key no higher
// layer sets are kept exactly as written, repeats included.
func BuildFinalURL(destination string, defaults, metadata, original domain.Params) (string, error) {
	u, err := url.Parse(destination)
	if err != nil {
		return "", fmt.Errorf("parse destination: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("parse destination: %q is not absolute", destination)
	}

	var q layeredQuery
	q.setParams(defaults)
	if err := q.setRaw(u.RawQuery); err != nil {
		return "", fmt.Errorf("parse destination query: %w", err)
	}
	q.setParams(metadata)
	q.setParams(original)

	u.RawQuery = q.encode()
	u.ForceQuery = false
	return u.String(), nil
}

// layeredQuery maps each decoded key to its encoded pairs. Replacing a key keeps the position
// of its first appearance.
type layeredQuery struct {
	keys  []string
	pairs map[string][]string
}

func (q *layeredQuery) set(key string, pairs []string) {
	if q.pairs == nil {
		q.pairs = make(map[string][]string)
	}
	if _, exists := q.pairs[key]; !exists {
		q.keys = append(q.keys, key)
	}
	q.pairs[key] = pairs
}

func (q *layeredQuery) setParams(p domain.Params) {
	p.Each(func(k, v string) {
		q.set(k, []string{url.QueryEscape(k) + "=" + url.QueryEscape(v)})
	})
}

// setRaw applies a raw query as a single layer: all pairs sharing a key replace that key as a
// group, in their original order and encoding.
func (q *layeredQuery) setRaw(rawQuery string) error {
	var (
		order  []string
		groups = make(map[string][]string)
	)
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return err
		}
		if _, err := url.QueryUnescape(rawValue); err != nil {
			return err
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], pair)
	}
	for _, key := range order {
		q.set(key, groups[key])
	}
	return nil
}

func (q *layeredQuery) encode() string {
	var out []string
	for _, k := range q.keys {
		out = append(out, q.pairs[k]...)
	}
	return strings.Join(out, "&")
}
