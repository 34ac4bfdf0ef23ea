// Package normalize extracts image URLs from the loosely shaped JSON payloads
// returned by the generation API.
//
// Four shapes are recognised and tried in this order, first match wins:
//
//	{"result_url": "https://..."}
//	{"result_urls": ["https://...", ...]}
//	{"urls": ["https://...", ...]}
//	{"result": [{"urls": ["https://..."]}, ["https://..."], ...]}
//
// A shape only matches when it yields at least one non-empty string, so an
// empty or mistyped value falls through to the next shape.
package normalize

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoImageURL is returned by callers when none of the known shapes matched.
var ErrNoImageURL = errors.New("normalize: no image url in response")

// Kind tags the variant held by a Result.
type Kind int

const (
	KindNotFound Kind = iota
	KindSingle
	KindMulti
)

func (k Kind) String() string {
	switch k {
	case KindSingle:
		return "single"
	case KindMulti:
		return "multi"
	default:
		return "not_found"
	}
}

// Result is the outcome of Extract. URL is set for KindSingle, URLs for KindMulti.
type Result struct {
	Kind Kind
	URL  string
	URLs []string
}

// Found reports whether any URL was extracted.
func (r Result) Found() bool { return r.Kind != KindNotFound }

// All returns every extracted URL regardless of kind.
func (r Result) All() []string {
	switch r.Kind {
	case KindSingle:
		return []string{r.URL}
	case KindMulti:
		return r.URLs
	default:
		return nil
	}
}

// ExtractURL returns the single URL a synchronous operation produced.
func ExtractURL(resp map[string]any) (string, bool) {
	if resp == nil {
		return "", false
	}
	if s := nonEmptyString(resp["result_url"]); s != "" {
		return s, true
	}
	for _, key := range []string{"result_urls", "urls"} {
		if urls := stringList(resp[key], 1); len(urls) > 0 {
			return urls[0], true
		}
	}
	entries, _ := resp["result"].([]any)
	for _, entry := range entries {
		if urls := entryURLs(entry, 1); len(urls) > 0 {
			return urls[0], true
		}
	}
	return "", false
}

// ExtractURLs returns at most limit URLs in input order. A limit of zero or
// less means no limit.
func ExtractURLs(resp map[string]any, limit int) []string {
	if resp == nil {
		return nil
	}
	if s := nonEmptyString(resp["result_url"]); s != "" {
		return []string{s}
	}
	for _, key := range []string{"result_urls", "urls"} {
		if urls := stringList(resp[key], limit); len(urls) > 0 {
			return urls
		}
	}
	entries, _ := resp["result"].([]any)
	var out []string
	for _, entry := range entries {
		remaining := 0
		if limit > 0 {
			remaining = limit - len(out)
		}
		out = append(out, entryURLs(entry, remaining)...)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// Extract tags the response as a single URL, several URLs or nothing.
// A payload carrying result_url is always single.
func Extract(resp map[string]any, limit int) Result {
	if s := nonEmptyString(resp["result_url"]); s != "" {
		return Result{Kind: KindSingle, URL: s}
	}
	urls := ExtractURLs(resp, limit)
	switch len(urls) {
	case 0:
		return Result{Kind: KindNotFound}
	case 1:
		return Result{Kind: KindSingle, URL: urls[0]}
	default:
		return Result{Kind: KindMulti, URLs: urls}
	}
}

// Decode parses a response body into a generic map. Numbers stay json.Number
// so large seeds survive; a top-level array is wrapped as {"result": [...]}.
func Decode(raw []byte) (map[string]any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return map[string]any{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("normalize: decode response: %w", err)
	}
	switch t := v.(type) {
	case map[string]any:
		return t, nil
	case []any:
		return map[string]any{"result": t}, nil
	default:
		return nil, fmt.Errorf("normalize: unexpected response type %T", v)
	}
}

// MissError wraps ErrNoImageURL with a dump of the offending payload.
func MissError(resp map[string]any) error {
	dump, err := json.Marshal(resp)
	if err != nil {
		dump = []byte(fmt.Sprintf("%v", resp))
	}
	return fmt.Errorf("%w: %s", ErrNoImageURL, truncate(string(dump), 2048))
}

func entryURLs(entry any, limit int) []string {
	switch e := entry.(type) {
	case map[string]any:
		return stringList(e["urls"], limit)
	case []any:
		return stringList(e, limit)
	default:
		return nil
	}
}

func stringList(v any, limit int) []string {
	var items []any
	switch t := v.(type) {
	case []any:
		items = t
	case []string:
		items = make([]any, len(t))
		for i, s := range t {
			items[i] = s
		}
	default:
		return nil
	}
	var out []string
	for _, item := range items {
		if s := nonEmptyString(item); s != "" {
			out = append(out, s)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out
}

func nonEmptyString(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
