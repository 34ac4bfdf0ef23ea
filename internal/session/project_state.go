package session

import (
	"encoding/json"
	"math"
	"strconv"
)

// Project state keys. Typed keys map to State fields, the rest live in Values.
const (
	KeyCurrentImageURL = "current_image_url"
	KeyGeneratedImages = "generated_images"
	KeyImageHistory    = "image_history"
	KeyGenerationCount = "generation_count"
	KeyCurrentPrompt   = "current_prompt"
	KeyEnhancedPrompt  = "enhanced_prompt"
	KeySelectedStyle   = "selected_style"
	KeySelectedAspect  = "selected_aspect_ratio"
	KeySeed            = "seed"
	KeyRefinementSteps = "refinement_steps"
	KeyGuidanceScale   = "guidance_scale"
)

// ProjectKeys lists what a saved project captures, in order.
var ProjectKeys = []string{
	KeyCurrentImageURL,
	KeyGeneratedImages,
	KeyImageHistory,
	KeyGenerationCount,
	KeyCurrentPrompt,
	KeyEnhancedPrompt,
	KeySelectedStyle,
	KeySelectedAspect,
	KeySeed,
	KeyRefinementSteps,
	KeyGuidanceScale,
}

// ProjectState snapshots the whitelisted keys. Values that are not plain data
// (strings, numbers, bools, nil, lists and string-keyed maps of those) are
// left out.
func (s *State) ProjectState() map[string]any {
	out := make(map[string]any, len(ProjectKeys))
	for _, key := range ProjectKeys {
		v, ok := s.projectValue(key)
		if !ok || !isPlain(v) {
			continue
		}
		out[key] = v
	}
	return out
}

func (s *State) projectValue(key string) (any, bool) {
	switch key {
	case KeyCurrentImageURL:
		return s.EditedImage, true
	case KeyGeneratedImages:
		return append([]string{}, s.GeneratedImages...), true
	case KeyImageHistory:
		entries := make([]any, 0, len(s.ImageHistory))
		for _, h := range s.ImageHistory {
			entries = append(entries, map[string]any{
				"url":       h.URL,
				"type":      h.Type,
				"prompt":    h.Prompt,
				"timestamp": h.Timestamp,
			})
		}
		return entries, true
	case KeyGenerationCount:
		return s.GenerationCount, true
	case KeyCurrentPrompt:
		return s.OriginalPrompt, true
	case KeyEnhancedPrompt:
		return s.EnhancedPrompt, true
	default:
		return s.Value(key)
	}
}

// RestoreProjectState writes every key of data back into the session.
// Typed keys are converted to their field types; anything else, including
// unknown keys, lands in Values unchanged.
func (s *State) RestoreProjectState(data map[string]any) {
	for key, v := range data {
		switch key {
		case KeyCurrentImageURL:
			s.EditedImage, _ = v.(string)
		case KeyGeneratedImages:
			s.GeneratedImages = toStrings(v)
		case KeyImageHistory:
			s.ImageHistory = toHistory(v)
		case KeyGenerationCount:
			if n, ok := toInt(v); ok {
				s.GenerationCount = n
			}
		case KeyCurrentPrompt:
			s.OriginalPrompt, _ = v.(string)
		case KeyEnhancedPrompt:
			s.EnhancedPrompt, _ = v.(string)
		case KeySeed, KeyRefinementSteps:
			if n, ok := toInt(v); ok {
				s.SetValue(key, n)
			}
		default:
			s.SetValue(key, v)
		}
	}
}

func isPlain(v any) bool {
	switch t := v.(type) {
	case nil, string, bool, json.Number,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32:
		return true
	case float64:
		return !math.IsNaN(t) && !math.IsInf(t, 0)
	case []string:
		return true
	case []any:
		for _, item := range t {
			if !isPlain(item) {
				return false
			}
		}
		return true
	case map[string]any:
		for _, item := range t {
			if !isPlain(item) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func toStrings(v any) []string {
	out := []string{}
	switch t := v.(type) {
	case []string:
		out = append(out, t...)
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
	}
	return out
}

func toHistory(v any) []HistoryEntry {
	out := []HistoryEntry{}
	switch t := v.(type) {
	case []HistoryEntry:
		out = append(out, t...)
	case []any:
		for _, item := range t {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			entry := HistoryEntry{}
			entry.URL, _ = m["url"].(string)
			entry.Type, _ = m["type"].(string)
			entry.Prompt, _ = m["prompt"].(string)
			entry.Timestamp, _ = m["timestamp"].(string)
			out = append(out, entry)
		}
	}
	return out
}

// toInt converts a restored number. It reports false for values outside the
// int range and for anything that is not a number.
func toInt(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return intFrom64(t)
	case float64:
		return intFromFloat(t)
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return intFrom64(i)
		}
		if f, err := t.Float64(); err == nil {
			return intFromFloat(f)
		}
	case string:
		if i, err := strconv.Atoi(t); err == nil {
			return i, true
		}
	}
	return 0, false
}

func intFrom64(i int64) (int, bool) {
	if i < math.MinInt || i > math.MaxInt {
		return 0, false
	}
	return int(i), true
}

func intFromFloat(f float64) (int, bool) {
	if math.IsNaN(f) || f < math.MinInt || f >= math.MaxInt {
		return 0, false
	}
	return int(f), true
}
