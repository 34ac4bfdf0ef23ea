package session

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectStateRoundTrip(t *testing.T) {
	src := New("src", "")
	src.SetResult("http://current")
	src.GeneratedImages = []string{"http://g1", "http://g2"}
	src.RecordHistory("http://g1", "generate", "lamp", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	src.OriginalPrompt = "lamp"
	src.EnhancedPrompt = "a warm lamp"
	src.SetValue(KeySelectedStyle, "Anime")
	src.SetValue(KeySeed, 42)
	src.SetValue(KeyGuidanceScale, 7.5)
	src.SetValue(KeyRefinementSteps, 30)
	src.SetValue("theme_color", "#ff0000")

	data := src.ProjectState()
	assert.NotContains(t, data, "theme_color")
	assert.Len(t, data, len(ProjectKeys))

	// Persisted projects come back through JSON.
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))

	dst := New("dst", "")
	dst.RestoreProjectState(decoded)
	assert.Equal(t, "http://current", dst.EditedImage)
	assert.Equal(t, src.GeneratedImages, dst.GeneratedImages)
	assert.Equal(t, src.ImageHistory, dst.ImageHistory)
	assert.Equal(t, 1, dst.GenerationCount)
	assert.Equal(t, "lamp", dst.OriginalPrompt)
	assert.Equal(t, "a warm lamp", dst.EnhancedPrompt)
	assert.Equal(t, "Anime", dst.Values[KeySelectedStyle])
	assert.Equal(t, 42, dst.Values[KeySeed])
	assert.Equal(t, 30, dst.Values[KeyRefinementSteps])
	assert.Equal(t, 7.5, dst.Values[KeyGuidanceScale])
}

func TestProjectStateDropsNonSerializable(t *testing.T) {
	st := New("s", "")
	st.SetValue(KeyGuidanceScale, make(chan int))
	st.SetValue(KeySelectedStyle, map[string]any{"nested": func() {}})

	data := st.ProjectState()
	assert.NotContains(t, data, KeyGuidanceScale)
	assert.NotContains(t, data, KeySelectedStyle)
	assert.Contains(t, data, KeySeed)

	restored := New("r", "")
	delete(restored.Values, KeyGuidanceScale)
	restored.RestoreProjectState(data)
	_, ok := restored.Value(KeyGuidanceScale)
	assert.False(t, ok)
}

func TestRestoreProjectStateWritesUnknownKeys(t *testing.T) {
	st := New("s", "")
	st.RestoreProjectState(map[string]any{
		"custom_flag":      true,
		KeyGenerationCount: json.Number("12"),
		KeySeed:            "9",
	})
	assert.Equal(t, true, st.Values["custom_flag"])
	assert.Equal(t, 12, st.GenerationCount)
	assert.Equal(t, 9, st.Values[KeySeed])
}

func TestRestoreProjectStateDropsOutOfRangeNumbers(t *testing.T) {
	st := New("s", "")
	st.GenerationCount = 3
	st.SetValue(KeySeed, 7)
	st.SetValue(KeyRefinementSteps, 20)

	st.RestoreProjectState(map[string]any{
		KeySeed:            1e300,
		KeyRefinementSteps: json.Number("1e30"),
		KeyGenerationCount: json.Number("99999999999999999999"),
	})
	assert.Equal(t, 7, st.Values[KeySeed])
	assert.Equal(t, 20, st.Values[KeyRefinementSteps])
	assert.Equal(t, 3, st.GenerationCount)

	st.RestoreProjectState(map[string]any{KeySeed: -12.0})
	assert.Equal(t, -12, st.Values[KeySeed])
}
