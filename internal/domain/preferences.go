package domain

// Preferences are per-user UI defaults.
type Preferences struct {
	DefaultStyle       string `json:"default_style"`
	DefaultAspectRatio string `json:"default_aspect_ratio"`
	Theme              string `json:"theme"`
	AutoSave           bool   `json:"auto_save"`
}

// DefaultPreferences is returned whenever stored preferences are unavailable.
func DefaultPreferences() Preferences {
	return Preferences{
		DefaultStyle:       "Realistic",
		DefaultAspectRatio: "1:1",
		Theme:              "dark",
		AutoSave:           true,
	}
}
