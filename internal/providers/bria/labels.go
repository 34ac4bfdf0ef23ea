package bria

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	lower = cases.Lower(language.English)
	title = cases.Title(language.English)
)

// PlacementLabel converts a UI label such as "Manual Placement" or
// "Upper Left" into the engine's snake_case value.
func PlacementLabel(label string) string {
	return strings.Join(strings.Fields(lower.String(strings.ReplaceAll(label, "_", " "))), "_")
}

// PlacementLabels converts every label and drops empty ones.
func PlacementLabels(labels []string) []string {
	var out []string
	for _, l := range labels {
		if v := PlacementLabel(l); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// DisplayLabel is the inverse of PlacementLabel: "manual_placement" becomes
// "Manual Placement".
func DisplayLabel(value string) string {
	return title.String(strings.Join(strings.Fields(strings.ReplaceAll(value, "_", " ")), " "))
}
