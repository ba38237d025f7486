package kicad

import (
	"strings"

	"github.com/chazu/fission/pkg/schema"
)

// connectorPatterns maps a connector family tag to the substrings
// that identify it in a footprint library name. The tag set is open:
// a footprint that merely contains "connector" decodes as family
// "Unknown" rather than being dropped.
var connectorPatterns = map[string][]string{
	"USB-C":      {"USB_C", "Type-C", "TypeC"},
	"USB-A":      {"USB_A", "Type-A", "TypeA"},
	"USB-Micro":  {"USB_Micro", "Micro_USB", "MicroUSB"},
	"USB-Mini":   {"USB_Mini", "Mini_USB", "MiniUSB"},
	"HDMI":       {"HDMI"},
	"RJ45":       {"RJ45", "8P8C"},
	"DC-Jack":    {"Jack_DC", "BarrelJack", "DC_Jack"},
	"Pin-Header": {"PinHeader", "Pin_Header"},
	"JST":        {"JST"},
	"SD-Card":    {"SD_Card", "microSD", "MicroSD"},
}

// defaultConnectorDimensions holds nominal body envelopes per family,
// used when the design file carries no 3-D model to measure.
var defaultConnectorDimensions = map[string]schema.Dimensions{
	"USB-C":      {Width: 9.0, Height: 3.2, Depth: 7.5},
	"USB-A":      {Width: 14.0, Height: 6.5, Depth: 14.0},
	"USB-Micro":  {Width: 8.0, Height: 3.0, Depth: 5.5},
	"USB-Mini":   {Width: 7.0, Height: 4.0, Depth: 5.5},
	"HDMI":       {Width: 15.0, Height: 6.0, Depth: 11.2},
	"RJ45":       {Width: 16.0, Height: 13.5, Depth: 21.5},
	"DC-Jack":    {Width: 9.0, Height: 11.0, Depth: 14.0},
	"Pin-Header": {Width: 2.54, Height: 8.5, Depth: 2.54},
	"JST":        {Width: 5.0, Height: 4.5, Depth: 6.0},
	"SD-Card":    {Width: 14.0, Height: 2.0, Depth: 15.0},
}

var fallbackConnectorDimensions = schema.Dimensions{Width: 10.0, Height: 5.0, Depth: 10.0}

// guessConnectorType classifies a footprint name. The second result
// is false when the footprint is not connector-like at all.
func guessConnectorType(fpName string) (string, bool) {
	lower := strings.ToLower(fpName)
	for family, patterns := range connectorPatterns {
		for _, p := range patterns {
			if strings.Contains(lower, strings.ToLower(p)) {
				return family, true
			}
		}
	}
	if strings.Contains(lower, "connector") {
		return "Unknown", true
	}
	return "", false
}

// connectorDimensions returns the nominal envelope for a family.
func connectorDimensions(family string) schema.Dimensions {
	if d, ok := defaultConnectorDimensions[family]; ok {
		return d
	}
	return fallbackConnectorDimensions
}

// isMountingHole reports whether a footprint name denotes a plain
// mounting hole rather than a component.
func isMountingHole(fpName string) bool {
	return strings.Contains(strings.ToLower(fpName), "mountinghole")
}
