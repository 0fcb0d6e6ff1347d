package hosting

// Colors arrive as Esri [r, g, b, a] arrays. Alpha is ignored and components
// are truncated to integers.

// IsGreen reports whether rgb is a clearly green shade.
func IsGreen(rgb []float64) bool {
	r, g, b, ok := components(rgb)
	return ok && g >= 120 && g > r+20 && g > b+20
}

// IsBlue reports whether rgb is a clearly blue shade.
func IsBlue(rgb []float64) bool {
	r, g, b, ok := components(rgb)
	return ok && b >= 120 && b > r+20 && b > g+20
}

// IsCapacityColor reports whether rgb is a color utilities use to mark
// available capacity: blue or green.
func IsCapacityColor(rgb []float64) bool {
	return IsBlue(rgb) || IsGreen(rgb)
}

func components(rgb []float64) (r, g, b int, ok bool) {
	if len(rgb) < 3 {
		return 0, 0, 0, false
	}
	return int(rgb[0]), int(rgb[1]), int(rgb[2]), true
}
