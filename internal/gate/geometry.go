package gate

// Extent is the vertical span of a rendered section, in host units (rows in
// the terminal reader).
type Extent struct {
	Top    int
	Height int
}

// Bottom returns the first unit below the extent.
func (e Extent) Bottom() int { return e.Top + e.Height }

// Viewport is the visible window over the rendered document.
type Viewport struct {
	Offset int // scroll position of the first visible unit
	Height int
}

// Bottom returns the first unit below the viewport.
func (v Viewport) Bottom() int { return v.Offset + v.Height }

// Layout reports where the host rendered each section.
type Layout interface {
	// Extent returns the section's span. ok is false when the section is
	// not rendered, e.g. because its day is hidden.
	Extent(sectionID string) (e Extent, ok bool)

	// Viewport returns the current visible window.
	Viewport() Viewport
}

// Intersects reports whether any part of e is inside v.
func (e Extent) Intersects(v Viewport) bool {
	return e.Top-v.Offset < v.Height && e.Bottom()-v.Offset > 0
}

// Coverage returns the fraction of e that has passed through the viewport.
// A section no taller than the viewport counts as fully covered once the
// viewport bottom reaches its midpoint, and not at all before.
func Coverage(e Extent, v Viewport) float64 {
	vb := v.Bottom()

	if e.Height <= v.Height {
		if float64(vb) >= float64(e.Top)+float64(e.Height)*0.5 {
			return 1
		}
		return 0
	}

	if vb <= e.Top {
		return 0
	}
	if vb >= e.Bottom() {
		return 1
	}
	return float64(vb-e.Top) / float64(e.Height)
}
