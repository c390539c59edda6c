package reader

import (
	"strings"

	"github.com/hillway/coursegate/internal/gate"
)

// document is the rendered course: a column of terminal lines plus where
// each section, day and question landed. It is the gate.Layout the session
// measures coverage against, with one line as the unit.
type document struct {
	lines     []string
	extents   map[string]gate.Extent
	dayTops   map[int]int
	questions []anchor

	offset int
	height int
}

// anchor is a focusable question and the line it starts on.
type anchor struct {
	number string
	day    int
	line   int
}

var _ gate.Layout = (*document)(nil)

func newDocument(height int) *document {
	return &document{
		extents: make(map[string]gate.Extent),
		dayTops: make(map[int]int),
		height:  height,
	}
}

// add appends a rendered block and returns its first line and height.
func (d *document) add(block string) (top, height int) {
	top = len(d.lines)
	if block == "" {
		d.lines = append(d.lines, "")
		return top, 1
	}
	parts := strings.Split(block, "\n")
	d.lines = append(d.lines, parts...)
	return top, len(parts)
}

func (d *document) blank() {
	d.lines = append(d.lines, "")
}

func (d *document) Extent(sectionID string) (gate.Extent, bool) {
	e, ok := d.extents[sectionID]
	return e, ok
}

func (d *document) Viewport() gate.Viewport {
	return gate.Viewport{Offset: d.offset, Height: d.height}
}

func (d *document) maxOffset() int {
	if m := len(d.lines) - d.height; m > 0 {
		return m
	}
	return 0
}

// clamp keeps the offset inside the document.
func (d *document) clamp(offset int) int {
	if offset > d.maxOffset() {
		offset = d.maxOffset()
	}
	if offset < 0 {
		offset = 0
	}
	return offset
}

// visible returns the lines inside the viewport, padded to its height.
func (d *document) visible() []string {
	out := make([]string, 0, d.height)
	for i := d.offset; i < d.offset+d.height; i++ {
		if i < len(d.lines) {
			out = append(out, d.lines[i])
		} else {
			out = append(out, "")
		}
	}
	return out
}

func (d *document) question(number string) (anchor, bool) {
	for _, a := range d.questions {
		if a.number == number {
			return a, true
		}
	}
	return anchor{}, false
}
