// Package content implements the inline photo-marker micro-format that lets
// free text and images interleave inside a single editable buffer. A marker
// is the literal token [PHOTO:n] with a 1-based index assigned in insertion
// order within an editing session. The token syntax is a compatibility
// surface: stored entries already contain it, so it must be preserved
// byte-for-byte.
package content

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/polarais/haru-sub000/internal/model"
)

// markerPattern matches exactly [PHOTO:<digits>]. Anything else ([PHOTO],
// [PHOTO:], [PHOTO:abc]) is not a marker and is left untouched.
var markerPattern = regexp.MustCompile(`\[PHOTO:(\d+)\]`)

// Marker is one matched token: its 1-based photo index and the character
// offset of the token in the original, un-stripped string.
type Marker struct {
	Index    int
	Position int
}

// Token returns the literal marker text.
func (m Marker) Token() string {
	return fmt.Sprintf("[PHOTO:%d]", m.Index)
}

// InsertMarker splices a [PHOTO:photoIndex] token into content at cursor.
// The cursor is clamped to the content bounds, so insertion at 0, at
// len(content), and directly adjacent to an existing marker are all valid.
func InsertMarker(content string, cursor int, photoIndex int) string {
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(content) {
		cursor = len(content)
	}
	return content[:cursor] + Marker{Index: photoIndex}.Token() + content[cursor:]
}

// ExtractMarkers scans content left-to-right for marker tokens and returns
// the content with every matched token removed, plus the matched markers with
// their original offsets. Malformed tokens are ignored, never partially
// matched. Extraction after insertion reproduces the original plain text
// exactly: markers are the only thing removed.
func ExtractMarkers(content string) (string, []Marker) {
	matches := markerPattern.FindAllStringSubmatchIndex(content, -1)
	if len(matches) == 0 {
		return content, nil
	}

	markers := make([]Marker, 0, len(matches))
	var clean strings.Builder
	clean.Grow(len(content))

	prev := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		idx, err := strconv.Atoi(content[m[2]:m[3]])
		if err != nil {
			// Unreachable given the pattern, but never drop text over it.
			continue
		}
		clean.WriteString(content[prev:start])
		markers = append(markers, Marker{Index: idx, Position: start})
		prev = end
	}
	clean.WriteString(content[prev:])

	return clean.String(), markers
}

// RemoveMarkers strips every marker token from content. Removing all photos
// from an entry clears the text through this same pattern.
func RemoveMarkers(content string) string {
	return markerPattern.ReplaceAllString(content, "")
}

// NextIndex returns the next 1-based marker index for an editing session:
// one past the highest index already present in content.
func NextIndex(content string) int {
	max := 0
	for _, m := range markerPattern.FindAllStringSubmatch(content, -1) {
		if n, err := strconv.Atoi(m[1]); err == nil && n > max {
			max = n
		}
	}
	return max + 1
}

// RenderPhotos replaces marker tokens with image references to the attached
// photos. Photos are ordered by PositionIndex ascending before substitution,
// so out-of-order persistence does not corrupt display order: the i-th
// marker (left to right) renders the i-th photo. Markers without a matching
// photo are removed rather than shown raw.
func RenderPhotos(content string, photos []model.EntryPhoto) string {
	sorted := make([]model.EntryPhoto, len(photos))
	copy(sorted, photos)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j-1].PositionIndex > sorted[j].PositionIndex; j-- {
			sorted[j-1], sorted[j] = sorted[j], sorted[j-1]
		}
	}

	next := 0
	return markerPattern.ReplaceAllStringFunc(content, func(string) string {
		if next >= len(sorted) {
			return ""
		}
		p := sorted[next]
		next++
		return fmt.Sprintf("![%s](%s)", p.Caption, p.StoragePath)
	})
}

// NormalizeBlocks converts the legacy block-array representation into the
// canonical marker-string form: paragraphs joined by blank lines, image
// blocks replaced by sequential markers, and the images returned as an
// ordered photo list whose PositionIndex is the marker offset in the
// flattened text. The rest of the system only ever sees the canonical shape.
func NormalizeBlocks(blocks model.ContentBlocks) (string, []model.EntryPhoto) {
	var out strings.Builder
	var photos []model.EntryPhoto

	photoIndex := 0
	for i, b := range blocks {
		if i > 0 {
			out.WriteString("\n\n")
		}
		switch b.Type {
		case model.BlockImage:
			photoIndex++
			photos = append(photos, model.EntryPhoto{
				StoragePath:   b.URL,
				Caption:       b.Caption,
				PositionIndex: out.Len(),
			})
			out.WriteString(Marker{Index: photoIndex}.Token())
		default:
			out.WriteString(b.Text)
		}
	}

	return out.String(), photos
}
