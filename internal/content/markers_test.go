package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polarais/haru-sub000/internal/model"
)

func TestInsertMarker(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		cursor     int
		photoIndex int
		want       string
	}{
		{"at start", "Hello world", 0, 1, "[PHOTO:1]Hello world"},
		{"in middle", "Hello world", 5, 1, "Hello[PHOTO:1] world"},
		{"at end", "Hello world", 11, 2, "Hello world[PHOTO:2]"},
		{"empty content", "", 0, 1, "[PHOTO:1]"},
		{"cursor below zero clamps", "abc", -4, 1, "[PHOTO:1]abc"},
		{"cursor past end clamps", "abc", 99, 1, "abc[PHOTO:1]"},
		{"adjacent to existing marker", "[PHOTO:1]rest", 9, 2, "[PHOTO:1][PHOTO:2]rest"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InsertMarker(tt.content, tt.cursor, tt.photoIndex))
		})
	}
}

func TestExtractMarkers(t *testing.T) {
	clean, markers := ExtractMarkers("[PHOTO:2]Hello[PHOTO:1] world")

	assert.Equal(t, "Hello world", clean)
	require.Len(t, markers, 2)
	assert.Equal(t, Marker{Index: 2, Position: 0}, markers[0])
	assert.Equal(t, Marker{Index: 1, Position: 14}, markers[1])
}

func TestExtractMarkersNoMarkers(t *testing.T) {
	clean, markers := ExtractMarkers("just plain text")
	assert.Equal(t, "just plain text", clean)
	assert.Empty(t, markers)
}

func TestExtractMarkersIgnoresMalformedTokens(t *testing.T) {
	input := "Text [PHOTO] [PHOTO:] [PHOTO:abc] [PHOTO:1] valid"

	clean, markers := ExtractMarkers(input)

	require.Len(t, markers, 1)
	assert.Equal(t, 1, markers[0].Index)
	assert.Equal(t, 34, markers[0].Position)
	assert.Equal(t, "Text [PHOTO] [PHOTO:] [PHOTO:abc]  valid", clean)
}

func TestMarkerRoundTrip(t *testing.T) {
	// Inserting any sequence of markers and then extracting them must
	// reproduce the original text exactly.
	original := "The quick brown fox\njumps over the lazy dog."
	insertions := []struct {
		cursor int
		index  int
	}{
		{len(original), 1}, // end of the text
		{0, 2},             // start, shifting everything right
		{13, 3},            // inside the text, past the marker at 0
		{len(original) + 3*len("[PHOTO:1]"), 4}, // end again, adjacent to marker 1
	}

	content := original
	for _, ins := range insertions {
		content = InsertMarker(content, ins.cursor, ins.index)
	}

	clean, markers := ExtractMarkers(content)
	assert.Equal(t, original, clean)
	assert.Len(t, markers, len(insertions))

	// Markers come back in document order with ascending positions.
	for i := 1; i < len(markers); i++ {
		assert.Greater(t, markers[i].Position, markers[i-1].Position)
	}
}

func TestRemoveMarkers(t *testing.T) {
	assert.Equal(t, "ab", RemoveMarkers("[PHOTO:1]a[PHOTO:2]b[PHOTO:3]"))
	assert.Equal(t, "no markers", RemoveMarkers("no markers"))
	assert.Equal(t, "[PHOTO:x] stays", RemoveMarkers("[PHOTO:x] stays"))
}

func TestNextIndex(t *testing.T) {
	assert.Equal(t, 1, NextIndex(""))
	assert.Equal(t, 1, NextIndex("plain text"))
	assert.Equal(t, 2, NextIndex("a[PHOTO:1]b"))
	assert.Equal(t, 8, NextIndex("a[PHOTO:3]b[PHOTO:7]c"))
}

func TestRenderPhotos(t *testing.T) {
	photos := []model.EntryPhoto{
		// Stored out of order on purpose; rendering sorts by PositionIndex.
		{StoragePath: "https://cdn.example/b.jpg", Caption: "beach", PositionIndex: 20},
		{StoragePath: "https://cdn.example/a.jpg", Caption: "sunrise", PositionIndex: 3},
	}

	got := RenderPhotos("Up![PHOTO:1] Later: [PHOTO:2]", photos)
	assert.Equal(t, "Up!![sunrise](https://cdn.example/a.jpg) Later: ![beach](https://cdn.example/b.jpg)", got)
}

func TestRenderPhotosExtraMarkersRemoved(t *testing.T) {
	got := RenderPhotos("a[PHOTO:1]b[PHOTO:2]c", []model.EntryPhoto{
		{StoragePath: "u", Caption: "", PositionIndex: 1},
	})
	assert.Equal(t, "a![](u)bc", got)
}

func TestNormalizeBlocks(t *testing.T) {
	blocks := model.ContentBlocks{
		{Type: model.BlockParagraph, Text: "Morning walk."},
		{Type: model.BlockImage, URL: "https://cdn.example/walk.jpg", Caption: "the park"},
		{Type: model.BlockParagraph, Text: "Felt good."},
	}

	text, photos := NormalizeBlocks(blocks)

	assert.Equal(t, "Morning walk.\n\n[PHOTO:1]\n\nFelt good.", text)
	require.Len(t, photos, 1)
	assert.Equal(t, "https://cdn.example/walk.jpg", photos[0].StoragePath)
	assert.Equal(t, "the park", photos[0].Caption)
	// PositionIndex is the marker's offset in the flattened text.
	assert.Equal(t, len("Morning walk.\n\n"), photos[0].PositionIndex)

	clean, markers := ExtractMarkers(text)
	assert.Equal(t, "Morning walk.\n\n\n\nFelt good.", clean)
	require.Len(t, markers, 1)
	assert.Equal(t, photos[0].PositionIndex, markers[0].Position)
}

func TestNormalizeBlocksEmpty(t *testing.T) {
	text, photos := NormalizeBlocks(nil)
	assert.Empty(t, text)
	assert.Empty(t, photos)
}
