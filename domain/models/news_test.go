package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDetectMediaKind(t *testing.T) {
	tests := []struct {
		name     string
		mimeType string
		fileName string
		want     MediaKind
		wantOK   bool
	}{
		{"jpeg by mime", "image/jpeg", "cover.bin", MediaKindImage, true},
		{"gif by mime wins over image", "image/gif", "anim.png", MediaKindGIF, true},
		{"video by mime", "video/mp4", "", MediaKindVideo, true},
		{"mime with parameters", "Image/PNG; charset=binary", "", MediaKindImage, true},
		{"extension fallback", "application/octet-stream", "clip.WEBM", MediaKindVideo, true},
		{"gif extension fallback", "", "loop.gif", MediaKindGIF, true},
		{"unknown", "application/pdf", "score.pdf", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DetectMediaKind(tt.mimeType, tt.fileName)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewsPatch_Columns(t *testing.T) {
	t.Run("empty patch touches nothing", func(t *testing.T) {
		assert.True(t, NewsPatch{}.IsEmpty())
		assert.Empty(t, NewsPatch{}.Columns())
	})

	t.Run("only set fields are returned", func(t *testing.T) {
		title := "Audiciones"
		visible := false
		published := time.Date(2025, 3, 21, 0, 0, 0, 0, time.UTC)

		cols := NewsPatch{Title: &title, Visible: &visible, PublishedAt: &published}.Columns()

		assert.Equal(t, map[string]interface{}{
			"title":        "Audiciones",
			"visible":      false,
			"published_at": published,
		}, cols)
	})
}
