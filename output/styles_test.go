package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestStylesPreserveText(t *testing.T) {
	var buf bytes.Buffer
	styles := NewStyles(&buf)

	// Under a non-TTY writer termenv strips escape sequences, so styling
	// must degrade to the plain text.
	tests := []struct {
		name   string
		render func(string) string
	}{
		{"Success", styles.Success},
		{"Error", styles.Error},
		{"Warning", styles.Warning},
		{"Title", styles.Title},
		{"Amount", styles.Amount},
		{"Period", styles.Period},
		{"Keyword", styles.Keyword},
		{"Dim", styles.Dim},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.render("sample")
			assert.True(t, strings.Contains(out, "sample"))
		})
	}
}
