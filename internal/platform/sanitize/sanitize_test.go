package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"strips tags and scripts", " Bright room <b>near</b> campus<script>alert(1)</script> ", "Bright room near campus"},
		{"only a script", "<script>x</script>", ""},
		{"keeps quotes and ampersands", `5 min to "campus" & bus`, `5 min to "campus" & bus`},
		{"keeps apostrophes and accents", "Perto da estação, it's quiet", "Perto da estação, it's quiet"},
		{"drops attributes", `<a href="javascript:x()">link</a>`, "link"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Text(tt.input))
		})
	}
}
