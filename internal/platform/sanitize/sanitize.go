package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var policy = bluemonday.StrictPolicy()

// Text reduces user supplied text to plain text. All markup is removed and
// the entities bluemonday writes are decoded again, since the result is
// served as JSON, not HTML.
func Text(input string) string {
	return strings.TrimSpace(html.UnescapeString(policy.Sanitize(input)))
}
