package generate

import (
	"regexp"
	"strings"
)

var (
	thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)
	codeFence  = regexp.MustCompile("(?m)^```[a-zA-Z0-9-]*[ \t]*\r?\n?")
)

// Scrub normalizes raw model output into the response text to serve.
// The model is untrusted with respect to formatting: it may wrap the
// response in a code fence, prepend a thinking block, or echo prose
// before the status line. Scrub removes all of that.
func Scrub(s string) string {
	s = thinkBlock.ReplaceAllString(s, "")
	s = codeFence.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	// drop any preamble before the status line the model echoed
	if !strings.HasPrefix(s, "HTTP/") {
		if i := strings.Index(s, "HTTP/"); i > 0 {
			s = s[i:]
		}
	}
	return s
}
