package aihttpserver

import (
	"errors"
	"regexp"
	"strings"
)

// ErrMalformedRequestLine is returned when the first line of a request
// does not match the HTTP request-line grammar.
var ErrMalformedRequestLine = errors.New("malformed request line")

var requestLinePattern = regexp.MustCompile(`^(GET|POST|PUT|DELETE|HEAD|OPTIONS|PATCH) (.+) (HTTP/\d\.\d)$`)

// RequestLine is the parsed first line of an HTTP request.
// Only Target is consumed by the server; Method and Version are kept
// for logging.
type RequestLine struct {
	Method  string
	Target  string
	Version string
}

// ParseRequestLine extracts the request line from a raw request buffer.
// The buffer is expected to contain at least the first CRLF-terminated
// line; anything after it is ignored.
func ParseRequestLine(raw []byte) (RequestLine, error) {
	line, _, _ := strings.Cut(string(raw), "\r\n")
	m := requestLinePattern.FindStringSubmatch(line)
	if m == nil {
		return RequestLine{}, ErrMalformedRequestLine
	}
	return RequestLine{Method: m[1], Target: m[2], Version: m[3]}, nil
}

// PathKey flattens a URL path into a single filesystem-safe token by
// stripping the leading slash and replacing the remaining separators
// with "|". The root path maps to the empty string, which is reserved:
// it is never stored in the sitemap or the artifact store.
func PathKey(target string) string {
	return strings.ReplaceAll(strings.TrimPrefix(target, "/"), "/", "|")
}
