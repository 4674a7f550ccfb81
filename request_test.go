package aihttpserver

import (
	"errors"
	"testing"
)

func TestParseRequestLineValid(t *testing.T) {
	tests := []struct {
		raw     string
		method  string
		target  string
		version string
	}{
		{"GET / HTTP/1.1\r\nHost: x\r\n\r\n", "GET", "/", "HTTP/1.1"},
		{"POST /submit HTTP/1.0\r\n\r\n", "POST", "/submit", "HTTP/1.0"},
		{"PUT /a/b/c HTTP/1.1\r\n\r\n", "PUT", "/a/b/c", "HTTP/1.1"},
		{"DELETE /x HTTP/1.1\r\n\r\n", "DELETE", "/x", "HTTP/1.1"},
		{"HEAD / HTTP/1.1\r\n\r\n", "HEAD", "/", "HTTP/1.1"},
		{"OPTIONS * HTTP/1.1\r\n\r\n", "OPTIONS", "*", "HTTP/1.1"},
		{"PATCH /p?q=1 HTTP/1.1\r\n\r\n", "PATCH", "/p?q=1", "HTTP/1.1"},
	}
	for _, tt := range tests {
		line, err := ParseRequestLine([]byte(tt.raw))
		if err != nil {
			t.Fatalf("ParseRequestLine(%q): %v", tt.raw, err)
		}
		if line.Method != tt.method || line.Target != tt.target || line.Version != tt.version {
			t.Fatalf("ParseRequestLine(%q) = %+v", tt.raw, line)
		}
	}
}

func TestParseRequestLineMalformed(t *testing.T) {
	tests := []string{
		"GARBAGE REQUEST\r\n\r\n",
		"GET /\r\n\r\n",
		"get / HTTP/1.1\r\n\r\n",
		"TRACE / HTTP/1.1\r\n\r\n",
		"GET / HTTP/11\r\n\r\n",
		"GET / SPDY/1.1\r\n\r\n",
		"\r\n\r\n",
		"",
	}
	for _, raw := range tests {
		if _, err := ParseRequestLine([]byte(raw)); !errors.Is(err, ErrMalformedRequestLine) {
			t.Fatalf("ParseRequestLine(%q) err = %v", raw, err)
		}
	}
}

func TestPathKey(t *testing.T) {
	tests := []struct {
		target string
		key    string
	}{
		{"/", ""},
		{"/a", "a"},
		{"/a/b", "a|b"},
		{"/a/b/", "a|b|"},
		{"/about/team", "about|team"},
	}
	for _, tt := range tests {
		if got := PathKey(tt.target); got != tt.key {
			t.Fatalf("PathKey(%q) = %q, want %q", tt.target, got, tt.key)
		}
	}
	// distinct paths stay distinct
	if PathKey("/a/b") == PathKey("/a") || PathKey("/a") == PathKey("/") {
		t.Fatal("Distinct paths collided")
	}
}
