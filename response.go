package aihttpserver

// The server's own error responses are fixed raw byte strings.
// Generated pages carry their own status line and headers, so no
// Content-Length is emitted anywhere; every connection is closed
// after one response.
const (
	responseBadRequest  = "HTTP/1.1 400 Bad Request\r\nContent-Type: text/plain\r\nConnection: close\r\n\r\nInvalid HTTP request"
	responseNotFound    = "HTTP/1.1 404 Not Found\r\nContent-Type: text/plain\r\nConnection: close\r\n\r\nThis isn't supposed to happen D:"
	responseRateLimited = "HTTP/1.1 429 Too Many Requests\r\nContent-Type: text/plain\r\nConnection: close\r\n\r\nRatelimit exceeded. Please try again later."
	responseServerError = "HTTP/1.1 500 Internal Server Error\r\nContent-Type: text/plain\r\nConnection: close\r\n\r\nInvalid request."
)
