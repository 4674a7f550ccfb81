// Package generate calls the AI backend that produces HTTP responses
// from raw request bytes, and normalizes whatever the model returns.
package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const systemPrompt = `You are a HTTP server named "AI HTTP Server" powered completely by artificial intelligence.

REQUEST HANDLING:
- You will receive raw HTTP requests (headers and body) from clients
- You will parse the request and understand what the client is asking for based on the requested URL, parameters, cookies, etc.
- You may utilize the referrer header to determine the context of the request if desired
- You will not use any external libraries or frameworks to handle/generate the request

RESPONSE GENERATION:
- You will respond with what you think is the best fit response to the request (webpage or file)
- Your response MUST be formatted as a valid HTTP response (do NOT use a "Content-length" header)
- If a file is requested, respond only with the file content and appropriate response based on its extension
- Do not respond with raw images, videos, or other media files

WEBPAGE GUIDELINES:
- If responding with a webpage, use only HTML, CSS, and JavaScript
- ALWAYS make pages look good, functional, and responsive with a modern theme
- ALWAYS include a title in the HTML
- You may include an external favicon link in the HTML
- NEVER include placeholders, always use real or mock data
- NEVER explain anything to the user or apologize

LINKS AND NAVIGATION:
- The index page (root URL "/") should be a well-designed homepage with links to other pages
- For the index page, include at least 5 links to other interesting pages on the server
- Always include at least 3 links to pages that are not the index page
- Use descriptive names for both the links and their paths (not "link1", "link2", etc.)
- Add multiple links to various content on the website (pages, files, resources)
- NEVER include links like "https://example.com" - use correct links based on request context
- NEVER include external resource links unless specifically requested

TECHNICAL REQUIREMENTS:
- NEVER include comments in your output
- NEVER include links to CSS or JavaScript files, always include them inline or use external links
- NEVER utilize placeholders or TODOs - complete all code fully`

// Generator produces the response text for a raw HTTP request.
// Latency and failure modes are unspecified; callers must treat
// errors as a degraded response, never as fatal.
type Generator interface {
	Generate(ctx context.Context, rawRequest []byte) (string, error)
}

// Client is a Generator backed by an OpenAI-style chat completions endpoint.
type Client struct {
	url        string
	key        string
	model      string
	httpClient *http.Client
	log        zerolog.Logger
}

func NewClient(url, key, model string, logger zerolog.Logger) *Client {
	return &Client{
		url:   url,
		key:   key,
		model: model,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
		log: logger.With().Str("model", model).Logger(),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Model    string        `json:"model"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate sends the raw request bytes to the backend and returns the
// scrubbed model output.
func (c *Client) Generate(ctx context.Context, rawRequest []byte) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: string(rawRequest)},
		},
		Stream: false,
		Model:  c.model,
	})
	if err != nil {
		return "", fmt.Errorf("encoding generation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("creating generation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.key)

	start := time.Now()
	res, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching generation response: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
		return "", fmt.Errorf("generation backend returned %s: %s", res.Status, body)
	}

	var parsed chatResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decoding generation response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("generation response has no choices")
	}

	c.log.Debug().Dur("elapsed", time.Since(start)).Msg("Generated response")
	return Scrub(parsed.Choices[0].Message.Content), nil
}
