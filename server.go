// Package aihttpserver is a TCP front-end that answers every request
// with an AI-generated page. Non-root paths are generated once,
// persisted to an artifact store, and served from there until their
// sitemap entry expires; generation itself is rate limited per client.
package aihttpserver

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/ImShyMike/ai-http-server/pkg/generate"
	"github.com/ImShyMike/ai-http-server/pkg/ttlmap"
	"github.com/ImShyMike/ai-http-server/store"
)

const (
	defaultRateTTL     = 3 * time.Second
	defaultSitemapTTL  = 5 * time.Minute
	defaultReadTimeout = 30 * time.Second

	readChunkSize = 8192
)

var headerTerminator = []byte("\r\n\r\n")

type Config struct {
	// Address to listen on, e.g. ":8000".
	Addr string
	// Storage for generated artifacts.
	Store store.Provider
	// Backend that turns raw request bytes into response text.
	Generator generate.Generator
	// Sliding window during which a client may trigger at most one generation.
	RateTTL time.Duration
	// Lifetime of a cached page before it is regenerated on next request.
	SitemapTTL time.Duration
	// Deadline for receiving the request headers.
	ReadTimeout time.Duration
	// Logger to use. The global zerolog logger is used if nil.
	Logger *zerolog.Logger
}

type Server struct {
	addr        string
	store       store.Provider
	generator   generate.Generator
	rate        *ttlmap.TTLMap[string]
	sitemap     *ttlmap.TTLMap[string]
	flight      singleflight.Group
	stats       *Stats
	readTimeout time.Duration
	log         zerolog.Logger
}

// NewServer initializes the server instance and the two expiry tables.
// Background processes are started by Serve.
func NewServer(config Config) *Server {
	var logger zerolog.Logger
	if config.Logger == nil {
		logger = zerolog.New(zerolog.NewConsoleWriter())
	} else {
		logger = *config.Logger
	}

	if config.RateTTL == 0 {
		config.RateTTL = defaultRateTTL
	}
	if config.SitemapTTL == 0 {
		config.SitemapTTL = defaultSitemapTTL
	}
	if config.ReadTimeout == 0 {
		config.ReadTimeout = defaultReadTimeout
	}

	s := &Server{
		addr:        config.Addr,
		store:       config.Store,
		generator:   config.Generator,
		rate:        ttlmap.New[string](config.RateTTL, logger.With().Str("table", "rate").Logger()),
		sitemap:     ttlmap.New[string](config.SitemapTTL, logger.With().Str("table", "sitemap").Logger()),
		stats:       NewStats(),
		readTimeout: config.ReadTimeout,
		log:         logger,
	}
	// an expired sitemap entry takes its backing artifact with it
	s.sitemap.OnEvict(func(key string) error {
		s.log.Debug().Str("key", key).Msg("Evicting expired artifact")
		return s.store.Delete(key)
	})
	return s
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.addr, err)
	}
	s.log.Info().Msgf("Serving on %s", ln.Addr())
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln, handling each in its own goroutine,
// until ctx is cancelled. It first clears the artifact store: no stale
// artifacts survive a restart.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if err := s.store.Clear(); err != nil {
		return fmt.Errorf("clearing artifact store: %w", err)
	}

	go s.rate.RunSweeper(ctx, sweepInterval(s.rate.TTL()))
	go s.sitemap.RunSweeper(ctx, sweepInterval(s.sitemap.TTL()))
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.log.Error().Err(err).Msg("Could not accept connection")
			continue
		}
		go s.handleConn(ctx, conn)
	}
}

func sweepInterval(ttl time.Duration) time.Duration {
	if half := ttl / 2; half > time.Second {
		return half
	}
	return time.Second
}

// handleConn runs one connection through the request state machine:
// read headers, parse, serve from cache or rate-limit and generate,
// respond once, close.
func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	client := clientIP(conn.RemoteAddr().String())
	logger := s.log.With().Str("client", client).Logger()
	logger.Trace().Msg("Connection accepted")

	// bound receiving the headers only; generation may legitimately
	// take longer than the read timeout and the response must still
	// be written in full
	if s.readTimeout > 0 {
		conn.SetReadDeadline(time.Now().Add(s.readTimeout))
	}

	raw, ok := readUntilHeaders(conn)
	if !ok {
		// peer went away before completing the headers: silent abort
		logger.Trace().Msg("Connection closed before headers")
		return
	}

	reqLine, err := ParseRequestLine(raw)
	if err != nil {
		logger.Debug().Err(err).Msg("Non-HTTP request")
		s.stats.BadRequest()
		s.respond(conn, logger, responseBadRequest)
		return
	}
	logger = logger.With().
		Str("method", reqLine.Method).
		Str("target", reqLine.Target).
		Logger()

	key := PathKey(reqLine.Target)
	if reqLine.Target != "/" && s.sitemap.Contains(key) {
		s.serveCached(conn, logger, key)
		return
	}

	// cache miss or root: generation required, so the limiter applies.
	// A rejected attempt must not refresh the client's entry.
	if s.rate.Contains(client) {
		logger.Debug().Msg("Rate limit exceeded")
		s.stats.RateLimited()
		s.respond(conn, logger, responseRateLimited)
		return
	}
	s.rate.Upsert(client)

	s.respond(conn, logger, s.generateAndPersist(ctx, logger, reqLine.Target, key, raw))
}

// generateAndPersist invokes the generator and, for non-root targets,
// persists the result before registering the sitemap entry. The sitemap
// is only updated once the artifact is safely on disk. Concurrent first
// requests for the same path share a single generation.
func (s *Server) generateAndPersist(ctx context.Context, logger zerolog.Logger, target, key string, raw []byte) string {
	response, err, shared := s.flight.Do(key, func() (interface{}, error) {
		content, err := s.generator.Generate(ctx, raw)
		if err != nil {
			return nil, fmt.Errorf("generating response: %w", err)
		}
		if target != "/" {
			if err := s.store.Write(key, []byte(content)); err != nil {
				return nil, fmt.Errorf("persisting response: %w", err)
			}
			s.sitemap.Upsert(key)
			logger.Info().Str("key", key).Msg("New endpoint added to sitemap")
		}
		return content, nil
	})
	if err != nil {
		logger.Error().Err(err).Msg("Could not generate response")
		s.stats.Error()
		return responseServerError
	}
	if shared {
		logger.Debug().Str("key", key).Msg("Joined in-flight generation")
	}
	s.stats.Generated()
	return response.(string)
}

func (s *Server) serveCached(conn net.Conn, logger zerolog.Logger, key string) {
	content, err := s.store.Read(key)
	if err != nil {
		// the sitemap said yes but the store disagrees; answer 404,
		// the next sweep or request will straighten things out
		logger.Error().Err(err).Str("key", key).Msg("Sitemap entry has no usable artifact")
		s.stats.Error()
		s.respond(conn, logger, responseNotFound)
		return
	}
	logger.Debug().Str("key", key).Msg("Serving cached artifact")
	s.stats.Hit()
	s.respond(conn, logger, string(content))
}

// respond writes the full response and leaves closing to handleConn.
func (s *Server) respond(conn net.Conn, logger zerolog.Logger, response string) {
	if _, err := conn.Write([]byte(response)); err != nil {
		logger.Debug().Err(err).Msg("Could not write response")
	}
}

// readUntilHeaders reads from the connection in chunks until the buffer
// contains the header terminator. It reports false if the peer closes
// or errors out before the terminator arrives.
func readUntilHeaders(conn net.Conn) ([]byte, bool) {
	var buf []byte
	chunk := make([]byte, readChunkSize)
	for {
		if bytes.Contains(buf, headerTerminator) {
			return buf, true
		}
		n, err := conn.Read(chunk)
		buf = append(buf, chunk[:n]...)
		if err != nil {
			if bytes.Contains(buf, headerTerminator) {
				return buf, true
			}
			return nil, false
		}
	}
}

// clientIP strips the port from a remote address, unbracketing
// ipv6 hosts.
func clientIP(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
