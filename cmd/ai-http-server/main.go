package main

import (
	"context"
	"flag"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	aihttpserver "github.com/ImShyMike/ai-http-server"
	"github.com/ImShyMike/ai-http-server/pkg/generate"
	"github.com/ImShyMike/ai-http-server/store"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	// CLI flags
	configFilenameFlag string
	addrFlag           string
	managementAddrFlag string
	dirFlag            string
	providerFlag       string
	dbFilenameFlag     string
	modelFlag          string
	rateTTLFlag        string
	sitemapTTLFlag     string
	readTimeoutFlag    string
	verbosityTraceFlag bool
	logFilenameFlag    string

	// this is set by goreleaser
	version string
)

func init() {
	flag.StringVar(&configFilenameFlag, "config", "", "Path to config file")
	flag.StringVar(&addrFlag, "addr", ":8000", "Address to listen on")
	flag.StringVar(&managementAddrFlag, "management-addr", "", "Address for the management API (disabled if empty)")
	flag.StringVar(&dirFlag, "dir", "generated", "Directory for generated artifacts")
	flag.StringVar(&providerFlag, "provider", "fs", "Artifact store provider to use (fs or sqlite)")
	flag.StringVar(&dbFilenameFlag, "db", "artifacts.db", "Artifact DB file name for the sqlite provider (use 'memory' for in-memory db)")
	flag.StringVar(&modelFlag, "model", "deepseek-chat", "Model to generate responses with")
	flag.StringVar(&rateTTLFlag, "rate-ttl", "", "Per-client generation rate window (e.g. 3s)")
	flag.StringVar(&sitemapTTLFlag, "sitemap-ttl", "", "Cached page lifetime (e.g. 5m)")
	flag.StringVar(&readTimeoutFlag, "read-timeout", "", "Deadline for receiving request headers (e.g. 30s)")
	flag.BoolVar(&verbosityTraceFlag, "vv", false, "Verbosity: trace logging")
	flag.StringVar(&logFilenameFlag, "log-file", "", "Log file to use (in addition to stdout)")

	if version == "" {
		version = "DEV"
	}
}

func main() {
	flag.Parse()

	// set log level
	logLevel := zerolog.DebugLevel
	if verbosityTraceFlag {
		logLevel = zerolog.TraceLevel
	}

	// set up log output to stdout
	// also output to logfile if specified
	logOutputs := make([]io.Writer, 0)
	logOutputs = append(logOutputs, zerolog.ConsoleWriter{Out: os.Stdout})
	if logFilenameFlag != "" {
		if logFileOutput, err := os.OpenFile(logFilenameFlag, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644); err != nil {
			log.Fatal().Err(err).Msg("Cannot open log file")
		} else {
			logOutputs = append(logOutputs, logFileOutput)
		}
	}
	multiWriter := zerolog.MultiLevelWriter(logOutputs...)
	log.Logger = log.Level(logLevel).Output(multiWriter).
		With().Str("version", version).Logger()

	// the backend endpoint and credential are required up front,
	// before anything binds
	godotenv.Load()
	backendURL := os.Getenv("AI_SERVER_URL")
	backendKey := os.Getenv("AI_SERVER_KEY")
	if backendURL == "" || backendKey == "" {
		log.Fatal().Msg("AI_SERVER_URL and AI_SERVER_KEY must be set in the environment variables")
	}

	var fileConfig aihttpserver.FileConfig
	if configFilenameFlag != "" {
		var err error
		fileConfig, err = aihttpserver.GetConfig(configFilenameFlag)
		if err != nil {
			log.Fatal().Err(err).Msg("Could not read config file")
		}
	}

	// flags override config file values
	addr := firstOf(flagValue("addr", addrFlag), fileConfig.Addr, ":8000")
	managementAddr := firstOf(managementAddrFlag, fileConfig.ManagementAddr)
	dir := firstOf(flagValue("dir", dirFlag), fileConfig.ArtifactsDir, "generated")
	provider := firstOf(flagValue("provider", providerFlag), fileConfig.Provider, "fs")
	dbFilename := firstOf(flagValue("db", dbFilenameFlag), fileConfig.DBFilename, "artifacts.db")
	model := firstOf(flagValue("model", modelFlag), fileConfig.Model, "deepseek-chat")

	rateTTL, err := aihttpserver.ParseTTL(firstOf(rateTTLFlag, fileConfig.RateTTL), 0)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid rate TTL")
	}
	sitemapTTL, err := aihttpserver.ParseTTL(firstOf(sitemapTTLFlag, fileConfig.SitemapTTL), 0)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid sitemap TTL")
	}
	readTimeout, err := aihttpserver.ParseTTL(firstOf(readTimeoutFlag, fileConfig.ReadTimeout), 0)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid read timeout")
	}

	// use configured provider
	var artifacts store.Provider
	switch provider {
	case "fs":
		artifacts, err = store.NewFSStore(dir)
		if err != nil {
			log.Fatal().Err(err).Msg("Could not create artifact store")
		}
	case "sqlite":
		if dbFilename == "memory" {
			dbFilename = ""
		}
		artifacts, err = store.NewSQLiteStore(dbFilename)
		if err != nil {
			log.Fatal().Err(err).Msg("Could not create artifact store")
		}
	default:
		log.Fatal().Msgf("Unsupported store provider: %s", provider)
	}

	server := aihttpserver.NewServer(aihttpserver.Config{
		Addr:        addr,
		Store:       artifacts,
		Generator:   generate.NewClient(backendURL, backendKey, model, log.Logger),
		RateTTL:     rateTTL,
		SitemapTTL:  sitemapTTL,
		ReadTimeout: readTimeout,
		Logger:      &log.Logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if managementAddr != "" {
		go func() {
			log.Info().Msgf("Management API on %s", managementAddr)
			if err := http.ListenAndServe(managementAddr, server.ManagementHandler()); err != nil {
				log.Error().Err(err).Msg("Management API stopped")
			}
		}()
	}

	log.Info().Msg("Starting AI HTTP Server...")
	if err := server.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}

// flagValue returns the flag's value only if it was set explicitly,
// so config file values win over flag defaults.
func flagValue(name, value string) string {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	if set {
		return value
	}
	return ""
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
