package main

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"github.com/zombor/product-scanner/internal/classifying"
	"github.com/zombor/product-scanner/internal/credential"
	"github.com/zombor/product-scanner/internal/scan"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	fs := ff.NewFlagSet("product-scanner")
	var (
		port           = fs.IntLong("port", 8080, "HTTP server port")
		storeType      = fs.StringLong("store", "bolt", "History store: 'bolt', 'sqlite' or 'file'")
		dbPath         = fs.StringLong("db", "product-scanner.db", "Database file path (directory for the 'file' store)")
		classifierType = fs.StringLong("classifier", "gemini", "Classifier: 'gemini', 'ollama' or 'openai'")
		geminiKey      = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel    = fs.StringLong("gemini-model", "gemini-2.5-flash", "Google Gemini model name")
		ollamaURL      = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel    = fs.StringLong("ollama-model", "llava", "Ollama model name (e.g., llava, llava-phi3, qwen2-vl)")
		openaiKey      = fs.StringLong("openai-key", "", "OpenAI API key (or set OPENAI_API_KEY env var)")
		openaiModel    = fs.StringLong("openai-model", "gpt-4o-mini", "OpenAI model name")
		openaiBaseURL  = fs.StringLong("openai-base-url", "", "OpenAI compatible API base URL (optional)")
		shopName       = fs.StringLong("shop-name", classifying.DefaultOptions().ShopName, "Shop name used in the model instructions")
		strictSchema   = fs.BoolDefault(0, "strict-schema", true, "Reject model answers that do not match the output schema")
		timeout        = fs.DurationLong("timeout", 0, "Timeout for a single classification (0 leaves it to the transport)")
		authUser       = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass       = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		_              = fs.StringLong("config", "", "Config file (optional)")
		showVersion    = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("PRODUCT_SCANNER"),
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ff.PlainParser),
		ff.WithConfigAllowMissingFile(),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	// Initialize history store
	slog.Info("Initializing history store...", "store", *storeType, "path", *dbPath)
	slots, err := openSlots(*storeType, *dbPath)
	if err != nil {
		slog.Error("Failed to initialize history store", "error", err)
		os.Exit(1)
	}
	defer slots.Close()

	history := scan.NewHistory(slots)
	slog.Info("History loaded", "items", len(history.Load()))

	opts := classifying.Options{
		ShopName: *shopName,
		Strict:   *strictSchema,
		Timeout:  *timeout,
	}

	// Initialize classifier based on type
	var (
		classifier classifying.Classifier
		keys       *credential.KeyRing
	)
	switch *classifierType {
	case "gemini":
		keys = credential.NewKeyRing(firstNonEmpty(*geminiKey, os.Getenv("GEMINI_API_KEY")))
		if keys.APIKey() == "" {
			slog.Warn("No Gemini API key configured, one will be requested in the UI")
		}
		slog.Info("Initializing Gemini classifier...", "model", *geminiModel)
		classifier, err = classifying.NewGemini(keys, *geminiModel, opts)
	case "ollama":
		slog.Info("Initializing Ollama classifier...", "url", *ollamaURL, "model", *ollamaModel)
		classifier, err = classifying.NewOllama(*ollamaURL, *ollamaModel, opts)
	case "openai":
		keys = credential.NewKeyRing(firstNonEmpty(*openaiKey, os.Getenv("OPENAI_API_KEY")))
		if keys.APIKey() == "" {
			slog.Warn("No OpenAI API key configured, one will be requested in the UI")
		}
		slog.Info("Initializing OpenAI classifier...", "model", *openaiModel, "base_url", *openaiBaseURL)
		classifier, err = classifying.NewOpenAI(keys, *openaiModel, *openaiBaseURL, opts)
	default:
		slog.Error("Invalid classifier type", "type", *classifierType, "valid", "gemini, ollama or openai")
		os.Exit(1)
	}
	if err != nil {
		slog.Error("Failed to initialize classifier", "classifier", *classifierType, "error", err)
		os.Exit(1)
	}
	defer classifier.Close()

	// Ollama runs without a key, so there is nothing to pick
	var picker credential.Picker
	if keys != nil {
		picker = keys
	}
	controller := scan.NewController(classifier, history, picker)

	// Initialize server
	basicAuth := scan.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := scan.NewServer(controller, keys, basicAuth)

	// Start server in goroutine
	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr), "version", version)
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}

// openSlots opens the configured history store
func openSlots(kind, path string) (scan.Slots, error) {
	switch kind {
	case "bolt":
		return scan.NewBoltSlots(path)
	case "sqlite":
		return scan.NewSQLiteSlots(path)
	case "file":
		return scan.NewFileSlots(path)
	}
	return nil, fmt.Errorf("invalid store type %q (valid: bolt, sqlite or file)", kind)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
