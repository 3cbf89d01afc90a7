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
	"github.com/zombor/fuel-tracker/internal/fuel"
	"github.com/zombor/fuel-tracker/internal/ocr"
	"github.com/zombor/fuel-tracker/internal/scanning"
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

	fs := ff.NewFlagSet("fuel-tracker")
	var (
		port        = fs.IntLong("port", 8080, "HTTP server port")
		dbPath      = fs.StringLong("db", "fuel-tracker.db", "Database file path")
		storagePath = fs.StringLong("storage", "./photos", "Receipt photo directory path")
		ocrLang     = fs.StringLong("ocr-lang", "tur+eng", "Tesseract languages joined with '+'")
		noOCR       = fs.BoolLong("no-ocr", "Disable server side OCR")
		geminiKey   = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel = fs.StringLong("gemini-model", "gemini-2.0-flash-001", "Google Gemini model name")
		groqKey     = fs.StringLong("groq-key", "", "Groq API key (or set GROQ_API_KEY env var)")
		groqModel   = fs.StringLong("groq-model", "meta-llama/llama-4-scout-17b-16e-instruct", "Groq vision model name")
		ollamaURL   = fs.StringLong("ollama-url", "", "Ollama API base URL, used when no API key is available (e.g., http://localhost:11434)")
		ollamaModel = fs.StringLong("ollama-model", "llava", "Ollama model name (e.g., llava, llava-phi3, qwen2-vl)")
		authUser    = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass    = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		debug       = fs.BoolLong("debug", "Enable debug logging")
		showVersion = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("FUEL_TRACKER"),
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

	if *debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	// Initialize database
	slog.Info("Initializing database...")
	db, err := fuel.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Initialize storage
	slog.Info("Initializing storage...")
	store, err := fuel.NewLocalStorage(*storagePath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	// Initialize OCR
	var recognizer fuel.OCR
	if !*noOCR {
		languages := strings.Split(*ocrLang, "+")
		slog.Info("Initializing Tesseract OCR...", "languages", languages)
		recognizer = ocr.NewTesseract(languages...)
	}

	// Initialize service
	fuelService := fuel.NewService(db, recognizer, nil, store)

	// Vision keys from flags or environment
	if *geminiKey == "" {
		*geminiKey = os.Getenv("GEMINI_API_KEY")
	}
	if *groqKey == "" {
		*groqKey = os.Getenv("GROQ_API_KEY")
	}

	// The user's stored key wins, then Groq, then Gemini, then a local Ollama
	sources := []scanning.CredentialSource{
		fuelService.StoredVisionKey(),
		scanning.StaticKey{Provider: scanning.ProviderGroq, Key: *groqKey},
		scanning.StaticKey{Provider: scanning.ProviderGemini, Key: *geminiKey},
	}
	if *ollamaURL != "" {
		sources = append(sources, scanning.StaticKey{Provider: scanning.ProviderOllama})
	}

	adapter := scanning.NewAdapter(sources, map[string]scanning.Factory{
		scanning.ProviderGemini: func(key string) (scanning.Vision, error) {
			return scanning.NewGemini(key, *geminiModel)
		},
		scanning.ProviderGroq: func(key string) (scanning.Vision, error) {
			return scanning.NewGroq(key, "", *groqModel)
		},
		scanning.ProviderOllama: func(string) (scanning.Vision, error) {
			return scanning.NewOllama(*ollamaURL, *ollamaModel)
		},
	})
	fuelService.SetVision(adapter)
	slog.Info("Vision fallback configured",
		"groq", *groqKey != "",
		"gemini", *geminiKey != "",
		"ollama", *ollamaURL != "",
	)

	// Initialize server
	basicAuth := fuel.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := fuel.NewServer(fuelService, basicAuth)

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
