package main

import (
	"context"
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fk1blow/haplea/internal/api/handlers"
	"github.com/fk1blow/haplea/internal/api/middleware"
	"github.com/fk1blow/haplea/internal/channel"
	"github.com/fk1blow/haplea/internal/conversation"
	"github.com/fk1blow/haplea/internal/draft"
	"github.com/fk1blow/haplea/internal/intent"
	"github.com/fk1blow/haplea/internal/ledgerapi"
	"github.com/fk1blow/haplea/internal/logger"
	"github.com/fk1blow/haplea/internal/nlu"
	"github.com/fk1blow/haplea/internal/pulse"
	"github.com/joho/godotenv"
)

func main() {
	// Optional .env for local development
	_ = godotenv.Load()

	// Parse command-line flags
	var (
		port       = flag.String("port", "8080", "HTTP server port")
		ledgerURL  = flag.String("ledger-url", envOr("LEDGER_URL", "http://localhost:4000"), "Ledger API base URL (or set LEDGER_URL env)")
		nluURL     = flag.String("nlu-url", nlu.DefaultBaseURL, "Wit.ai base URL")
		classifier = flag.String("classifier", envOr("CLASSIFIER", "wit"), "NLU backend: wit or gemini")
		channelURL = flag.String("channel-url", os.Getenv("CHANNEL_URL"), "Conversation channel websocket URL (or set CHANNEL_URL env)")
		debounce   = flag.Duration("debounce", draft.DefaultQuiet, "Draft aggregation quiet window")
		pulseClear = flag.Duration("pulse-clear", pulse.DefaultClearAfter, "Validation pulse auto-clear deadline")
	)
	flag.Parse()

	// Initialize logger
	log := logger.New()

	// Initialize the NLU backend
	var nluClient nlu.Classifier
	switch *classifier {
	case "gemini":
		nluClient = nlu.NewGemini(nlu.DefaultModelName)
	default:
		token := os.Getenv("WIT_TOKEN")
		if token == "" {
			log.Warn().Msg("No WIT_TOKEN configured - recognition requests will fail")
		}
		nluClient = nlu.NewClient(*nluURL, token)
	}

	resolver := intent.NewResolver()
	ledger := ledgerapi.NewClient(*ledgerURL)
	convo := conversation.NewLog()

	// Draft pipeline: debounced aggregation plus the validation pulse
	drafts := draft.NewAggregator(*debounce)
	defer drafts.Close()
	machine := pulse.NewMachine(*pulseClear)
	defer machine.Close()
	gate := pulse.NewGate(machine, drafts)

	machine.OnTransition(func(invalid bool) {
		log.Debug().Bool("invalid", invalid).Msg("Validation pulse")
	})

	// The conversation channel is best-effort: the HTTP surface works
	// without it.
	if *channelURL != "" {
		dialCtx, cancelDial := context.WithTimeout(context.Background(), 10*time.Second)
		sink := func(event string, payload json.RawMessage) {
			log.Warn().Str("event", event).RawJSON("payload", payload).Msg("Channel error event")
		}
		ch, err := channel.Dial(dialCtx, *channelURL, convo, sink, log)
		cancelDial()
		if err != nil {
			log.Warn().Err(err).Str("url", *channelURL).Msg("Conversation channel unavailable")
		} else {
			defer ch.Close()
		}
	}

	// Initialize handlers
	draftHandler := handlers.NewDraftHandler(drafts, gate, machine, ledger, log)
	recognizeHandler := handlers.NewRecognizeHandler(nluClient, resolver, log)
	conversationHandler := handlers.NewConversationHandler(convo, log)
	expensesHandler := handlers.NewExpensesHandler(ledger, log)

	// Create router
	mux := http.NewServeMux()

	mux.HandleFunc("/api/draft", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			draftHandler.SubmitDraft(w, r)
		case http.MethodGet:
			draftHandler.GetDraft(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/draft/save", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			draftHandler.SaveDraft(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/recognize", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			recognizeHandler.Recognize(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/conversation", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			conversationHandler.ListMessages(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/expenses", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			expensesHandler.ListExpenses(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/health", handlers.HealthCheck)

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(mux),
			),
		),
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", *port).Str("classifier", *classifier).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
