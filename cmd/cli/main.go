package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fk1blow/haplea/internal/draft"
	"github.com/fk1blow/haplea/internal/intent"
	"github.com/fk1blow/haplea/internal/ledgerapi"
	"github.com/fk1blow/haplea/internal/logger"
	"github.com/fk1blow/haplea/internal/nlu"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {
	_ = godotenv.Load()
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "parse":
		runParse(log)
	case "recognize":
		runRecognize(log)
	case "expenses":
		runExpenses(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Haplea CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  parse      Parse draft text and print its lines, tokens and total")
	fmt.Println("  recognize  Classify a free-form query into a command")
	fmt.Println("  expenses   List expenses from the ledger API")
	fmt.Println("  help       Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

func runParse(log zerolog.Logger) {
	fs := flag.NewFlagSet("parse", flag.ExitOnError)
	text := fs.String("text", "", "Draft text to parse (reads stdin when empty)")
	fs.Parse(os.Args[2:])

	raw := *text
	if raw == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to read stdin")
		}
		raw = string(data)
	}

	snap := draft.Compute(raw)

	fmt.Printf("Lines (%d):\n", len(snap.Lines))
	for i, line := range snap.Lines {
		fmt.Printf("  %d. %s\n", i+1, line)
	}
	fmt.Printf("\nTokens (%d):\n", len(snap.Tokens))
	for _, tok := range snap.Tokens {
		fmt.Printf("  %s -> %s %s\n", tok.Raw, tok.Amount, tok.Unit)
	}
	fmt.Printf("\nTotal: %s\n", snap.Total)
}

func runRecognize(log zerolog.Logger) {
	fs := flag.NewFlagSet("recognize", flag.ExitOnError)
	query := fs.String("query", "", "Query to classify")
	backend := fs.String("classifier", envOr("CLASSIFIER", "wit"), "NLU backend: wit or gemini")
	nluURL := fs.String("nlu-url", nlu.DefaultBaseURL, "Wit.ai base URL")
	fs.Parse(os.Args[2:])

	if *query == "" && fs.NArg() > 0 {
		*query = strings.Join(fs.Args(), " ")
	}
	if *query == "" {
		log.Fatal().Msg("Error: --query is required")
	}

	var classifier nlu.Classifier
	switch *backend {
	case "gemini":
		classifier = nlu.NewGemini(nlu.DefaultModelName)
	default:
		token := os.Getenv("WIT_TOKEN")
		if token == "" {
			log.Fatal().Msg("Error: WIT_TOKEN is required for the wit backend")
		}
		classifier = nlu.NewClient(*nluURL, token)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	bundle, err := classifier.Classify(ctx, *query)
	if err != nil {
		log.Fatal().Err(err).Msg("Classification failed")
	}

	cmd := intent.NewResolver().Resolve(bundle)
	desc := cmd.Descriptor()

	fmt.Printf("Command: %s\n", cmd.Name())
	fmt.Printf("Path:    %s\n", desc.Path)
	if desc.Date != nil {
		fmt.Printf("Date:    %s\n", desc.Date)
	}
	if desc.Unit != "" {
		fmt.Printf("Window:  %g %s(s) back\n", desc.Value, desc.Unit)
	}
}

func runExpenses(log zerolog.Logger) {
	fs := flag.NewFlagSet("expenses", flag.ExitOnError)
	ledgerURL := fs.String("ledger-url", envOr("LEDGER_URL", "http://localhost:4000"), "Ledger API base URL")
	intentName := fs.String("intent", "", "Window intent (see-yesterday or see-before-relative)")
	unit := fs.String("unit", "day", "Window unit for see-before-relative")
	value := fs.Float64("value", 1, "Window size for see-before-relative")
	fs.Parse(os.Args[2:])

	var filter *ledgerapi.Filter
	if *intentName != "" {
		filter = &ledgerapi.Filter{Intent: *intentName, Unit: *unit, Value: *value}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	expenses, err := ledgerapi.NewClient(*ledgerURL).FetchAll(ctx, filter)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to fetch expenses")
	}

	fmt.Printf("Expenses (%d):\n", len(expenses))
	for _, e := range expenses {
		fmt.Printf("  %s  %s lei  %s\n", e.SpentAt, e.Sum, e.Merchandise)
		for _, item := range e.Items {
			fmt.Printf("      - %s\n", item)
		}
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
