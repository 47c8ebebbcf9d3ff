package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"cloud.google.com/go/civil"
	"github.com/fk1blow/haplea/internal/api/middleware"
	"github.com/fk1blow/haplea/internal/conversation"
	"github.com/fk1blow/haplea/internal/draft"
	"github.com/fk1blow/haplea/internal/intent"
	"github.com/fk1blow/haplea/internal/ledgerapi"
	"github.com/fk1blow/haplea/internal/nlu"
	"github.com/fk1blow/haplea/internal/pulse"
	"github.com/rs/zerolog"
)

// LedgerService is the slice of the ledger client the handlers need.
type LedgerService interface {
	FetchAll(ctx context.Context, filter *ledgerapi.Filter) ([]ledgerapi.Expense, error)
	Create(ctx context.Context, expense ledgerapi.NewExpense) error
}

var _ LedgerService = (*ledgerapi.Client)(nil)

// DraftHandler handles the draft lifecycle: edits, reads and saves.
type DraftHandler struct {
	drafts *draft.Aggregator
	gate   *pulse.Gate
	pulses *pulse.Machine
	ledger LedgerService
	now    func() time.Time
	log    zerolog.Logger
}

// NewDraftHandler creates a new draft handler.
func NewDraftHandler(drafts *draft.Aggregator, gate *pulse.Gate, pulses *pulse.Machine, ledger LedgerService, log zerolog.Logger) *DraftHandler {
	return &DraftHandler{
		drafts: drafts,
		gate:   gate,
		pulses: pulses,
		ledger: ledger,
		now:    time.Now,
		log:    log,
	}
}

// SubmitDraft handles POST /api/draft
func (h *DraftHandler) SubmitDraft(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	h.drafts.Submit(req.Text)

	// The aggregator settles after its quiet window, so the snapshot
	// returned here is the last completed one, not necessarily req.Text.
	middleware.WriteJSON(w, http.StatusOK, h.drafts.Snapshot())
}

// GetDraft handles GET /api/draft
func (h *DraftHandler) GetDraft(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"draft":   h.drafts.Snapshot(),
		"invalid": h.pulses.State(),
	})
}

// SaveDraft handles POST /api/draft/save
func (h *DraftHandler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	var req struct {
		On string `json:"on"`
	}

	// The body is optional, a missing date means today.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if !h.gate.Save() {
		middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"saved":   false,
			"invalid": true,
		})
		return
	}

	on := civil.DateOf(h.now())
	if req.On != "" {
		parsed, err := civil.ParseDate(req.On)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
			return
		}
		on = parsed
	}

	snap := h.drafts.Snapshot()
	expense := ledgerapi.NewExpense{
		On:    on,
		Sum:   snap.Total,
		Items: snap.Lines,
	}

	if err := h.ledger.Create(r.Context(), expense); err != nil {
		h.log.Error().Err(err).Str("on", on.String()).Msg("Failed to create expense")
		middleware.WriteError(w, http.StatusBadGateway, "Failed to create expense")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"saved":   true,
		"invalid": false,
		"expense": expense,
	})
}

// RecognizeHandler classifies free-form queries into commands.
type RecognizeHandler struct {
	classifier nlu.Classifier
	resolver   *intent.Resolver
	log        zerolog.Logger
}

// NewRecognizeHandler creates a new recognize handler.
func NewRecognizeHandler(classifier nlu.Classifier, resolver *intent.Resolver, log zerolog.Logger) *RecognizeHandler {
	return &RecognizeHandler{
		classifier: classifier,
		resolver:   resolver,
		log:        log,
	}
}

// Recognize handles POST /api/recognize
func (h *RecognizeHandler) Recognize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Query == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Query is required")
		return
	}

	bundle, err := h.classifier.Classify(r.Context(), req.Query)
	if err != nil {
		// Infrastructure failure, not an unrecognized query. An
		// unrecognized query still resolves, to the undefined command.
		h.log.Error().Err(err).Str("query", req.Query).Msg("Classification failed")
		middleware.WriteError(w, http.StatusBadGateway, "Classification unavailable")
		return
	}

	cmd := h.resolver.Resolve(bundle)

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"command":    cmd.Name(),
		"descriptor": cmd.Descriptor(),
		"entities":   bundle,
	})
}

// ConversationHandler exposes the in-memory conversation log.
type ConversationHandler struct {
	convo *conversation.Log
	log   zerolog.Logger
}

// NewConversationHandler creates a new conversation handler.
func NewConversationHandler(convo *conversation.Log, log zerolog.Logger) *ConversationHandler {
	return &ConversationHandler{convo: convo, log: log}
}

// ListMessages handles GET /api/conversation
func (h *ConversationHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	messages := h.convo.Snapshot()

	out := make([]map[string]interface{}, 0, len(messages))
	for _, m := range messages {
		renderer := conversation.SelectRenderer(m.Data.Name)
		out = append(out, map[string]interface{}{
			"message":  m,
			"renderer": renderer.String(),
		})
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"messages": out,
		"count":    len(out),
	})
}

// ExpensesHandler proxies ledger reads.
type ExpensesHandler struct {
	ledger LedgerService
	log    zerolog.Logger
}

// NewExpensesHandler creates a new expenses handler.
func NewExpensesHandler(ledger LedgerService, log zerolog.Logger) *ExpensesHandler {
	return &ExpensesHandler{ledger: ledger, log: log}
}

// ListExpenses handles GET /api/expenses
func (h *ExpensesHandler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var filter *ledgerapi.Filter
	if intentName := r.URL.Query().Get("intent"); intentName != "" {
		filter = &ledgerapi.Filter{
			Intent: intentName,
			Unit:   r.URL.Query().Get("unit"),
			Value:  1,
		}
		if raw := r.URL.Query().Get("value"); raw != "" {
			value, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				middleware.WriteError(w, http.StatusBadRequest, "Invalid value parameter")
				return
			}
			filter.Value = value
		}
	}

	expenses, err := h.ledger.FetchAll(ctx, filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to fetch expenses")
		middleware.WriteError(w, http.StatusBadGateway, "Failed to fetch expenses")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"expenses": expenses,
		"count":    len(expenses),
	})
}

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
