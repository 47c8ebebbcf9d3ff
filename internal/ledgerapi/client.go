// Package ledgerapi is the HTTP client for the ledger backend. Only the
// request/response contract lives here; storage is the backend's concern.
package ledgerapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/fk1blow/haplea/internal/intent"
)

// Expense is one stored ledger entry as the backend returns it.
type Expense struct {
	ID          int             `json:"id"`
	Items       []string        `json:"items"`
	Merchandise []string        `json:"merchandise"`
	SpentAt     string          `json:"spent_at"`
	Sum         decimal.Decimal `json:"sum"`
}

// NewExpense is the create payload: the entry date, the draft's total and
// its raw line items.
type NewExpense struct {
	On    civil.Date      `json:"on"`
	Sum   decimal.Decimal `json:"sum"`
	Items []string        `json:"items"`
}

// Filter expresses an "entries newer than Value Units" query.
type Filter struct {
	Intent string
	Unit   string
	Value  float64
}

// FilterFromCommand derives the fetch filter a see-command implies.
// Commands that carry no query window yield nil.
func FilterFromCommand(cmd intent.Command) *Filter {
	switch c := cmd.(type) {
	case intent.SeeYesterday:
		return &Filter{Intent: c.Name(), Unit: "day", Value: 1}
	case intent.SeeBeforeRelative:
		return &Filter{Intent: c.Name(), Unit: c.Unit, Value: c.Value}
	default:
		return nil
	}
}

// Client talks to the ledger backend over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Client for the given backend base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// FetchAll lists expenses, optionally narrowed by a filter.
func (c *Client) FetchAll(ctx context.Context, filter *Filter) ([]Expense, error) {
	endpoint := c.baseURL + "/api/expenses"
	if filter != nil {
		params := url.Values{}
		params.Set("intent", filter.Intent)
		params.Set("unit", filter.Unit)
		params.Set("value", strconv.FormatFloat(filter.Value, 'f', -1, 64))
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch expenses: build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch expenses: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch expenses: status %d", resp.StatusCode)
	}

	var decoded struct {
		Data []Expense `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("fetch expenses: decode response: %w", err)
	}

	return decoded.Data, nil
}

// Create stores a new expense.
func (c *Client) Create(ctx context.Context, expense NewExpense) error {
	body, err := json.Marshal(map[string]NewExpense{"expense": expense})
	if err != nil {
		return fmt.Errorf("create expense: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/expenses", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create expense: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("create expense: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("create expense: status %d", resp.StatusCode)
	}

	return nil
}
