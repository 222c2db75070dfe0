package d1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/KLfungli/workers-sdk/internal/retry"
)

const defaultBaseURL = "https://api.cloudflare.com/client/v4"

// Client executes SQL against a D1 database through the Cloudflare v4
// API. Transient failures (5xx, network) are retried with backoff;
// API-level errors are not.
type Client struct {
	BaseURL   string
	AccountID string
	APIToken  string
	Retry     retry.Config

	httpClient *http.Client
}

// NewClient builds a D1 API client for one account.
func NewClient(accountID, apiToken string) *Client {
	return &Client{
		BaseURL:    defaultBaseURL,
		AccountID:  accountID,
		APIToken:   apiToken,
		Retry:      retry.DefaultConfig(),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// QueryResult is one statement's outcome.
type QueryResult struct {
	Results []map[string]any `json:"results"`
	Success bool             `json:"success"`
	Meta    struct {
		Duration     float64 `json:"duration"`
		RowsRead     int64   `json:"rows_read"`
		RowsWritten  int64   `json:"rows_written"`
		ChangedDB    bool    `json:"changed_db"`
		LastRowID    int64   `json:"last_row_id"`
		SizeAfter    int64   `json:"size_after"`
		ServedByName string  `json:"served_by"`
	} `json:"meta"`
}

// serverError is a 5xx response from the API, always worth retrying.
type serverError struct {
	status string
	code   int
}

func (e *serverError) Error() string {
	return fmt.Sprintf("d1 api returned %s", e.status)
}

// retryable classifies errors for the retry loop: any 5xx and any
// transient network failure. API-level errors (4xx envelopes) never
// reach here as errors and are not retried.
func retryable(err error) bool {
	var srv *serverError
	if errors.As(err, &srv) {
		return true
	}
	return retry.IsTransient(err)
}

// envelope is the standard Cloudflare v4 response wrapper.
type envelope struct {
	Result  []QueryResult `json:"result"`
	Success bool          `json:"success"`
	Errors  []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// Execute runs the statements as one batch against databaseID and
// returns the per-statement results in order.
func (c *Client) Execute(ctx context.Context, databaseID string, statements []string) ([]QueryResult, error) {
	if len(statements) == 0 {
		return nil, nil
	}

	payload, err := json.Marshal(map[string]string{
		"sql": strings.Join(statements, ";\n") + ";",
	})
	if err != nil {
		return nil, fmt.Errorf("encode query payload: %w", err)
	}

	url := fmt.Sprintf("%s/accounts/%s/d1/database/%s/query", c.BaseURL, c.AccountID, databaseID)

	var env envelope
	err = retry.Do(ctx, c.Retry, retryable, func() error {
		return c.post(ctx, url, payload, &env)
	})
	if err != nil {
		return nil, err
	}

	if !env.Success {
		if len(env.Errors) > 0 {
			return nil, fmt.Errorf("d1 query failed: %s (code %d)", env.Errors[0].Message, env.Errors[0].Code)
		}
		return nil, fmt.Errorf("d1 query failed")
	}
	return env.Result, nil
}

func (c *Client) post(ctx context.Context, url string, payload []byte, out *envelope) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return &serverError{status: resp.Status, code: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode d1 response: %w", err)
	}
	return nil
}
