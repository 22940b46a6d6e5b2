// Package fetcher retrieves the current XML export for a RIN from the
// reginfo.gov Unified Agenda and parses it into a Record.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/danbauman77/reginfo-monitor/internal/config"
	"github.com/danbauman77/reginfo-monitor/internal/types"
)

// Fetcher is the record-retrieval boundary the orchestrator depends on.
type Fetcher interface {
	// Fetch returns the current record for a RIN, or a *types.FetchError.
	Fetch(ctx context.Context, rin string) (*types.Record, error)
}

// Client fetches RIN exports from reginfo.gov. Candidate publication IDs
// are discovered once and cached for the lifetime of the client, which is
// one run; the first fetch that hits a real export pins the publication
// the rest of the run uses.
type Client struct {
	cfg    config.FetchConfig
	http   *http.Client
	logger *zap.Logger

	mu     sync.Mutex
	pubIDs []string
	pubID  string
	pubErr error
}

// NewClient creates a reginfo.gov fetcher.
func NewClient(cfg config.FetchConfig, logger *zap.Logger) *Client {
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Fetch retrieves and parses the export for one RIN, trying candidate
// publications newest first until one holds a real export.
func (c *Client) Fetch(ctx context.Context, rin string) (*types.Record, error) {
	pubIDs, err := c.candidatePublications(ctx)
	if err != nil {
		return nil, &types.FetchError{RIN: rin, Err: err}
	}

	for _, pubID := range pubIDs {
		body, err := c.get(ctx, c.exportURL(rin, pubID))
		if err != nil {
			return nil, &types.FetchError{RIN: rin, Err: err}
		}

		// The endpoint answers 200 with a placeholder when the RIN is
		// not in the publication.
		if len(body) < 100 || strings.Contains(strings.ToLower(string(body)), "not found") {
			continue
		}

		record, err := parseRecord(rin, pubID, strings.NewReader(string(body)))
		if err != nil {
			return nil, &types.FetchError{RIN: rin, Err: err}
		}

		c.confirmPublication(pubID)
		c.logger.Debug("Fetched record",
			zap.String("rin", rin),
			zap.String("publication", pubID),
			zap.Int("fields", len(record.Fields)))
		return record, nil
	}

	return nil, &types.FetchError{RIN: rin,
		Err: fmt.Errorf("tried %d publication(s): %w", len(pubIDs), types.ErrRINNotFound)}
}

// exportURL builds the XML export URL for one RIN in one publication.
func (c *Client) exportURL(rin, pubID string) string {
	return fmt.Sprintf(
		"%s/public/do/eAgendaViewRule?pubId=%s&RIN=%s&operation=OPERATION_EXPORT_XML",
		c.cfg.BaseURL, pubID, rin)
}

// get performs one GET and returns the body; non-200 statuses are errors.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reginfo.gov returned %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}
