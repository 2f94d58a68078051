// Package remote implements the HTTP client for the central server: command
// delivery, token refresh and catalog page fetches.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	catalogDomain "github.com/allisson/possync/internal/catalog/domain"
	apperrors "github.com/allisson/possync/internal/errors"
	"github.com/allisson/possync/internal/outbox/domain"
)

// Config holds remote client configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// TokenProvider supplies the bearer token for catalog reads.
type TokenProvider interface {
	AccessToken(ctx context.Context) (string, error)
}

// Client talks to the central server. Command delivery uses a plain HTTP
// client so the dispatcher sees every status code exactly once and classifies
// it itself; catalog reads are idempotent and go through a retrying client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	retrying   *retryablehttp.Client
	tokens     TokenProvider
	logger     *slog.Logger
}

// NewClient creates a new Client.
func NewClient(config Config, tokens TokenProvider, logger *slog.Logger) *Client {
	retrying := retryablehttp.NewClient()
	retrying.RetryMax = 3
	retrying.HTTPClient.Timeout = config.Timeout
	retrying.Logger = nil

	return &Client{
		baseURL: config.BaseURL,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		retrying: retrying,
		tokens:   tokens,
		logger:   logger,
	}
}

// errorEnvelope is the server's error response body.
type errorEnvelope struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// commandRoute maps a command type to its server endpoint.
func commandRoute(typ domain.CommandType) (string, error) {
	switch typ {
	case domain.CommandTypeSyncSale:
		return "/pos/sales/sync", nil
	case domain.CommandTypeOpenShift:
		return "/pos/shifts/open", nil
	case domain.CommandTypeCloseShift:
		return "/pos/shifts/close", nil
	case domain.CommandTypeRecordCashEvent:
		return "/pos/shifts/cash-events", nil
	default:
		return "", apperrors.Wrap(apperrors.ErrInvalidInput, fmt.Sprintf("no route for command type %q", typ))
	}
}

// Send delivers one outbox command. The command's idempotency key travels in
// the Idempotency-Key header on every delivery, including resends, so the
// server applies the effect at most once.
func (c *Client) Send(ctx context.Context, cmd *domain.Command, accessToken string) (*domain.ServerRefs, error) {
	route, err := commandRoute(cmd.Type)
	if err != nil {
		return nil, err
	}

	// A payload that no longer decodes for its declared type is a corrupted
	// row; refuse to put it on the wire.
	if _, err := domain.DecodePayload(cmd); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+route,
		bytes.NewReader([]byte(cmd.Payload)))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Idempotency-Key", cmd.IdempotencyKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrUnreachable, err.Error())
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrUnreachable, err.Error())
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var refs domain.ServerRefs
		if len(body) > 0 {
			if err := json.Unmarshal(body, &refs); err != nil {
				return nil, apperrors.Wrap(err, "failed to decode server response")
			}
		}
		return &refs, nil
	}

	return nil, c.remoteError(resp.StatusCode, body)
}

// remoteError builds a classified error from a non-2xx response.
func (c *Client) remoteError(statusCode int, body []byte) *apperrors.RemoteError {
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Message == "" {
		envelope.Message = http.StatusText(statusCode)
	}

	return &apperrors.RemoteError{
		StatusCode: statusCode,
		Code:       envelope.Error,
		Message:    envelope.Message,
	}
}

// productPageResponse is the server's catalog page body.
type productPageResponse struct {
	Products   []productResponse `json:"products"`
	HasMore    bool              `json:"has_more"`
	ServerTime time.Time         `json:"server_time"`
}

// productResponse is one catalog item on the wire.
type productResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	SKU        string    `json:"sku"`
	PriceCents int64     `json:"price_cents"`
	Active     bool      `json:"active"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// FetchProducts retrieves one page of catalog changes since the watermark.
// A nil watermark requests the full catalog. The fetch is idempotent, so it
// goes through the retrying client; whatever errors survive the retries are
// reported as unreachable.
func (c *Client) FetchProducts(ctx context.Context, since *time.Time, page, pageSize int) (*catalogDomain.ProductPage, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("page_size", strconv.Itoa(pageSize))
	if since != nil {
		query.Set("since", since.UTC().Format(time.RFC3339Nano))
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/catalog/products?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}

	if c.tokens != nil {
		token, err := c.tokens.AccessToken(ctx)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.retrying.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrUnreachable, err.Error())
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrUnreachable, err.Error())
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.remoteError(resp.StatusCode, body)
	}

	var pageResp productPageResponse
	if err := json.Unmarshal(body, &pageResp); err != nil {
		return nil, apperrors.Wrap(err, "failed to decode catalog page")
	}

	products := make([]*catalogDomain.Product, len(pageResp.Products))
	for i, p := range pageResp.Products {
		products[i] = &catalogDomain.Product{
			ID:         p.ID,
			Name:       p.Name,
			SKU:        p.SKU,
			PriceCents: p.PriceCents,
			Active:     p.Active,
			UpdatedAt:  p.UpdatedAt,
		}
	}

	return &catalogDomain.ProductPage{
		Products:   products,
		HasMore:    pageResp.HasMore,
		ServerTime: pageResp.ServerTime,
	}, nil
}
