// Package autotrade is the client for the remote pricing API: it lists the
// warehouses an account may draw stock from and looks up wholesale prices and
// per-warehouse stock for batches of articles.
//
// Every call is an idempotent lookup, so failed attempts are simply repeated.
// A call that keeps failing returns *errors.RemoteUnavailableError; results
// are never partial.
package autotrade

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/pricemap/internal/transport"
	"github.com/agentstation/pricemap/pkg/catalogs"
	"github.com/agentstation/pricemap/pkg/constants"
	"github.com/agentstation/pricemap/pkg/errors"
)

// API method names.
const (
	MethodStoragesList   = "getStoragesList"
	MethodStocksAndPrice = "getStocksAndPrices"
)

// Client calls the pricing API.
type Client struct {
	transport *transport.Client
	authKey   string
	baseURL   string
	attempts  int
	delay     time.Duration
	sleep     SleepFunc
	logger    *zerolog.Logger
}

// New creates a client authenticating with authKey.
func New(authKey string, opts ...Option) (*Client, error) {
	o, err := defaultOptions().apply(opts...)
	if err != nil {
		return nil, err
	}
	return &Client{
		transport: transport.New(o.httpClient),
		authKey:   authKey,
		baseURL:   o.baseURL,
		attempts:  o.attempts,
		delay:     o.delay,
		sleep:     o.sleep,
		logger:    o.logger,
	}, nil
}

// Storage is a warehouse record from the storage list.
type Storage struct {
	ID             string `json:"id" yaml:"id"`
	Name           string `json:"name,omitempty" yaml:"name,omitempty"`
	ForRealization bool   `json:"for_realization" yaml:"for_realization"`
	ForDelivery    bool   `json:"for_delivery" yaml:"for_delivery"`
}

// Eligible reports whether stock in the warehouse can be sold or delivered.
func (s Storage) Eligible() bool {
	return s.ForRealization || s.ForDelivery
}

// ListStorages returns every warehouse record, ordered by id.
func (c *Client) ListStorages(ctx context.Context) ([]Storage, error) {
	var raw objectMap[json.RawMessage]
	if err := c.call(ctx, MethodStoragesList, nil, &raw); err != nil {
		return nil, err
	}

	storages := make([]Storage, 0, len(raw))
	for key, msg := range raw {
		msg = bytes.TrimSpace(msg)
		if len(msg) == 0 || msg[0] != '{' {
			continue
		}
		var rec storageRecord
		if err := json.Unmarshal(msg, &rec); err != nil {
			c.logger.Debug().Str("key", key).Err(err).Msg("Skipping unreadable storage record")
			continue
		}
		id := string(rec.ID)
		if id == "" {
			id = key
		}
		storages = append(storages, Storage{
			ID:             id,
			Name:           rec.Name,
			ForRealization: rec.ForRealization == 1,
			ForDelivery:    rec.ForDelivery == 1,
		})
	}
	sort.Slice(storages, func(i, j int) bool { return lessID(storages[i].ID, storages[j].ID) })
	return storages, nil
}

// Storages returns the ids of the warehouses eligible for stock lookups.
func (c *Client) Storages(ctx context.Context) ([]string, error) {
	all, err := c.ListStorages(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(all))
	for _, s := range all {
		if s.Eligible() {
			ids = append(ids, s.ID)
		}
	}
	c.logger.Info().Int("count", len(ids)).Strs("storages", ids).Msg("Loaded eligible storages")
	return ids, nil
}

// FetchBatch looks up prices and stock for up to constants.MaxBatchSize items
// in the given warehouses. The result is keyed by article; articles the API
// knows nothing about are absent.
func (c *Client) FetchBatch(ctx context.Context, keys []catalogs.Key, storages []string) (map[string]catalogs.Quote, error) {
	if len(keys) > constants.MaxBatchSize {
		return nil, &errors.ValidationError{
			Field:   "items",
			Value:   len(keys),
			Message: fmt.Sprintf("at most %d items per request", constants.MaxBatchSize),
		}
	}
	if len(keys) == 0 {
		return map[string]catalogs.Quote{}, nil
	}

	items := make(map[string]map[string]int, len(keys))
	for _, k := range keys {
		brands, ok := items[k.Article]
		if !ok {
			brands = make(map[string]int, 1)
			items[k.Article] = brands
		}
		brands[k.Brand] = 1
	}
	if storages == nil {
		storages = []string{}
	}

	params := map[string]any{
		"params": map[string]any{
			"storages":     storages,
			"items":        items,
			"withDelivery": 1,
			"checkTransit": 1,
		},
	}

	var resp stocksResponse
	if err := c.call(ctx, MethodStocksAndPrice, params, &resp); err != nil {
		return nil, err
	}

	quotes := make(map[string]catalogs.Quote, len(resp.Items))
	for article, rec := range resp.Items {
		quotes[article] = rec.quote()
	}
	return quotes, nil
}

// call performs method with retries. Only the final failure is returned.
func (c *Client) call(ctx context.Context, method string, params map[string]any, out any) error {
	form, err := c.encode(method, params)
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", errors.ErrCanceled, err)
		}

		lastErr = c.attempt(ctx, method, form, out)
		if lastErr == nil {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", errors.ErrCanceled, err)
		}

		c.logger.Warn().
			Err(lastErr).
			Str("method", method).
			Int("attempt", attempt).
			Int("attempts", c.attempts).
			Msg("API request failed")

		if attempt < c.attempts {
			if err := c.sleep(ctx, c.delay); err != nil {
				return fmt.Errorf("%w: %w", errors.ErrCanceled, err)
			}
		}
	}

	return &errors.RemoteUnavailableError{Method: method, Attempts: c.attempts, Err: lastErr}
}

func (c *Client) encode(method string, params map[string]any) (url.Values, error) {
	payload := make(map[string]any, len(params)+2)
	for k, v := range params {
		payload[k] = v
	}
	payload["auth_key"] = c.authKey
	payload["method"] = method

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, &errors.APIError{Method: method, Message: "cannot encode request", Err: err}
	}

	if c.logger.GetLevel() <= zerolog.DebugLevel {
		traced, _ := json.Marshal(params)
		c.logger.Debug().Str("method", method).RawJSON("params", traced).Msg("API request")
	}
	return url.Values{"data": {string(data)}}, nil
}

// attempt performs one request and decodes it into out.
func (c *Client) attempt(ctx context.Context, method string, form url.Values, out any) error {
	resp, err := c.transport.PostForm(ctx, c.baseURL, form)
	if err != nil {
		return &errors.APIError{Method: method, Message: "request failed", Err: err}
	}

	var body json.RawMessage
	if err := transport.DecodeResponse(resp, &body); err != nil {
		var apiErr *errors.APIError
		if errors.As(err, &apiErr) {
			apiErr.Method = method
			return apiErr
		}
		return &errors.APIError{Method: method, Message: "malformed response", Err: err}
	}

	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '{' {
		var env envelope
		if err := json.Unmarshal(body, &env); err == nil && env.Code != 0 {
			return &errors.APIError{Method: method, Code: int(env.Code), Message: env.Message}
		}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &errors.APIError{Method: method, Message: "unexpected response shape", Err: errors.WrapParse("json", method, err)}
	}
	return nil
}
