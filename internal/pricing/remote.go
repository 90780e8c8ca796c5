package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// RemoteSource fetches an authoritative price for one barcode at one store.
// An unavailable price (any upstream failure) reports false; it is never an
// error to the caller.
type RemoteSource interface {
	Fetch(ctx context.Context, barcode, storeID string) (PriceObservation, bool)
}

// ClientConfig holds settings for the remote pricing client.
type ClientConfig struct {
	// BaseURL of the pricing API, without trailing slash.
	BaseURL string `mapstructure:"base_url"`

	// Token is sent as a bearer authorization header when non-empty.
	Token string `mapstructure:"token"`

	// Outbound rate limiting toward the upstream API.
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`

	// DialTimeout bounds connection establishment; RequestTimeout bounds
	// the whole request including body read.
	DialTimeout    time.Duration `mapstructure:"dial_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// DefaultClientConfig returns the default remote client settings.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		BaseURL:           "https://api.sallinggroup.com/v2",
		RequestsPerSecond: 5,
		Burst:             10,
		DialTimeout:       6 * time.Second,
		RequestTimeout:    10 * time.Second,
	}
}

// Client queries the per-item, per-store price endpoint and normalizes the
// response to a single per-unit price observation.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	limiter    *rate.Limiter
	logger     zerolog.Logger
}

// NewClient creates a remote pricing client.
func NewClient(cfg ClientConfig) *Client {
	dialer := &net.Dialer{Timeout: cfg.DialTimeout}
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
			Transport: &http.Transport{
				DialContext:         dialer.DialContext,
				TLSHandshakeTimeout: cfg.DialTimeout,
			},
		},
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		logger:  log.With().Str("component", "remote_lookup").Logger(),
	}
}

// instorePayload is the subset of the upstream response this client
// consumes. Pointer fields distinguish absent from zero.
type instorePayload struct {
	Price     *float64 `json:"price"`
	UnitPrice *float64 `json:"unitPrice"`
	Campaign  *struct {
		Price    *float64 `json:"price"`
		Quantity *int     `json:"quantity"`
	} `json:"campaign"`
	Deposit *struct {
		Price *float64 `json:"price"`
	} `json:"deposit"`
}

type lookupPayload struct {
	Instore *instorePayload `json:"instore"`
}

// Fetch looks up the price for a barcode at a store. Timeouts, non-200
// statuses and malformed payloads all collapse to unavailable.
func (c *Client) Fetch(ctx context.Context, barcode, storeID string) (PriceObservation, bool) {
	if err := c.limiter.Wait(ctx); err != nil {
		return PriceObservation{}, false
	}

	u := fmt.Sprintf("%s/products/%s?storeId=%s",
		c.baseURL, url.PathEscape(barcode), url.QueryEscape(storeID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return PriceObservation{}, false
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug().Err(err).Str("barcode", barcode).Str("store", storeID).Msg("Remote lookup failed")
		return PriceObservation{}, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Debug().Int("status", resp.StatusCode).Str("barcode", barcode).Str("store", storeID).Msg("Remote lookup non-200")
		return PriceObservation{}, false
	}

	var payload lookupPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.logger.Debug().Err(err).Str("barcode", barcode).Msg("Remote lookup payload malformed")
		return PriceObservation{}, false
	}

	return normalize(barcode, storeID, payload.Instore, time.Now())
}

// normalize converts the in-store payload to a per-unit observation. The
// campaign price is normalized to per-unit only when the campaign quantity
// is positive; malformed campaign data counts as absent. The effective
// unit price is the minimum of the present candidates; with neither
// candidate present the lookup is unavailable.
func normalize(barcode, storeID string, in *instorePayload, now time.Time) (PriceObservation, bool) {
	if in == nil {
		return PriceObservation{}, false
	}

	base := in.Price
	if base == nil {
		base = in.UnitPrice
	}

	var campaignUnit *float64
	if in.Campaign != nil && in.Campaign.Price != nil &&
		in.Campaign.Quantity != nil && *in.Campaign.Quantity > 0 {
		u := *in.Campaign.Price / float64(*in.Campaign.Quantity)
		campaignUnit = &u
	}

	unit := minOptional(campaignUnit, base)
	if unit == nil {
		return PriceObservation{}, false
	}

	deposit := 0.0
	if in.Deposit != nil && in.Deposit.Price != nil {
		deposit = *in.Deposit.Price
	}

	return PriceObservation{
		Barcode:    barcode,
		StoreID:    storeID,
		UnitPrice:  *unit,
		Deposit:    deposit,
		CapturedAt: now,
	}, true
}

func minOptional(a, b *float64) *float64 {
	switch {
	case a != nil && b != nil:
		if *a < *b {
			return a
		}
		return b
	case a != nil:
		return a
	default:
		return b
	}
}
