// Package oanda reads candles from the OANDA v3 REST API.
package oanda

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rustyeddy/binscan/broker"
)

type Client struct {
	BaseURL string // e.g. https://api-fxpractice.oanda.com
	Token   string
	HTTP    *http.Client
}

func New(env, token string) (*Client, error) {
	base, err := BaseURL(env)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, errors.New("oanda: missing token")
	}
	return &Client{
		BaseURL: base,
		Token:   token,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}, nil
}

func BaseURL(env string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "practice", "demo":
		return "https://api-fxpractice.oanda.com", nil
	case "live":
		return "https://api-fxtrade.oanda.com", nil
	default:
		return "", fmt.Errorf("unknown OANDA env %q (want practice|live)", env)
	}
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP == nil {
		return http.DefaultClient
	}
	return c.HTTP
}

// getJSON decodes the response of a GET into v. Transport failures and 5xx
// responses wrap broker.ErrConnectivity.
func (c *Client) getJSON(ctx context.Context, path string, q url.Values, v any) error {
	if c.Token == "" {
		return fmt.Errorf("oanda: missing token")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("oanda: missing base url")
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return err
	}
	u.Path = path
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Accept-Datetime-Format", "RFC3339")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %w", broker.ErrConnectivity, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		err := fmt.Errorf("oanda http %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		if resp.StatusCode >= 500 {
			return fmt.Errorf("%w: %w", broker.ErrConnectivity, err)
		}
		return err
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

// Reconnect drops pooled connections and probes the API with a one-bar
// request.
func (c *Client) Reconnect(ctx context.Context) error {
	c.httpClient().CloseIdleConnections()
	_, err := c.Candles(ctx, "EURUSD", time.Minute, 1, time.Time{})
	return err
}
