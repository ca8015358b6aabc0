// Package bridge talks to a broker bridge: a small HTTP service that holds
// the logged-in broker session and exposes candles, order placement,
// outcomes and reconnection as JSON endpoints.
//
//	GET  /candles?asset=EURUSD&period=60&count=201&end=<unix>
//	POST /orders                                {asset,direction,stake,duration,instrument,price}
//	GET  /orders/{instrument}/{id}/outcome      200 settled, 202 pending, 404 unknown
//	POST /session/reconnect
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/binscan/broker"
	"github.com/rustyeddy/binscan/market"
)

type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func New(baseURL, token string) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("bridge: missing url")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("bridge: %w", err)
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}, nil
}

type candleJSON struct {
	Time  int64   `json:"time"`
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

type orderJSON struct {
	Asset      string  `json:"asset"`
	Direction  string  `json:"direction"`
	Stake      float64 `json:"stake"`
	Duration   int64   `json:"duration"`
	Instrument string  `json:"instrument"`
	Price      float64 `json:"price"`
}

type ackJSON struct {
	OrderID  string `json:"order_id"`
	OpenedAt int64  `json:"opened_at"`
	Expiry   int64  `json:"expiry"`
}

type outcomeJSON struct {
	Profit    float64 `json:"profit"`
	SettledAt int64   `json:"settled_at"`
}

type errorJSON struct {
	Error string `json:"error"`
}

func (c *Client) Candles(ctx context.Context, asset string, period time.Duration, count int, end time.Time) ([]market.Candle, error) {
	q := url.Values{}
	q.Set("asset", market.CanonicalAsset(asset))
	q.Set("period", strconv.Itoa(int(period/time.Second)))
	q.Set("count", strconv.Itoa(count))
	if !end.IsZero() {
		q.Set("end", strconv.FormatInt(end.Unix(), 10))
	}

	var rows []candleJSON
	status, err := c.do(ctx, http.MethodGet, "/candles?"+q.Encode(), nil, &rows)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound || len(rows) == 0 {
		return nil, fmt.Errorf("bridge %s: %w", asset, market.ErrNoData)
	}

	out := make([]market.Candle, len(rows))
	for i, r := range rows {
		out[i] = market.Candle{
			Time: time.Unix(r.Time, 0).UTC(),
			Open: r.Open, High: r.High, Low: r.Low, Close: r.Close,
		}
	}
	return out, nil
}

func (c *Client) PlaceOrder(ctx context.Context, req broker.OrderRequest) (broker.OrderAck, error) {
	body := orderJSON{
		Asset:      market.CanonicalAsset(req.Asset),
		Direction:  strings.ToLower(string(req.Direction)),
		Stake:      req.Stake,
		Duration:   int64(req.Duration / time.Second),
		Instrument: string(req.Instrument),
		Price:      req.Price,
	}
	var ack ackJSON
	if _, err := c.do(ctx, http.MethodPost, "/orders", body, &ack); err != nil {
		return broker.OrderAck{}, err
	}
	if ack.OrderID == "" {
		return broker.OrderAck{}, fmt.Errorf("%w: bridge returned no order id", broker.ErrRejected)
	}
	return broker.OrderAck{
		OrderID:    ack.OrderID,
		Asset:      body.Asset,
		Instrument: req.Instrument,
		OpenedAt:   time.Unix(ack.OpenedAt, 0).UTC(),
		Expiry:     time.Unix(ack.Expiry, 0).UTC(),
	}, nil
}

func (c *Client) QueryOutcome(ctx context.Context, instrument broker.InstrumentType, orderID string) (broker.Outcome, error) {
	path := fmt.Sprintf("/orders/%s/%s/outcome", url.PathEscape(string(instrument)), url.PathEscape(orderID))
	var out outcomeJSON
	status, err := c.do(ctx, http.MethodGet, path, nil, &out)
	if err != nil {
		return broker.Outcome{}, err
	}
	switch status {
	case http.StatusAccepted:
		return broker.Outcome{}, broker.ErrOutcomePending
	case http.StatusNotFound:
		return broker.Outcome{}, fmt.Errorf("%w: %s", broker.ErrUnknownOrder, orderID)
	}
	return broker.Outcome{
		OrderID:   orderID,
		Profit:    out.Profit,
		SettledAt: time.Unix(out.SettledAt, 0).UTC(),
	}, nil
}

func (c *Client) Reconnect(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/session/reconnect", nil, nil)
	return err
}

// do sends a request and decodes a 200 body into v. 202 and 404 are
// returned to the caller as status codes; other 4xx map to
// broker.ErrRejected, 5xx and transport failures to broker.ErrConnectivity.
func (c *Client) do(ctx context.Context, method, path string, in, v any) (int, error) {
	var rd io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return 0, err
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return 0, err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, fmt.Errorf("%w: %w", broker.ErrConnectivity, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusAccepted, resp.StatusCode == http.StatusNotFound:
		return resp.StatusCode, nil
	case resp.StatusCode >= 500:
		return resp.StatusCode, fmt.Errorf("%w: bridge http %d: %s", broker.ErrConnectivity, resp.StatusCode, readError(resp.Body))
	case resp.StatusCode >= 400:
		return resp.StatusCode, fmt.Errorf("%w: bridge http %d: %s", broker.ErrRejected, resp.StatusCode, readError(resp.Body))
	}

	if v == nil {
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return resp.StatusCode, fmt.Errorf("bridge: decode %s: %w", path, err)
	}
	return resp.StatusCode, nil
}

func readError(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 4*1024))
	var e errorJSON
	if json.Unmarshal(b, &e) == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(b))
}
