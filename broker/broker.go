package broker

import (
	"context"
	"errors"
	"time"

	"github.com/rustyeddy/binscan/market"
	"github.com/rustyeddy/binscan/signal"
)

var (
	// ErrRejected means the broker refused an order.
	ErrRejected = errors.New("order rejected")

	// ErrConnectivity means the session with the broker is gone.
	ErrConnectivity = errors.New("broker connectivity lost")

	// ErrOutcomePending means the broker has not settled the order yet.
	ErrOutcomePending = errors.New("outcome not available yet")

	// ErrUnknownOrder means the broker has no record of the order id.
	ErrUnknownOrder = errors.New("unknown order")
)

// InstrumentType is the binary product family an order is placed on.
type InstrumentType string

const (
	Binary  InstrumentType = "binary"
	Digital InstrumentType = "digital"
)

// MarketData returns candles ending at or before end, oldest first. The
// result may include the bar still forming at end.
type MarketData interface {
	Candles(ctx context.Context, asset string, period time.Duration, count int, end time.Time) ([]market.Candle, error)
}

type OrderRequest struct {
	Asset      string
	Direction  signal.Direction
	Stake      float64
	Duration   time.Duration
	Instrument InstrumentType

	// Price is the decision-time price the scanner acted on.
	Price float64
}

type OrderAck struct {
	OrderID    string
	Asset      string
	Instrument InstrumentType
	OpenedAt   time.Time
	Expiry     time.Time
}

type Outcome struct {
	OrderID   string
	Profit    float64
	SettledAt time.Time
}

type OrderPlacer interface {
	PlaceOrder(ctx context.Context, req OrderRequest) (OrderAck, error)
}

type OutcomeQuerier interface {
	QueryOutcome(ctx context.Context, instrument InstrumentType, orderID string) (Outcome, error)
}

// Reconnector is implemented by clients that can re-establish a session.
type Reconnector interface {
	Reconnect(ctx context.Context) error
}

// Broker is the order side of a binary-options venue.
type Broker interface {
	OrderPlacer
	OutcomeQuerier
}
