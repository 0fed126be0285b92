// Package feed defines the market-data collaborator the scanner talks to:
// subscribe/cancel by numeric id, contract-detail lookups, and a single
// inbound event stream. The wire protocol behind it is the vendor's
// business; the scanner only sees Events.
package feed

import "context"

// TickField identifies which quote field a tick event carries.
type TickField int

const (
	TickBid TickField = iota
	TickAsk
	TickLast
	TickClose
)

func (f TickField) String() string {
	switch f {
	case TickBid:
		return "bid"
	case TickAsk:
		return "ask"
	case TickLast:
		return "last"
	case TickClose:
		return "close"
	}
	return "unknown"
}

// Contract describes an instrument for subscription or lookup.
type Contract struct {
	Symbol  string  `json:"symbol"`
	SecType string  `json:"sec_type"`
	Expiry  string  `json:"expiry,omitempty"`
	Strike  float64 `json:"strike,omitempty"`
	Right   string  `json:"right,omitempty"`
}

// Stock builds an underlying-leg contract.
func Stock(symbol string) Contract {
	return Contract{Symbol: symbol, SecType: "STK"}
}

// Option builds a put option contract for a quote subscription.
func Option(symbol, expiry string, strike float64) Contract {
	return Contract{Symbol: symbol, SecType: "OPT", Expiry: expiry, Strike: strike, Right: "P"}
}

// OptionQuery builds the strike-less option contract used for chain
// discovery; the feed answers with one detail event per listed contract.
func OptionQuery(symbol, expiry string) Contract {
	return Contract{Symbol: symbol, SecType: "OPT", Expiry: expiry}
}

// EventType discriminates inbound events.
type EventType int

const (
	EventTick EventType = iota
	EventContractDetails
	EventError
)

// Event is one inbound message from the feed. Which fields are set
// depends on Type: ticks carry Field/Price, contract details carry
// Contract, errors carry Code/Msg.
type Event struct {
	Type     EventType
	ReqID    int
	Field    TickField
	Price    float64
	Contract Contract
	Code     int
	Msg      string
}

// Client is the outbound surface of the feed. Implementations must keep
// Events() open for the life of the connection and deliver events in
// arrival order; cancelling an id the feed does not know is a no-op.
type Client interface {
	Connect(ctx context.Context) error
	Close() error
	Events() <-chan Event
	SubscribeMarketData(id int, c Contract) error
	CancelMarketData(id int) error
	RequestContractDetails(id int, c Contract) error
}
