package engine

import (
	"time"

	"github.com/andrewbyteforge/dexsniper/internal/domain"
)

// EventKind tags engine events on the bus.
type EventKind string

const (
	EventOpportunityFound EventKind = "OPPORTUNITY_FOUND"
	EventTradeExecuted    EventKind = "TRADE_EXECUTED"
	EventPositionClosed   EventKind = "POSITION_CLOSED"
	EventRiskAlert        EventKind = "RISK_ALERT"
)

// Event is one entry on the engine's event bus.
type Event struct {
	Kind        EventKind
	At          time.Time
	Message     string
	Opportunity *domain.Opportunity
	Trade       *domain.TradeRecord
	Position    *domain.ClosedPosition
}

// Events is a bounded single-channel event bus. Publishing never blocks the
// engine: when the buffer is full the oldest event is dropped, which gives
// slow consumers backpressure instead of unbounded callback fan-out.
type Events struct {
	ch chan Event
}

// NewEvents creates a bus with the given buffer size.
func NewEvents(size int) *Events {
	if size <= 0 {
		size = 128
	}
	return &Events{ch: make(chan Event, size)}
}

// Publish enqueues an event, dropping the oldest entry under pressure.
func (e *Events) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	for {
		select {
		case e.ch <- ev:
			return
		default:
			select {
			case <-e.ch: // drop oldest, retry
			default:
			}
		}
	}
}

// C returns the receive side of the bus.
func (e *Events) C() <-chan Event {
	return e.ch
}
