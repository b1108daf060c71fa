package events

import (
	"github.com/rs/zerolog"
)

// Lifecycle event names published on the notification bus.
const (
	WalletAdd    = "wallet.add"
	ScanStart    = "wallet.scan.start"
	ScanComplete = "wallet.scan.complete"
	PnlStart     = "wallet.pnl.start"
	PnlComplete  = "wallet.pnl.complete"
)

// Publisher is the notification port. Publishing is fire-and-forget,
// at-most-once per call site: implementations must not block the caller on
// delivery and must not surface delivery failures.
type Publisher interface {
	Publish(name string, payload interface{})
}

// Nop discards all events. It is the default so the core stays usable
// without a live subscriber.
type Nop struct{}

func (Nop) Publish(string, interface{}) {}

// Log writes events to the structured log.
type Log struct {
	Logger zerolog.Logger
}

func (l Log) Publish(name string, payload interface{}) {
	l.Logger.Info().Str("event", name).Interface("payload", payload).Msg("event published")
}
