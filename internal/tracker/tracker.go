package tracker

import (
	"context"
	"fmt"
	"io"
	"time"

	"crypto-price-tracker/internal/pricebook"
	"crypto-price-tracker/internal/pubsub"
	"crypto-price-tracker/pkg/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Feed is a streaming price source. Err carries the fatal feed error, if
// any; there is no reconnect.
type Feed interface {
	Start(ctx context.Context) error
	Stop()
	TickChannel() <-chan *models.Tick
	Err() <-chan error
}

// Tracker pumps feed ticks through the broker into the price snapshot and
// prints the snapshot on a fixed interval.
type Tracker struct {
	feed     Feed
	broker   *pubsub.Broker
	book     *pricebook.Snapshot
	symbols  []string
	interval time.Duration
	out      io.Writer
}

func New(feed Feed, symbols []string, interval time.Duration, out io.Writer) *Tracker {
	return &Tracker{
		feed:     feed,
		broker:   pubsub.NewBroker(),
		book:     pricebook.New(symbols),
		symbols:  symbols,
		interval: interval,
		out:      out,
	}
}

// Run blocks until ctx is cancelled or the feed fails. A feed failure is
// returned to the caller; cancellation returns nil.
func (t *Tracker) Run(ctx context.Context) error {
	if err := t.broker.Start(ctx); err != nil {
		return fmt.Errorf("failed to start broker: %w", err)
	}
	defer t.broker.Stop()

	subscriber := t.broker.Subscribe(uuid.New().String(), t.symbols, 256)

	if err := t.feed.Start(ctx); err != nil {
		return err
	}
	defer t.feed.Stop()

	go func() {
		for tick := range t.feed.TickChannel() {
			t.broker.Publish(tick)
		}
	}()

	go func() {
		for tick := range subscriber.TickChan {
			t.book.Update(tick.Symbol, tick.Price)
		}
	}()

	log.Info().Dur("interval", t.interval).Msg("Tracker running")

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-t.feed.Err():
			return err
		case <-ticker.C:
			t.print()
		}
	}
}

// Snapshot exposes the live price snapshot.
func (t *Tracker) Snapshot() *pricebook.Snapshot {
	return t.book
}

func (t *Tracker) print() {
	fmt.Fprintln(t.out, "==== Latest prices ====")
	for _, line := range t.book.Lines() {
		fmt.Fprintln(t.out, line)
	}
	fmt.Fprintln(t.out, "=======================")
}
