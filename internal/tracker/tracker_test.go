package tracker

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"crypto-price-tracker/pkg/models"
)

// scriptedFeed lets a test inject ticks and fatal errors by hand.
type scriptedFeed struct {
	ticks chan *models.Tick
	errs  chan error
	once  sync.Once
}

func newScriptedFeed() *scriptedFeed {
	return &scriptedFeed{
		ticks: make(chan *models.Tick, 16),
		errs:  make(chan error, 1),
	}
}

func (f *scriptedFeed) Start(ctx context.Context) error { return nil }
func (f *scriptedFeed) Stop()                           { f.once.Do(func() { close(f.ticks) }) }
func (f *scriptedFeed) TickChannel() <-chan *models.Tick {
	return f.ticks
}
func (f *scriptedFeed) Err() <-chan error { return f.errs }

// syncBuffer makes a bytes.Buffer safe for the print loop to write while
// the test reads.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestTracker_PrintsLatestPrices(t *testing.T) {
	feed := newScriptedFeed()
	feed.ticks <- models.NewTick("BTC-USD", "64000.00")
	feed.ticks <- models.NewTick("BTC-USD", "65000.12")

	var out syncBuffer
	tr := New(feed, []string{"BTC-USD", "ETH-USD"}, 20*time.Millisecond, &out)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- tr.Run(ctx)
	}()

	time.Sleep(150 * time.Millisecond)
	cancel()

	if err := <-done; err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	got := out.String()
	if !strings.Contains(got, "BTC-USD: 65000.12") {
		t.Errorf("output missing latest BTC-USD price:\n%s", got)
	}
	if strings.Contains(got, "BTC-USD: 64000.00") {
		t.Errorf("output shows stale BTC-USD price:\n%s", got)
	}
	if !strings.Contains(got, "ETH-USD: <no data>") {
		t.Errorf("output missing ETH-USD placeholder:\n%s", got)
	}

	// Several print cycles ran with no new updates; the rendered lines
	// must not change between them.
	if n := strings.Count(got, "BTC-USD: 65000.12"); n < 2 {
		t.Errorf("expected at least 2 identical print cycles, got %d:\n%s", n, got)
	}

	if price, ok := tr.Snapshot().Price("BTC-USD"); !ok || price != "65000.12" {
		t.Errorf("Snapshot().Price() = %s (ok=%v), expected 65000.12", price, ok)
	}
}

func TestTracker_IgnoresUnsubscribedSymbols(t *testing.T) {
	feed := newScriptedFeed()
	feed.ticks <- models.NewTick("DOGE-USD", "0.08")

	var out syncBuffer
	tr := New(feed, []string{"BTC-USD"}, 20*time.Millisecond, &out)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- tr.Run(ctx)
	}()

	time.Sleep(80 * time.Millisecond)
	cancel()
	<-done

	if strings.Contains(out.String(), "DOGE-USD") {
		t.Errorf("output contains unsubscribed symbol:\n%s", out.String())
	}
}

func TestTracker_FeedErrorIsFatal(t *testing.T) {
	feed := newScriptedFeed()
	feedErr := errors.New("feed connection lost")
	feed.errs <- feedErr

	var out syncBuffer
	tr := New(feed, []string{"BTC-USD"}, time.Hour, &out)

	err := tr.Run(context.Background())
	if !errors.Is(err, feedErr) {
		t.Fatalf("Run() error = %v, expected the feed error", err)
	}
}
