package datafeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"

	"crypto-price-tracker/pkg/models"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/proxy"
)

// ErrSubscriptionRejected means the feed answered the subscribe request with
// an error message. There is no retry: the caller is expected to exit.
var ErrSubscriptionRejected = errors.New("subscription rejected by feed")

// coinbaseMessage covers the inbound message shapes we care about. Ticker
// messages carry product_id and price; error messages carry message/reason.
type coinbaseMessage struct {
	Type      string `json:"type"`
	ProductID string `json:"product_id"`
	Price     string `json:"price"`
	Message   string `json:"message"`
	Reason    string `json:"reason"`
}

type subscribeChannel struct {
	Name       string   `json:"name"`
	ProductIDs []string `json:"product_ids"`
}

type subscribeRequest struct {
	Type     string             `json:"type"`
	Channels []subscribeChannel `json:"channels"`
}

// CoinbaseFeed streams live ticker prices for a fixed set of products over
// one WebSocket connection. Connection loss is fatal and reported on Err.
type CoinbaseFeed struct {
	url       string
	proxyAddr string
	products  []string
	tickChan  chan *models.Tick
	errChan   chan error
	stopChan  chan struct{}
	running   bool
	mu        sync.Mutex
	conn      *websocket.Conn
}

// NewCoinbaseFeed creates a feed client for the given endpoint and products.
func NewCoinbaseFeed(url string, products []string) *CoinbaseFeed {
	return &CoinbaseFeed{
		url:      url,
		products: products,
		tickChan: make(chan *models.Tick, 1000),
		errChan:  make(chan error, 1),
		stopChan: make(chan struct{}),
	}
}

// NewCoinbaseFeedWithProxy creates a feed client that dials through a SOCKS5
// proxy.
func NewCoinbaseFeedWithProxy(url, proxyAddr string, products []string) *CoinbaseFeed {
	f := NewCoinbaseFeed(url, products)
	f.proxyAddr = proxyAddr
	return f
}

// Start connects, sends the subscription request and begins reading ticker
// messages in the background. Dial and subscribe failures are returned
// directly; everything after that surfaces on Err.
func (f *CoinbaseFeed) Start(ctx context.Context) error {
	f.mu.Lock()
	if f.running {
		f.mu.Unlock()
		return nil
	}
	f.running = true
	f.mu.Unlock()

	dialer := *websocket.DefaultDialer
	if f.proxyAddr != "" {
		log.Info().Str("proxy", f.proxyAddr).Msg("Dialing feed through SOCKS5 proxy")
		dialer.NetDialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			proxyDialer, err := proxy.SOCKS5("tcp", f.proxyAddr, nil, proxy.Direct)
			if err != nil {
				return nil, fmt.Errorf("failed to create SOCKS5 proxy: %w", err)
			}
			return proxyDialer.Dial(network, addr)
		}
	}

	log.Info().Str("url", f.url).Msg("Connecting to feed")

	conn, _, err := dialer.Dial(f.url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", f.url, err)
	}
	f.conn = conn

	if err := f.subscribe(); err != nil {
		conn.Close()
		return fmt.Errorf("failed to send subscribe request: %w", err)
	}

	log.Info().Strs("products", f.products).Msg("Subscribed to ticker channel")

	go f.readMessages(ctx)

	return nil
}

// Stop closes the connection. The read loop then drains out and closes the
// tick channel from its side.
func (f *CoinbaseFeed) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.running {
		return
	}
	f.running = false

	close(f.stopChan)
	if f.conn != nil {
		f.conn.Close()
	}
}

// TickChannel returns the channel for receiving price ticks
func (f *CoinbaseFeed) TickChannel() <-chan *models.Tick {
	return f.tickChan
}

// Err returns the channel carrying the fatal feed error, if any.
func (f *CoinbaseFeed) Err() <-chan error {
	return f.errChan
}

func (f *CoinbaseFeed) subscribe() error {
	req := subscribeRequest{
		Type: "subscribe",
		Channels: []subscribeChannel{
			{Name: "ticker", ProductIDs: f.products},
		},
	}
	return f.conn.WriteJSON(req)
}

// readMessages reads and processes inbound messages until the connection
// closes or errors.
func (f *CoinbaseFeed) readMessages(ctx context.Context) {
	defer close(f.tickChan)
	defer f.conn.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case <-f.stopChan:
			return
		default:
		}

		_, data, err := f.conn.ReadMessage()
		if err != nil {
			select {
			case <-f.stopChan:
				// Stop closed the connection; not a feed failure.
			default:
				f.fail(fmt.Errorf("feed connection lost: %w", err))
			}
			return
		}

		tick, err := parseMessage(data)
		if err != nil {
			if errors.Is(err, ErrSubscriptionRejected) {
				f.fail(err)
				return
			}
			log.Warn().Err(err).Msg("Skipping malformed feed message")
			continue
		}
		if tick == nil {
			continue
		}

		select {
		case f.tickChan <- tick:
		default:
			log.Warn().Str("symbol", tick.Symbol).Msg("Tick channel full, dropping tick")
		}
	}
}

func (f *CoinbaseFeed) fail(err error) {
	select {
	case f.errChan <- err:
	default:
	}
}

// parseMessage turns one inbound message into a tick. It returns (nil, nil)
// for message types that carry no price update, and an error for malformed
// payloads or a feed-side subscription rejection.
func parseMessage(data []byte) (*models.Tick, error) {
	var msg coinbaseMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal feed message: %w", err)
	}

	switch {
	case msg.Type == "error":
		return nil, fmt.Errorf("%w: %s: %s", ErrSubscriptionRejected, msg.Message, msg.Reason)
	case msg.Type != "ticker":
		return nil, nil
	case msg.Price == "":
		return nil, nil
	}

	if _, err := strconv.ParseFloat(msg.Price, 64); err != nil {
		return nil, fmt.Errorf("bad price %q for %s: %w", msg.Price, msg.ProductID, err)
	}

	return models.NewTick(msg.ProductID, msg.Price), nil
}
