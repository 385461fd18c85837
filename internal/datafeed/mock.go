package datafeed

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"crypto-price-tracker/pkg/models"

	"github.com/rs/zerolog/log"
)

// MockFeed simulates the exchange feed using a random walk, so the tracker
// can run without network access.
type MockFeed struct {
	products []string
	prices   map[string]float64
	mu       sync.RWMutex
	tickChan chan *models.Tick
	errChan  chan error
	stopChan chan struct{}
	running  bool
	tickRate time.Duration
}

// NewMockFeed creates a mock feed with plausible starting prices.
func NewMockFeed(products []string, tickRate time.Duration) *MockFeed {
	initialPrices := map[string]float64{
		"BTC-USD": 110000.00,
		"ETH-USD": 4200.00,
		"ADA-USD": 0.65,
		"SOL-USD": 180.00,
		"DOT-USD": 8.50,
	}

	prices := make(map[string]float64)
	for _, product := range products {
		if price, exists := initialPrices[product]; exists {
			prices[product] = price
		} else {
			prices[product] = 1.00 + rand.Float64()*99.00
		}
	}

	return &MockFeed{
		products: products,
		prices:   prices,
		tickChan: make(chan *models.Tick, 1000),
		errChan:  make(chan error, 1),
		stopChan: make(chan struct{}),
		tickRate: tickRate,
	}
}

// Start begins generating mock price ticks
func (m *MockFeed) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = true
	m.mu.Unlock()

	log.Info().Strs("products", m.products).Msg("Mock feed started, no exchange connection")

	go m.generateTicks(ctx)
	return nil
}

// Stop stops the mock feed. The generator closes the tick channel on its
// way out.
func (m *MockFeed) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	m.running = false

	close(m.stopChan)
}

// TickChannel returns the channel for receiving price ticks
func (m *MockFeed) TickChannel() <-chan *models.Tick {
	return m.tickChan
}

// Err returns the fatal-error channel. The mock feed never fails.
func (m *MockFeed) Err() <-chan error {
	return m.errChan
}

func (m *MockFeed) generateTicks(ctx context.Context) {
	defer close(m.tickChan)

	ticker := time.NewTicker(m.tickRate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopChan:
			return
		case <-ticker.C:
			m.generateRandomTick()
		}
	}
}

// generateRandomTick creates a new price tick for a random product.
func (m *MockFeed) generateRandomTick() {
	if len(m.products) == 0 {
		return
	}

	product := m.products[rand.Intn(len(m.products))]

	m.mu.Lock()
	currentPrice := m.prices[product]

	// Move by 0.1% to 5% of the current price in either direction.
	maxChange := currentPrice * 0.05
	minChange := currentPrice * 0.001

	change := minChange + rand.Float64()*(maxChange-minChange)
	if rand.Float64() < 0.5 {
		change = -change
	}

	newPrice := currentPrice + change
	if newPrice < 0.01 {
		newPrice = 0.01
	}

	m.prices[product] = newPrice
	m.mu.Unlock()

	tick := models.NewTick(product, strconv.FormatFloat(newPrice, 'f', 2, 64))

	select {
	case m.tickChan <- tick:
	default:
		// Channel full, drop the tick to avoid blocking the generator.
	}
}
