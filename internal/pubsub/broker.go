package pubsub

import (
	"context"
	"sync"

	"crypto-price-tracker/pkg/models"
)

// Subscriber receives the ticks it declared interest in on TickChan.
type Subscriber struct {
	ID       string
	Symbols  map[string]bool
	TickChan chan *models.Tick
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewSubscriber(id string, symbols []string, bufferSize int) *Subscriber {
	ctx, cancel := context.WithCancel(context.Background())

	symbolSet := make(map[string]bool)
	for _, symbol := range symbols {
		symbolSet[symbol] = true
	}

	return &Subscriber{
		ID:       id,
		Symbols:  symbolSet,
		TickChan: make(chan *models.Tick, bufferSize),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (s *Subscriber) Close() {
	s.cancel()
	close(s.TickChan)
}

func (s *Subscriber) IsInterestedIn(symbol string) bool {
	return s.Symbols[symbol]
}

// Broker fans inbound ticks out to symbol-filtered subscribers. Publish
// never blocks; ticks are dropped when a buffer is full.
type Broker struct {
	subscribers map[string]*Subscriber
	mu          sync.RWMutex
	tickChan    chan *models.Tick
	stopChan    chan struct{}
	running     bool
}

func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[string]*Subscriber),
		tickChan:    make(chan *models.Tick, 10000),
		stopChan:    make(chan struct{}),
	}
}

func (b *Broker) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		return nil
	}
	b.running = true
	b.mu.Unlock()

	go b.distributeTicks(ctx)
	return nil
}

func (b *Broker) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.running {
		return
	}
	b.running = false

	close(b.stopChan)

	for _, subscriber := range b.subscribers {
		subscriber.Close()
	}
	b.subscribers = make(map[string]*Subscriber)
}

func (b *Broker) Subscribe(subscriberID string, symbols []string, bufferSize int) *Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()

	if existing, exists := b.subscribers[subscriberID]; exists {
		existing.Close()
	}

	subscriber := NewSubscriber(subscriberID, symbols, bufferSize)
	b.subscribers[subscriberID] = subscriber

	return subscriber
}

func (b *Broker) Unsubscribe(subscriberID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if subscriber, exists := b.subscribers[subscriberID]; exists {
		subscriber.Close()
		delete(b.subscribers, subscriberID)
	}
}

func (b *Broker) Publish(tick *models.Tick) {
	select {
	case b.tickChan <- tick:
	default:
	}
}

func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

func (b *Broker) distributeTicks(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-b.stopChan:
			return
		case tick := <-b.tickChan:
			b.fanOutTick(tick)
		}
	}
}

func (b *Broker) fanOutTick(tick *models.Tick) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, subscriber := range b.subscribers {
		if subscriber.IsInterestedIn(tick.Symbol) {
			select {
			case subscriber.TickChan <- tick:
			case <-subscriber.ctx.Done():
			default:
			}
		}
	}
}
