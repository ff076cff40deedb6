// Package feed subscribes to the live market-data websocket and applies
// price ticks to the price store. Reconnects run under a circuit breaker
// and a rate limiter so a flapping upstream cannot hot-loop the process.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/fundscope/navcast/internal/store"
	"github.com/fundscope/navcast/internal/telemetry"
)

// Tick is one inbound price message. Tickers on the wire are market-data
// tickers already.
type Tick struct {
	Ticker       string   `json:"ticker"`
	Last         *float64 `json:"last"`
	Bid          *float64 `json:"bid"`
	Ask          *float64 `json:"ask"`
	MarketClosed bool     `json:"market_closed"`
	Source       string   `json:"source"`
}

// Subscriber maintains the websocket subscription.
type Subscriber struct {
	url     string
	store   *store.Store
	metrics *telemetry.Metrics
	log     zerolog.Logger
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

// NewSubscriber builds a subscriber for the given feed URL. metrics may
// be nil in tests.
func NewSubscriber(url string, st *store.Store, metrics *telemetry.Metrics, backoff time.Duration, log zerolog.Logger) *Subscriber {
	return &Subscriber{
		url:     url,
		store:   st,
		metrics: metrics,
		log:     log.With().Str("component", "feed").Logger(),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "market-feed",
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= 5
			},
		}),
		limiter: rate.NewLimiter(rate.Every(backoff), 1),
	}
}

// Run connects and consumes ticks until ctx is cancelled, reconnecting on
// failure.
func (s *Subscriber) Run(ctx context.Context) error {
	for {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
		_, err := s.breaker.Execute(func() (interface{}, error) {
			return nil, s.consume(ctx)
		})
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			if s.metrics != nil {
				s.metrics.FeedReconnects.Inc()
			}
			s.log.Warn().Err(err).Msg("feed disconnected, will reconnect")
		}
	}
}

// consume holds one websocket session.
func (s *Subscriber) consume(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", s.url, err)
	}
	defer conn.Close()
	s.log.Info().Str("url", s.url).Msg("feed connected")

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		var tick Tick
		if err := json.Unmarshal(payload, &tick); err != nil {
			s.log.Warn().Err(err).Msg("bad tick payload dropped")
			continue
		}
		s.apply(tick)
	}
}

// apply merges a tick into the price store, preserving fields the tick
// does not carry.
func (s *Subscriber) apply(tick Tick) {
	if tick.Ticker == "" {
		return
	}
	price, _ := s.store.Prices.Get(tick.Ticker)
	price.Ticker = tick.Ticker
	if tick.Last != nil {
		price.Last = tick.Last
	}
	if tick.Bid != nil {
		price.Bid = tick.Bid
	}
	if tick.Ask != nil {
		price.Ask = tick.Ask
	}
	price.MarketClosed = tick.MarketClosed
	if tick.Source != "" {
		price.Source = tick.Source
	}
	price.AsOf = time.Now()
	s.store.Prices.Put(tick.Ticker, price)
	if s.metrics != nil {
		s.metrics.FeedTicks.Inc()
	}
}
