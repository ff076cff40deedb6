package snapshotcache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundscope/navcast/internal/domain"
	"github.com/fundscope/navcast/internal/finmath"
)

type fakePublisher struct {
	written map[string][]byte
	failOn  string
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{written: make(map[string][]byte)}
}

func (p *fakePublisher) Set(ctx context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	if p.failOn != "" && key == keyPrefix+p.failOn {
		return redis.NewStatusResult("", errors.New("connection refused"))
	}
	p.written[key] = value.([]byte)
	return redis.NewStatusResult("OK", nil)
}

func sampleForecast() *domain.Forecast {
	f := domain.NewForecast("PDI")
	f.CycleID = "cycle-1"
	f.EstNav = finmath.Ptr(9.95)
	f.NavEstMthd = domain.MethodProxy
	f.Discount = finmath.Ptr(-0.05)
	f.LastNavDate = time.Date(2025, 7, 18, 0, 0, 0, 0, time.UTC)
	f.SetEstimate(domain.MethodProxy, 9.95, 0.002)
	f.SetEstimate(domain.MethodETFReg, 9.97, 0.004)
	f.Scores[domain.Win3M] = domain.Score{D: -0.01, Z: finmath.Ptr(-0.5)}
	f.Scores[domain.Win1W] = domain.Score{D: -0.02}
	return f
}

func TestFromForecast_FlattensEstimateSlots(t *testing.T) {
	s := FromForecast(sampleForecast())

	assert.Equal(t, "PDI", s.Ticker)
	assert.Equal(t, "2025-07-18", s.LastNavDate)
	assert.Equal(t, "Proxy", s.NavEstMthd)

	require.NotNil(t, s.ProxyNav)
	assert.Equal(t, 9.95, *s.ProxyNav)
	require.NotNil(t, s.ETFNav)
	assert.Equal(t, 9.97, *s.ETFNav)
	require.NotNil(t, s.ETFRtn)
	assert.Equal(t, 0.004, *s.ETFRtn)
	assert.Nil(t, s.AltProxyNav)

	require.Contains(t, s.Scores, "3M")
	assert.Equal(t, -0.01, s.Scores["3M"].D)
	require.NotNil(t, s.Scores["3M"].Z)
	assert.Nil(t, s.Scores["1W"].Z)
}

func TestPublishAll_WritesJSONPerTicker(t *testing.T) {
	pub := newFakePublisher()
	c := New(pub, time.Minute, zerolog.Nop())

	err := c.PublishAll(context.Background(), []*domain.Forecast{sampleForecast()})
	require.NoError(t, err)

	payload, ok := pub.written["navcast:forecast:PDI"]
	require.True(t, ok)

	var got Snapshot
	require.NoError(t, json.Unmarshal(payload, &got))
	assert.Equal(t, "cycle-1", got.CycleID)
	require.NotNil(t, got.EstNav)
	assert.Equal(t, 9.95, *got.EstNav)
}

func TestPublishAll_IsolatesPerTickerFailures(t *testing.T) {
	pub := newFakePublisher()
	pub.failOn = "BAD"
	c := New(pub, time.Minute, zerolog.Nop())

	bad := domain.NewForecast("BAD")
	err := c.PublishAll(context.Background(), []*domain.Forecast{bad, sampleForecast()})
	assert.Error(t, err)

	// The healthy ticker still made it out.
	_, ok := pub.written["navcast:forecast:PDI"]
	assert.True(t, ok)
}
