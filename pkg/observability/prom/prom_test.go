package prom

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/matzehuels/graphjson/pkg/observability"
)

func TestCodecMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())
	ctx := context.Background()

	m.OnDecodeStart(ctx, "file:///a.json")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.InFlight))
	m.OnDecodeComplete(ctx, "file:///a.json", 5, 2, time.Millisecond, nil)
	m.OnResolve(ctx, "file:///a.json", 3, 1)
	m.OnEncodeStart(ctx, "file:///a.json")
	m.OnEncodeComplete(ctx, "file:///a.json", 5, time.Millisecond, errors.New("broken pipe"))

	assert.Equal(t, 0.0, testutil.ToFloat64(m.InFlight))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DecodesTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EncodesTotal.WithLabelValues("error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Diagnostics))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.Nodes.WithLabelValues("decode")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.References.WithLabelValues("resolved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.References.WithLabelValues("unresolved")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.Duration))
}

func TestStoreAndHTTPMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())
	ctx := context.Background()

	m.OnStoreHit(ctx, "redis")
	m.OnStoreMiss(ctx, "redis")
	m.OnStoreSet(ctx, "redis", 128)
	m.OnResponse(ctx, "GET", "example.org", "/a.json", 200, time.Millisecond)
	m.OnError(ctx, "GET", "example.org", "/b.json", errors.New("timeout"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreOps.WithLabelValues("redis", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreOps.WithLabelValues("redis", "miss")))
	assert.Equal(t, 128.0, testutil.ToFloat64(m.StoreBytes.WithLabelValues("redis")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPErrors.WithLabelValues("example.org")))
}

func TestRegister(t *testing.T) {
	defer observability.Reset()
	m := New(prometheus.NewRegistry())
	m.Register()

	assert.Same(t, m, observability.Codec())
	assert.Same(t, m, observability.Store())
	assert.Same(t, m, observability.HTTP())
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
