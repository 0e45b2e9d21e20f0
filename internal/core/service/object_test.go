package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yndnr/objhost-go/internal/core/domain"
	"github.com/yndnr/objhost-go/internal/core/lifecycle"
	"github.com/yndnr/objhost-go/internal/telemetry/metric"
)

type nopGateway struct{}

func (nopGateway) Register(_ context.Context, c domain.Class) (lifecycle.Token, error) {
	return lifecycle.Token("tok-" + c.ID), nil
}
func (nopGateway) Unregister(context.Context, lifecycle.Token) error { return nil }
func (nopGateway) AnnounceReady(context.Context) error              { return nil }

// closeTracker is a test instance that records Close calls.
type closeTracker struct {
	mu     sync.Mutex
	closed int
	err    error
}

func (c *closeTracker) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed++
	return c.err
}

func (c *closeTracker) Describe() map[string]any {
	return map[string]any{"kind": "tracker"}
}

// fakeClock is a settable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	srv     *lifecycle.Server
	svc     *ObjectService
	clock   *fakeClock
	metrics *metric.Objects
	runErr  chan error

	mu        sync.Mutex
	instances []*closeTracker
}

func (f *fixture) lastInstance() *closeTracker {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.instances[len(f.instances)-1]
}

func newFixture(t *testing.T, leaseTTL time.Duration) *fixture {
	t.Helper()
	f := &fixture{
		clock:  &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
		runErr: make(chan error, 1),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	classes := []domain.Class{
		{
			ID: "test.Tracker",
			Factory: func(context.Context) (any, error) {
				inst := &closeTracker{}
				f.mu.Lock()
				f.instances = append(f.instances, inst)
				f.mu.Unlock()
				return inst, nil
			},
		},
		{
			ID: "test.Broken",
			Factory: func(context.Context) (any, error) {
				return nil, errors.New("factory exploded")
			},
		},
	}

	srv, err := lifecycle.New(lifecycle.Config{
		Gateway:         nopGateway{},
		Classes:         classes,
		ReclaimInterval: time.Hour,
		GracePeriod:     time.Millisecond,
		Logger:          logger,
	})
	require.NoError(t, err)
	f.srv = srv

	f.metrics = metric.NewObjects(prometheus.NewRegistry())
	f.svc = NewObjectService(ObjectServiceConfig{
		Host:     srv,
		Classes:  classes,
		LeaseTTL: leaseTTL,
		Logger:   logger,
		Metrics:  f.metrics,
		Now:      f.clock.Now,
	})

	go func() { f.runErr <- srv.Run(context.Background()) }()
	require.Eventually(t, func() bool { return srv.State() == lifecycle.StateRunning }, 2*time.Second, time.Millisecond)

	t.Cleanup(func() {
		if srv.RequestForcedStop() {
			select {
			case <-f.runErr:
			case <-time.After(2 * time.Second):
			}
		}
	})
	return f
}

func (f *fixture) waitStopped(t *testing.T) {
	t.Helper()
	select {
	case err := <-f.runErr:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestObjectService_Create(t *testing.T) {
	f := newFixture(t, 30*time.Second)
	ctx := context.Background()

	obj, err := f.svc.Create(ctx, &CreateObjectRequest{ClassID: "test.Tracker", Owner: "alice"})
	require.NoError(t, err)

	assert.True(t, domain.ValidID(obj.ID, domain.ObjectIDPrefix))
	assert.Equal(t, "test.Tracker", obj.ClassID)
	assert.Equal(t, "alice", obj.Owner)
	assert.Equal(t, f.clock.Now().Add(30*time.Second), obj.ExpiresAt)
	assert.Equal(t, "tracker", obj.State["kind"])
	assert.Equal(t, int64(1), f.srv.ActiveCount())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Live))
}

func TestObjectService_CreateErrors(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	tests := []struct {
		name string
		req  *CreateObjectRequest
		code string
	}{
		{"nil request", nil, domain.ErrObjectValidation.Code},
		{"missing class", &CreateObjectRequest{}, domain.ErrObjectValidation.Code},
		{"owner too long", &CreateObjectRequest{ClassID: "test.Tracker", Owner: string(make([]byte, domain.MaxOwnerLength+1))}, domain.ErrObjectValidation.Code},
		{"unknown class", &CreateObjectRequest{ClassID: "test.Nope"}, domain.ErrClassNotFound.Code},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.code, domain.GetErrorCode(err))
		})
	}
	assert.Equal(t, int64(0), f.srv.ActiveCount())
}

func TestObjectService_FactoryFailureReleasesHandle(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	// Keep the server alive so the failed create does not stop it.
	_, err := f.svc.Create(ctx, &CreateObjectRequest{ClassID: "test.Tracker"})
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, &CreateObjectRequest{ClassID: "test.Broken"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrClassFactory))
	assert.Equal(t, int64(1), f.srv.ActiveCount())
	assert.Equal(t, lifecycle.StateRunning, f.srv.State())
}

func TestObjectService_CreateRejectedWhenNotRunning(t *testing.T) {
	f := newFixture(t, 0)
	f.srv.RequestForcedStop()
	f.waitStopped(t)

	_, err := f.svc.Create(context.Background(), &CreateObjectRequest{ClassID: "test.Tracker"})
	assert.True(t, errors.Is(err, domain.ErrNotAccepting))
}

func TestObjectService_GetListRenew(t *testing.T) {
	f := newFixture(t, 10*time.Second)
	ctx := context.Background()

	a, err := f.svc.Create(ctx, &CreateObjectRequest{ClassID: "test.Tracker", Owner: "a"})
	require.NoError(t, err)
	f.clock.Advance(time.Second)
	b, err := f.svc.Create(ctx, &CreateObjectRequest{ClassID: "test.Tracker", Owner: "b"})
	require.NoError(t, err)

	got, err := f.svc.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "a", got.Owner)

	_, err = f.svc.Get(ctx, "ohob-missing")
	assert.True(t, errors.Is(err, domain.ErrObjectNotFound))

	list := f.svc.List(ctx)
	require.Len(t, list, 2)
	assert.Equal(t, a.ID, list[0].ID)
	assert.Equal(t, b.ID, list[1].ID)

	f.clock.Advance(5 * time.Second)
	renewed, err := f.svc.Renew(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, f.clock.Now().Add(10*time.Second), renewed.ExpiresAt)
	assert.Equal(t, f.clock.Now(), renewed.LastRenewed)

	_, err = f.svc.Renew(ctx, "ohob-missing")
	assert.True(t, errors.Is(err, domain.ErrObjectNotFound))
}

func TestObjectService_ReleaseLastObjectStopsServer(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	a, err := f.svc.Create(ctx, &CreateObjectRequest{ClassID: "test.Tracker"})
	require.NoError(t, err)
	instA := f.lastInstance()
	b, err := f.svc.Create(ctx, &CreateObjectRequest{ClassID: "test.Tracker"})
	require.NoError(t, err)

	require.NoError(t, f.svc.Release(ctx, a.ID))
	assert.Equal(t, 1, instA.closed)
	assert.Equal(t, int64(1), f.srv.ActiveCount())

	err = f.svc.Release(ctx, a.ID)
	assert.True(t, errors.Is(err, domain.ErrObjectNotFound), "second release misses")
	assert.Equal(t, int64(1), f.srv.ActiveCount())

	require.NoError(t, f.svc.Release(ctx, b.ID))
	f.waitStopped(t)
	assert.Equal(t, lifecycle.ReasonLastHandle, f.srv.Status().LastStopReason)
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.Released.WithLabelValues(ReasonExplicit)))
}

func TestObjectService_ReclaimExpired(t *testing.T) {
	f := newFixture(t, 30*time.Second)
	ctx := context.Background()

	old, err := f.svc.Create(ctx, &CreateObjectRequest{ClassID: "test.Tracker"})
	require.NoError(t, err)
	f.clock.Advance(20 * time.Second)
	fresh, err := f.svc.Create(ctx, &CreateObjectRequest{ClassID: "test.Tracker"})
	require.NoError(t, err)

	f.clock.Advance(15 * time.Second)
	require.NoError(t, f.svc.Reclaim(ctx))

	_, err = f.svc.Get(ctx, old.ID)
	assert.True(t, errors.Is(err, domain.ErrObjectNotFound))
	_, err = f.svc.Get(ctx, fresh.ID)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), f.srv.ActiveCount())
	assert.Equal(t, lifecycle.StateRunning, f.srv.State())

	// The last expired lease stops the server.
	f.clock.Advance(time.Minute)
	require.NoError(t, f.svc.Reclaim(ctx))
	f.waitStopped(t)
	assert.Equal(t, 0, f.svc.Count())
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.Released.WithLabelValues(ReasonExpired)))
}

func TestObjectService_ReclaimJoinsCloseErrors(t *testing.T) {
	f := newFixture(t, time.Second)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, &CreateObjectRequest{ClassID: "test.Tracker"})
	require.NoError(t, err)
	f.lastInstance().err = errors.New("close failed")

	// A second object keeps the server up.
	f.clock.Advance(500 * time.Millisecond)
	_, err = f.svc.Create(ctx, &CreateObjectRequest{ClassID: "test.Tracker"})
	require.NoError(t, err)

	f.clock.Advance(600 * time.Millisecond)
	err = f.svc.Reclaim(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "close failed")
	assert.Equal(t, 1, f.svc.Count())
	assert.Equal(t, int64(1), f.srv.ActiveCount(), "handle released even when close fails")
}

func TestObjectService_NoLeaseNeverExpires(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	obj, err := f.svc.Create(ctx, &CreateObjectRequest{ClassID: "test.Tracker"})
	require.NoError(t, err)
	assert.True(t, obj.ExpiresAt.IsZero())

	f.clock.Advance(24 * time.Hour)
	require.NoError(t, f.svc.Reclaim(ctx))
	assert.Equal(t, 1, f.svc.Count())
}

func TestObjectService_CloseReleasesEverything(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.svc.Create(ctx, &CreateObjectRequest{ClassID: "test.Tracker"})
		require.NoError(t, err)
	}

	require.NoError(t, f.svc.Close(ctx))
	assert.Equal(t, 0, f.svc.Count())
	f.waitStopped(t)

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, inst := range f.instances {
		assert.Equal(t, 1, inst.closed)
	}
}

func TestObjectService_ConcurrentCreateRelease(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	// Anchor keeps the count above zero throughout.
	anchor, err := f.svc.Create(ctx, &CreateObjectRequest{ClassID: "test.Tracker"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				obj, err := f.svc.Create(ctx, &CreateObjectRequest{ClassID: "test.Tracker"})
				if !assert.NoError(t, err) {
					return
				}
				assert.NoError(t, f.svc.Release(ctx, obj.ID))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), f.srv.ActiveCount())
	require.NoError(t, f.svc.Release(ctx, anchor.ID))
	f.waitStopped(t)
}
