package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/yndnr/objhost-go/internal/core/domain"
	"github.com/yndnr/objhost-go/internal/core/lifecycle"
	"github.com/yndnr/objhost-go/internal/telemetry/metric"
	"github.com/yndnr/objhost-go/pkg/cmap"
)

// Release reasons reported to metrics and logs.
const (
	ReasonExplicit = "explicit"
	ReasonExpired  = "expired"
	ReasonShutdown = "shutdown"
)

// HandleSource hands out lifecycle handles. *lifecycle.Server implements it.
type HandleSource interface {
	Acquire() *lifecycle.Handle
	State() lifecycle.State
}

// ObjectServiceConfig configures an ObjectService.
type ObjectServiceConfig struct {
	Host    HandleSource
	Classes []domain.Class

	// LeaseTTL is how long an object lives without renewal. Zero disables
	// leases.
	LeaseTTL time.Duration

	Logger  *slog.Logger
	Metrics *metric.Objects

	// Now defaults to time.Now.
	Now func() time.Time
}

type record struct {
	mu       sync.Mutex
	obj      domain.Object
	instance any
	handle   *lifecycle.Handle
	released bool
}

// snapshot copies the record under its lock.
func (r *record) snapshot() *domain.Object {
	r.mu.Lock()
	obj := r.obj
	r.mu.Unlock()

	if d, ok := r.instance.(domain.Describer); ok {
		obj.State = d.Describe()
	}
	return &obj
}

func (r *record) expired(now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.obj.IsExpired(now)
}

// ObjectService manages live objects.
type ObjectService struct {
	host     HandleSource
	classes  map[string]domain.Class
	leaseTTL time.Duration
	logger   *slog.Logger
	metrics  *metric.Objects
	now      func() time.Time

	objects *cmap.Map[*record]
}

// NewObjectService creates an ObjectService.
func NewObjectService(cfg ObjectServiceConfig) *ObjectService {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	classes := make(map[string]domain.Class, len(cfg.Classes))
	for _, c := range cfg.Classes {
		classes[c.ID] = c
	}

	return &ObjectService{
		host:     cfg.Host,
		classes:  classes,
		leaseTTL: cfg.LeaseTTL,
		logger:   cfg.Logger.With("component", "objects"),
		metrics:  cfg.Metrics,
		now:      cfg.Now,
		objects:  cmap.New[*record](),
	}
}

// ============================================================================
// Create
// ============================================================================

// CreateObjectRequest contains parameters for object creation.
type CreateObjectRequest struct {
	ClassID string `json:"class_id"`
	Owner   string `json:"owner,omitempty"`
}

// Create instantiates a class and records the new object.
func (s *ObjectService) Create(ctx context.Context, req *CreateObjectRequest) (*domain.Object, error) {
	// 1. Validate input
	if req == nil || req.ClassID == "" {
		return nil, domain.ErrObjectValidation.WithDetails("class_id is required")
	}
	if len(req.Owner) > domain.MaxOwnerLength {
		return nil, domain.ErrObjectValidation.WithDetails(
			fmt.Sprintf("owner exceeds %d characters", domain.MaxOwnerLength))
	}

	// 2. Only a running server hands out objects
	if st := s.host.State(); st != lifecycle.StateRunning {
		return nil, domain.ErrNotAccepting.WithDetails("server is " + st.String())
	}

	class, ok := s.classes[req.ClassID]
	if !ok {
		return nil, domain.ErrClassNotFound.WithDetails(req.ClassID)
	}

	// 3. Hold the server open before the instance exists
	handle := s.host.Acquire()

	instance, err := class.Factory(ctx)
	if err != nil {
		handle.Release()
		s.logger.Warn("class factory failed", "class", class.ID, "error", err)
		return nil, domain.ErrClassFactory.WithDetails(class.ID).WithCause(err)
	}

	// 4. Record the object
	now := s.now()
	rec := &record{
		obj: domain.Object{
			ID:          domain.NewObjectID(),
			ClassID:     class.ID,
			Owner:       req.Owner,
			CreatedAt:   now,
			LastRenewed: now,
		},
		instance: instance,
		handle:   handle,
	}
	rec.obj.Renew(now, s.leaseTTL)
	s.objects.Set(rec.obj.ID, rec)

	s.metrics.RecordCreated(class.ID)
	s.logger.Info("object created",
		"object_id", rec.obj.ID,
		"class", class.ID,
		"owner", req.Owner,
	)

	return rec.snapshot(), nil
}

// ============================================================================
// Queries
// ============================================================================

// Get returns one object.
func (s *ObjectService) Get(_ context.Context, id string) (*domain.Object, error) {
	rec, ok := s.objects.Get(id)
	if !ok {
		return nil, domain.ErrObjectNotFound.WithDetails(id)
	}
	return rec.snapshot(), nil
}

// List returns every live object ordered by creation time.
func (s *ObjectService) List(_ context.Context) []*domain.Object {
	recs := s.objects.Values()
	out := make([]*domain.Object, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.snapshot())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Count returns the number of live objects.
func (s *ObjectService) Count() int {
	return s.objects.Count()
}

// ============================================================================
// Renew / Release
// ============================================================================

// Renew extends the lease of an object.
func (s *ObjectService) Renew(_ context.Context, id string) (*domain.Object, error) {
	rec, ok := s.objects.Get(id)
	if !ok {
		return nil, domain.ErrObjectNotFound.WithDetails(id)
	}

	rec.mu.Lock()
	if rec.released {
		rec.mu.Unlock()
		return nil, domain.ErrObjectReleased.WithDetails(id)
	}
	rec.obj.Renew(s.now(), s.leaseTTL)
	rec.mu.Unlock()

	return rec.snapshot(), nil
}

// Release removes an object, closes its instance and gives its handle back.
func (s *ObjectService) Release(_ context.Context, id string) error {
	rec, ok := s.objects.Pop(id)
	if !ok {
		return domain.ErrObjectNotFound.WithDetails(id)
	}
	return s.dispose(rec, ReasonExplicit)
}

// Reclaim releases every object whose lease has expired. It is the
// server's periodic reclaim hook.
func (s *ObjectService) Reclaim(ctx context.Context) error {
	now := s.now()
	expired := s.objects.PopIf(func(_ string, r *record) bool {
		return r.expired(now)
	})
	if len(expired) == 0 {
		return nil
	}

	s.logger.Info("reclaiming expired objects", "count", len(expired))

	var errs []error
	for _, rec := range expired {
		if err := s.dispose(rec, ReasonExpired); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close releases every remaining object.
func (s *ObjectService) Close(_ context.Context) error {
	remaining := s.objects.Drain()
	if len(remaining) > 0 {
		s.logger.Info("releasing objects at shutdown", "count", len(remaining))
	}

	var errs []error
	for _, rec := range remaining {
		if err := s.dispose(rec, ReasonShutdown); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// dispose closes the instance and releases the handle of a record that has
// already been removed from the table.
func (s *ObjectService) dispose(rec *record, reason string) error {
	rec.mu.Lock()
	rec.released = true
	id, class := rec.obj.ID, rec.obj.ClassID
	rec.mu.Unlock()

	var closeErr error
	if c, ok := rec.instance.(io.Closer); ok {
		if err := c.Close(); err != nil {
			closeErr = fmt.Errorf("close object %s: %w", id, err)
			s.logger.Warn("failed to close object", "object_id", id, "class", class, "error", err)
		}
	}

	rec.handle.Release()
	s.metrics.RecordReleased(reason)
	s.logger.Info("object released", "object_id", id, "class", class, "reason", reason)

	return closeErr
}
