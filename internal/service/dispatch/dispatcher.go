package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"bloodlink/internal/domain"
	"bloodlink/internal/geo"
	"bloodlink/internal/repository"
)

// AlertSink receives every newly stored alert.
type AlertSink interface {
	PublishAlert(ctx context.Context, req *domain.BloodRequest, alert domain.Alert) error
}

type Options struct {
	BatchSize    int
	GeoTimeout   time.Duration
	StoreTimeout time.Duration
}

// abortedTTL bounds how long an Abort issued before its dispatch started is remembered.
const abortedTTL = time.Minute

var ErrAborted = errors.New("dispatch aborted")

type Dispatcher struct {
	index  geo.Index
	alerts repository.AlertRepository
	guard  Guard
	sink   AlertSink
	opts   Options
	logger *zap.Logger

	dispatched metric.Int64Counter

	mu       sync.Mutex
	seq      uint64
	inflight map[uuid.UUID]map[uint64]context.CancelFunc
	aborted  map[uuid.UUID]time.Time
}

func NewDispatcher(index geo.Index, alerts repository.AlertRepository, guard Guard, sink AlertSink, opts Options, logger *zap.Logger) *Dispatcher {
	if opts.BatchSize < 1 {
		opts.BatchSize = 50
	}
	if opts.GeoTimeout <= 0 {
		opts.GeoTimeout = 2 * time.Second
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = 3 * time.Second
	}

	counter, err := otel.Meter("bloodlink/dispatch").Int64Counter("bloodlink.alerts.dispatched",
		metric.WithDescription("Alerts stored and published"))
	if err != nil {
		logger.Warn("alerts counter unavailable", zap.Error(err))
	}

	return &Dispatcher{
		index:      index,
		alerts:     alerts,
		guard:      guard,
		sink:       sink,
		opts:       opts,
		logger:     logger,
		dispatched: counter,
		inflight:   make(map[uuid.UUID]map[uint64]context.CancelFunc),
		aborted:    make(map[uuid.UUID]time.Time),
	}
}

// Criteria is the recipient filter for req's current cycle.
func Criteria(req *domain.BloodRequest) geo.Filter {
	group := req.BloodGroup
	exclude := []uuid.UUID{req.RequesterID}
	if req.ReleasedAccepterID != nil {
		exclude = append(exclude, *req.ReleasedAccepterID)
	}
	return geo.Filter{
		Roles:      []domain.Role{domain.RoleDonor, domain.RoleBloodBank, domain.RoleNGO},
		BloodGroup: &group,
		Exclude:    exclude,
	}
}

// Dispatch alerts every eligible recipient of req for its current cycle and returns
// the number of alerts the cycle holds. Repeating the call for a cycle that was already
// dispatched returns the stored count and publishes nothing.
func (d *Dispatcher) Dispatch(ctx context.Context, req *domain.BloodRequest) (int, error) {
	cycle := req.Cycle()
	log := d.logger.With(zap.String("request_id", req.ID.String()), zap.Int("cycle", cycle))

	ctx, done, err := d.track(ctx, req.ID)
	if err != nil {
		return 0, err
	}
	defer done()

	claimed, err := d.guard.Claim(ctx, req.ID, cycle)
	if err != nil {
		return 0, err
	}
	if !claimed {
		log.Debug("dispatch already claimed")
		return d.countForCycle(ctx, req.ID, cycle)
	}

	sent, err := d.fanOut(ctx, req, cycle, log)
	if err != nil {
		// Stored alerts stay; the unique key makes a retry skip them.
		if relErr := d.guard.Release(context.WithoutCancel(ctx), req.ID, cycle); relErr != nil {
			log.Warn("dispatch guard release failed", zap.Error(relErr))
		}
		if errors.Is(err, context.Canceled) && d.wasAborted(req.ID) {
			log.Info("dispatch aborted", zap.Int("alerts_sent", sent))
			return sent, ErrAborted
		}
		return sent, err
	}

	log.Info("dispatch complete", zap.Int("alerts_sent", sent))
	return sent, nil
}

func (d *Dispatcher) fanOut(ctx context.Context, req *domain.BloodRequest, cycle int, log *zap.Logger) (int, error) {
	geoCtx, cancel := context.WithTimeout(ctx, d.opts.GeoTimeout)
	hits, err := d.index.Query(geoCtx, req.Location(), domain.AlertRadiusMeters, Criteria(req))
	cancel()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return 0, fmt.Errorf("%w: geo query: %v", domain.ErrTimeout, err)
		}
		return 0, fmt.Errorf("geo query: %w", err)
	}

	sent := 0
	for start := 0; start < len(hits); start += d.opts.BatchSize {
		if err := ctx.Err(); err != nil {
			return sent, err
		}

		end := start + d.opts.BatchSize
		if end > len(hits) {
			end = len(hits)
		}

		now := time.Now().UTC()
		batch := make([]domain.Alert, 0, end-start)
		for _, h := range hits[start:end] {
			batch = append(batch, domain.Alert{
				ID:             uuid.New(),
				RequestID:      req.ID,
				Cycle:          cycle,
				RecipientID:    h.ActorID,
				RecipientRole:  h.Role,
				DistanceMeters: h.DistanceMeters,
				DispatchedAt:   now,
			})
		}

		storeCtx, cancel := context.WithTimeout(ctx, d.opts.StoreTimeout)
		inserted, err := d.alerts.InsertBatch(storeCtx, batch)
		cancel()
		if err != nil {
			return sent, storeError("store alerts", err)
		}

		for _, a := range inserted {
			if err := d.sink.PublishAlert(ctx, req, a); err != nil {
				log.Warn("publish alert failed", zap.String("recipient_id", a.RecipientID.String()), zap.Error(err))
			}
		}
		sent += len(inserted)

		if d.dispatched != nil {
			d.dispatched.Add(ctx, int64(len(inserted)),
				metric.WithAttributes(attribute.Bool("redispatch", cycle > 0)))
		}
	}

	// Alerts left by an earlier failed attempt of this cycle were skipped above.
	return d.countForCycle(ctx, req.ID, cycle)
}

func (d *Dispatcher) countForCycle(ctx context.Context, requestID uuid.UUID, cycle int) (int, error) {
	storeCtx, cancel := context.WithTimeout(ctx, d.opts.StoreTimeout)
	defer cancel()
	n, err := d.alerts.CountForCycle(storeCtx, requestID, cycle)
	if err != nil {
		return 0, storeError("count alerts", err)
	}
	return n, nil
}

// storeError reports a store call that ran past its own deadline as ErrTimeout.
func storeError(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %v", domain.ErrTimeout, op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Abort stops any in-flight dispatch of requestID before its next batch.
// Alerts already stored are kept.
func (d *Dispatcher) Abort(requestID uuid.UUID) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()
	for id, at := range d.aborted {
		if now.Sub(at) > abortedTTL {
			delete(d.aborted, id)
		}
	}
	d.aborted[requestID] = now

	for _, cancel := range d.inflight[requestID] {
		cancel()
	}
}

func (d *Dispatcher) track(ctx context.Context, requestID uuid.UUID) (context.Context, func(), error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if at, ok := d.aborted[requestID]; ok && time.Since(at) <= abortedTTL {
		return nil, nil, ErrAborted
	}

	ctx, cancel := context.WithCancel(ctx)
	d.seq++
	id := d.seq
	if d.inflight[requestID] == nil {
		d.inflight[requestID] = make(map[uint64]context.CancelFunc)
	}
	d.inflight[requestID][id] = cancel

	return ctx, func() {
		d.mu.Lock()
		delete(d.inflight[requestID], id)
		if len(d.inflight[requestID]) == 0 {
			delete(d.inflight, requestID)
		}
		d.mu.Unlock()
		cancel()
	}, nil
}

func (d *Dispatcher) wasAborted(requestID uuid.UUID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	at, ok := d.aborted[requestID]
	return ok && time.Since(at) <= abortedTTL
}

// IsEligible reports whether actorID may accept req in its current cycle: it either
// holds an alert for the request or matches the dispatch criteria right now.
func (d *Dispatcher) IsEligible(ctx context.Context, req *domain.BloodRequest, actorID uuid.UUID) (bool, error) {
	if actorID == req.RequesterID {
		return false, nil
	}
	if req.ReleasedAccepterID != nil && *req.ReleasedAccepterID == actorID {
		return false, nil
	}

	has, err := d.alerts.HasAlert(ctx, req.ID, actorID)
	if err != nil {
		return false, err
	}
	if has {
		return true, nil
	}

	geoCtx, cancel := context.WithTimeout(ctx, d.opts.GeoTimeout)
	defer cancel()
	loc, err := d.index.Locate(geoCtx, actorID)
	if errors.Is(err, geo.ErrNotIndexed) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if !Criteria(req).Matches(*loc) {
		return false, nil
	}
	return domain.InRadius(domain.DistanceMeters(req.Location(), loc.Location), domain.AlertRadiusMeters), nil
}
