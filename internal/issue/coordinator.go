package issue

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/eysrewards/kiosk/internal/codegen"
	"github.com/eysrewards/kiosk/internal/metrics"
	"github.com/eysrewards/kiosk/internal/model"
)

// Outcome classifies how far one issuance got. It is layered rather than
// boolean: each stage can fail without invalidating the stages before it,
// and a code once produced is never retracted.
type Outcome int

const (
	// OutcomeGenerated: a code exists but no visual was attempted yet.
	OutcomeGenerated Outcome = iota
	// OutcomeRendered: code and visual exist; replication not settled.
	OutcomeRendered
	// OutcomeReplicated: the ledger accepted the issuance event.
	OutcomeReplicated
	// OutcomeRenderFailed: the visual could not be produced; the textual
	// code remains usable.
	OutcomeRenderFailed
	// OutcomeReplicationFailed: the ledger write was lost; code and
	// visual stand as presented.
	OutcomeReplicationFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeGenerated:
		return "generated"
	case OutcomeRendered:
		return "rendered"
	case OutcomeReplicated:
		return "replicated"
	case OutcomeRenderFailed:
		return "render_failed"
	case OutcomeReplicationFailed:
		return "replication_failed"
	default:
		return "unknown"
	}
}

// ErrIssuanceInFlight rejects a second trigger while a prior issuance has
// not settled its replication.
var ErrIssuanceInFlight = errors.New("issue: an issuance is already in flight")

// ValidationError reports missing required fields. It blocks issuance
// before any code is generated.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "issue: missing required fields: " + strings.Join(e.Missing, ", ")
}

// Recorder is the write half of the ledger client.
type Recorder interface {
	Record(ctx context.Context, ev model.LedgerEvent) error
}

// Renderer is the single-slot visual code surface.
type Renderer interface {
	Render(data string) error
	Clear()
}

// Issuance is the result of one issue transaction. Code and CreatedAt are
// final as soon as Issue returns; the settled outcome arrives once the
// detached replication resolves.
type Issuance struct {
	Code      string
	CreatedAt time.Time

	staged Outcome
	final  Outcome
	done   chan struct{}
}

// Staged returns the outcome of the synchronous stages (generate +
// render), before replication settles.
func (i *Issuance) Staged() Outcome { return i.staged }

// Settle blocks until the replication attempt resolves and returns the
// final outcome. On context expiry the staged outcome is returned along
// with the context's error; replication itself is not abortable.
func (i *Issuance) Settle(ctx context.Context) (Outcome, error) {
	select {
	case <-i.done:
		return i.final, nil
	case <-ctx.Done():
		return i.staged, ctx.Err()
	}
}

// Settled reports whether the replication attempt has resolved.
func (i *Issuance) Settled() bool {
	select {
	case <-i.done:
		return true
	default:
		return false
	}
}

// Coordinator runs the issuance pipeline: validate, generate, render,
// then replicate to the ledger without blocking the user-visible result
// on the ledger's availability.
type Coordinator struct {
	generator *codegen.Generator
	renderer  Renderer
	ledger    Recorder
	logger    *zap.Logger

	recordTimeout time.Duration
	inFlight      atomic.Bool
}

// NewCoordinator wires an issuance coordinator. recordTimeout bounds the
// detached ledger write.
func NewCoordinator(generator *codegen.Generator, renderer Renderer, ledger Recorder, recordTimeout time.Duration, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		generator:     generator,
		renderer:      renderer,
		ledger:        ledger,
		logger:        logger,
		recordTimeout: recordTimeout,
	}
}

// Issue runs one issuance transaction. A *ValidationError leaves no side
// effects; ErrIssuanceInFlight rejects a concurrent trigger. Otherwise a
// code always comes back, even when rendering fails, and the replication
// attempt is dispatched fire-and-forget.
func (c *Coordinator) Issue(ctx context.Context, req model.IssuanceRequest) (*Issuance, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if !c.inFlight.CompareAndSwap(false, true) {
		return nil, ErrIssuanceInFlight
	}

	start := time.Now()
	iss := &Issuance{
		Code:      c.generator.Generate(),
		CreatedAt: time.Now().UTC(),
		done:      make(chan struct{}),
	}

	iss.staged = OutcomeRendered
	if err := c.renderer.Render(iss.Code); err != nil {
		// Presentation enhancement only: the textual code stands.
		c.logger.Warn("visual render failed, code remains usable as text",
			zap.String("code", iss.Code),
			zap.Error(err),
		)
		iss.staged = OutcomeRenderFailed
	}
	metrics.RecordIssueDuration(iss.staged.String(), time.Since(start).Seconds())

	go c.replicate(iss, req)
	return iss, nil
}

// replicate performs the detached best-effort ledger write and settles
// the final outcome. It never retracts the already-issued code or visual.
func (c *Coordinator) replicate(iss *Issuance, req model.IssuanceRequest) {
	// The guard must release before done closes so a caller observing a
	// settled issuance can immediately start the next one.
	defer close(iss.done)
	defer c.inFlight.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), c.recordTimeout)
	defer cancel()

	err := c.ledger.Record(ctx, model.LedgerEvent{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Email:      req.Email,
		Phone:      req.Phone,
		Location:   req.Location,
		CouponCode: iss.Code,
	})

	switch {
	case err != nil:
		metrics.RecordReplication("failure")
		iss.final = OutcomeReplicationFailed
		c.logger.Warn("issuance not durably recorded",
			zap.String("code", iss.Code),
			zap.Error(err),
		)
	case iss.staged == OutcomeRenderFailed:
		metrics.RecordReplication("success")
		iss.final = OutcomeRenderFailed
	default:
		metrics.RecordReplication("success")
		iss.final = OutcomeReplicated
	}
}

// Reset clears the bound visual. It does not abort an in-flight
// replication; the guard releases on its own once that settles.
func (c *Coordinator) Reset() {
	c.renderer.Clear()
}

// InFlight reports whether an issuance is awaiting replication.
func (c *Coordinator) InFlight() bool {
	return c.inFlight.Load()
}

func validate(req model.IssuanceRequest) error {
	required := []struct {
		name  string
		value string
	}{
		{"firstName", req.FirstName},
		{"lastName", req.LastName},
		{"email", req.Email},
		{"phone", req.Phone},
		{"location", req.Location},
	}

	var missing []string
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}
