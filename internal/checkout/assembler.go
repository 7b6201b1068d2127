package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/jchen-labs/shopfront/internal/cartview"
	pkgerrors "github.com/jchen-labs/shopfront/pkg/errors"
	"github.com/jchen-labs/shopfront/pkg/logger"
	"github.com/jchen-labs/shopfront/pkg/metrics"
	"github.com/jchen-labs/shopfront/pkg/storeapi"
)

// State is the assembler's position in the checkout lifecycle.
type State string

const (
	StateIdle       State = "idle"
	StateValidating State = "validating"
	StateSubmitting State = "submitting"
	StateSucceeded  State = "succeeded"
	StateRejected   State = "rejected"
)

type submitter interface {
	SubmitCheckout(ctx context.Context, userKey string, items []storeapi.CheckoutPair) (*storeapi.Ack, error)
}

type reloader interface {
	Reload(ctx context.Context, userKey string) error
}

// Assembler builds the atomic multi-item checkout request from the selected
// line items, submits it once confirmed, and reconciles the outcome back
// into client state. At most one submission is in flight per cart view; a
// rejection is always followed by a snapshot reload so the user retries
// against server truth.
type Assembler struct {
	mu    sync.Mutex
	state State

	client  submitter
	loader  reloader
	metrics *metrics.CartMetrics
	logg    *logger.Logger
}

// NewAssembler builds a checkout assembler. Metrics may be nil.
func NewAssembler(client submitter, loader reloader, cartMetrics *metrics.CartMetrics, logg *logger.Logger) (*Assembler, error) {
	if client == nil {
		return nil, fmt.Errorf("store client required")
	}
	if loader == nil {
		return nil, fmt.Errorf("snapshot loader required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Assembler{
		state:   StateIdle,
		client:  client,
		loader:  loader,
		metrics: cartMetrics,
		logg:    logg,
	}, nil
}

// State returns the assembler's current state.
func (a *Assembler) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// PendingCheckout is an assembled request awaiting the user's explicit
// confirmation. It is bound to the snapshot it was assembled from and is
// never cached across reloads.
type PendingCheckout struct {
	Items         []storeapi.CheckoutPair
	TotalAmount   int64
	snapshotToken uint64
}

// Prepare re-validates every selected line item against the last-known
// snapshot and assembles the checkout request in display order. An empty
// selection or any quantity outside its stock bound refuses the checkout
// locally; no request is sent.
func (a *Assembler) Prepare(view *cartview.View) (*PendingCheckout, error) {
	a.mu.Lock()
	if a.state == StateSubmitting {
		a.mu.Unlock()
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "a checkout is already in flight")
	}
	a.state = StateValidating
	a.mu.Unlock()

	selected := view.SelectedItems()
	if len(selected) == 0 {
		a.finish(StateIdle)
		a.metrics.IncCheckout(metrics.OutcomeRefusedLocal)
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no items selected for checkout")
	}

	var invalid error
	for _, item := range selected {
		if item.Quantity < 1 {
			invalid = multierr.Append(invalid, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("quantity for %q must be at least 1", item.Name)))
			continue
		}
		if item.StockKnown() && item.Quantity > *item.Stock {
			invalid = multierr.Append(invalid, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("quantity %d for %q exceeds available stock %d",
					item.Quantity, item.Name, *item.Stock)))
		}
	}
	if invalid != nil {
		a.finish(StateIdle)
		a.metrics.IncCheckout(metrics.OutcomeRefusedLocal)
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, invalid, "checkout refused")
	}

	pairs := make([]storeapi.CheckoutPair, 0, len(selected))
	for _, item := range selected {
		pairs = append(pairs, storeapi.CheckoutPair{item.ProductID, int64(item.Quantity)})
	}

	a.finish(StateIdle)
	return &PendingCheckout{
		Items:         pairs,
		TotalAmount:   view.TotalAmount(),
		snapshotToken: view.AppliedToken(),
	}, nil
}

// Confirm dispatches a prepared checkout after the user's affirmative
// acknowledgement. On acceptance the cart is refreshed through the loader;
// on rejection the server's message is returned verbatim and the snapshot
// is reloaded before the error is surfaced, so no stale state survives.
func (a *Assembler) Confirm(ctx context.Context, userKey string, view *cartview.View, pending *PendingCheckout) error {
	if pending == nil || len(pending.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "nothing to confirm")
	}
	if pending.snapshotToken != view.AppliedToken() {
		return pkgerrors.New(pkgerrors.CodeStale, "cart changed since the checkout was assembled")
	}

	a.mu.Lock()
	if a.state == StateSubmitting {
		a.mu.Unlock()
		return pkgerrors.New(pkgerrors.CodeStateConflict, "a checkout is already in flight")
	}
	a.state = StateSubmitting
	a.mu.Unlock()

	start := time.Now()
	_, err := a.client.SubmitCheckout(ctx, userKey, pending.Items)
	a.metrics.ObserveSubmitDuration(time.Since(start))

	if err != nil {
		a.finish(StateRejected)
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeConflict {
			a.metrics.IncCheckout(metrics.OutcomeRejected)
			a.logg.Warn(ctx, "checkout rejected by server")
		} else {
			a.metrics.IncCheckout(metrics.OutcomeError)
			a.logg.Error(ctx, "checkout submission failed", err)
		}
		// Pull corrected stock before the user retries. Client state is
		// never mutated optimistically; the reload is the only mutation.
		if reloadErr := a.loader.Reload(ctx, userKey); reloadErr != nil {
			a.logg.Error(ctx, "post-rejection reload failed", reloadErr)
		}
		return err
	}

	a.finish(StateSucceeded)
	a.metrics.IncCheckout(metrics.OutcomeAccepted)
	a.logg.Info(ctx, "checkout accepted")

	if reloadErr := a.loader.Reload(ctx, userKey); reloadErr != nil {
		a.logg.Error(ctx, "post-checkout reload failed", reloadErr)
	}
	return nil
}

func (a *Assembler) finish(state State) {
	a.mu.Lock()
	a.state = state
	a.mu.Unlock()
}
