package listedit

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	scalexone "github.com/creastat/scalexone"
	"github.com/creastat/scalexone/logger"
)

// ErrPartialPersist reports that some point updates still failed after
// retrying; the editor has fallen back to the authoritative order.
var ErrPartialPersist = errors.New("order was only partially persisted")

// ErrClosed is returned by operations on a closed editor.
var ErrClosed = errors.New("editor closed")

const (
	defaultRetries     = 1
	defaultConcurrency = 8
)

// Option is a functional option for configuring an Editor.
type Option func(*Editor)

// WithRetries sets how many times the failed subset is retried before
// falling back to a refetch.
func WithRetries(n int) Option {
	return func(e *Editor) {
		if n >= 0 {
			e.retries = n
		}
	}
}

// WithConcurrency bounds the number of in-flight point updates.
func WithConcurrency(n int) Option {
	return func(e *Editor) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) Option {
	return func(e *Editor) {
		e.log = log
	}
}

// WithOnChange registers a callback invoked with the new local order after an
// optimistic reorder or an authoritative reload.
func WithOnChange(fn func([]scalexone.OrderedItem)) Option {
	return func(e *Editor) {
		e.onChange = fn
	}
}

// ItemResult is the outcome of persisting one item's order.
type ItemResult struct {
	ID       string
	Order    int
	Attempts int
	Err      error
}

// Report describes a persistence saga.
type Report struct {
	Results []ItemResult

	// Refetched is set when failures remained and the authoritative order
	// replaced the optimistic one.
	Refetched bool

	// Superseded is set when a newer change made this saga's refetch
	// irrelevant; local state was left to the newer change.
	Superseded bool
}

// Failed returns the items that could not be persisted.
func (r *Report) Failed() []ItemResult {
	var out []ItemResult
	for _, res := range r.Results {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}

// Editor holds one ordered collection (e.g. the channels of a community or
// the videos of a module) and keeps the backend in step with local reorders.
type Editor struct {
	repo        scalexone.OrderedCollectionRepo
	parentID    string
	log         *logger.Logger
	retries     int
	concurrency int
	onChange    func([]scalexone.OrderedItem)

	life   context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	items  []scalexone.OrderedItem
	gen    uint64
	closed bool
}

// NewEditor creates an editor for the collection under parentID. Call Load
// to populate it.
func NewEditor(repo scalexone.OrderedCollectionRepo, parentID string, opts ...Option) *Editor {
	e := &Editor{
		repo:        repo,
		parentID:    parentID,
		retries:     defaultRetries,
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = logger.OrNop(e.log).With("component", "listedit", "parent_id", parentID)
	e.life, e.cancel = context.WithCancel(context.Background())
	return e
}

// Items returns the current local order.
func (e *Editor) Items() []scalexone.OrderedItem {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.items)
}

// Load replaces local state with the authoritative collection.
func (e *Editor) Load(ctx context.Context) error {
	ctx, done := e.bind(ctx)
	defer done()

	items, err := e.repo.List(ctx, e.parentID)
	if err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	e.gen++
	e.items = slices.Clone(items)
	e.mu.Unlock()

	e.changed(items)
	return nil
}

// Reorder moves the item at src to dst locally, then persists the new order
// with one concurrent point update per item. Failed updates are retried; if
// any still fail the authoritative order is reloaded, unless a newer change
// has been made in the meantime.
//
// An invalid index is rejected before anything changes. Otherwise the
// returned report is always non-nil.
func (e *Editor) Reorder(ctx context.Context, src, dst int) (*Report, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, ErrClosed
	}
	next, err := Reorder(e.items, src, dst)
	if err != nil {
		e.mu.Unlock()
		return nil, err
	}
	e.gen++
	gen := e.gen
	e.items = next
	e.mu.Unlock()

	e.changed(next)
	return e.persist(ctx, gen, next)
}

// Close cancels in-flight persistence and stops any late result from
// touching local state.
func (e *Editor) Close() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	e.cancel()
}

func (e *Editor) persist(ctx context.Context, gen uint64, items []scalexone.OrderedItem) (*Report, error) {
	ctx, done := e.bind(ctx)
	defer done()

	results := make([]ItemResult, len(items))
	for i, it := range items {
		results[i] = ItemResult{ID: it.ID, Order: it.Order}
	}

	pending := make([]int, len(items))
	for i := range pending {
		pending[i] = i
	}

	for attempt := 0; attempt <= e.retries && len(pending) > 0; attempt++ {
		if err := ctx.Err(); err != nil {
			break
		}
		if attempt > 0 {
			e.log.Info("retrying failed order updates", "failed", len(pending), "attempt", attempt)
		}
		pending = e.updateAll(ctx, results, pending)
	}

	report := &Report{Results: results}
	if len(pending) == 0 {
		return report, nil
	}

	persistErr := fmt.Errorf("%w: %d of %d items failed", ErrPartialPersist, len(pending), len(items))
	if err := ctx.Err(); err != nil {
		return report, errors.Join(persistErr, err)
	}

	e.log.Warn("order updates failed, reloading collection", "failed", len(pending), "total", len(items))

	fresh, err := e.repo.List(ctx, e.parentID)
	if err != nil {
		return report, errors.Join(persistErr, fmt.Errorf("failed to reload collection: %w", err))
	}

	e.mu.Lock()
	if e.closed || e.gen != gen {
		e.mu.Unlock()
		report.Superseded = true
		return report, persistErr
	}
	e.gen++
	e.items = slices.Clone(fresh)
	e.mu.Unlock()

	report.Refetched = true
	e.changed(fresh)
	return report, persistErr
}

// updateAll issues the point updates for the given result indexes and
// returns the indexes that failed.
func (e *Editor) updateAll(ctx context.Context, results []ItemResult, idx []int) []int {
	var g errgroup.Group
	g.SetLimit(e.concurrency)

	for _, i := range idx {
		g.Go(func() error {
			res := &results[i]
			res.Attempts++
			res.Err = e.repo.UpdateOrder(ctx, res.ID, res.Order)
			return nil
		})
	}
	_ = g.Wait()

	var failed []int
	for _, i := range idx {
		if results[i].Err != nil {
			failed = append(failed, i)
		}
	}
	return failed
}

// bind derives a context that is also canceled when the editor closes.
func (e *Editor) bind(ctx context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(e.life, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

func (e *Editor) changed(items []scalexone.OrderedItem) {
	if e.onChange != nil {
		e.onChange(slices.Clone(items))
	}
}
