// Package filler orchestrates one fill of a candidate record into a page.
//
// For every eligible field of the record the filler looks up the alias list,
// resolves an element, assigns the value, announces the change and flashes
// the element. Failures never escape: they become an aborted Outcome.
package filler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/form-filler/internal/aliases"
	"github.com/jonathan/form-filler/internal/coerce"
	"github.com/jonathan/form-filler/internal/dom"
	"github.com/jonathan/form-filler/internal/highlight"
	"github.com/jonathan/form-filler/internal/metrics"
	"github.com/jonathan/form-filler/internal/notify"
	"github.com/jonathan/form-filler/internal/resolver"
	"github.com/jonathan/form-filler/internal/types"
	"go.uber.org/zap"
)

// DefaultSettleDelay is the pause after the last field so host pages can
// react to the change events before the caller tears down its UI.
const DefaultSettleDelay = 1500 * time.Millisecond

// Locator finds the element for a list of aliases.
type Locator interface {
	Resolve(page dom.Page, aliases []string) (*types.ResolvedField, bool, error)
}

// Assigner writes a value into a resolved element.
type Assigner interface {
	Assign(page dom.Page, field *types.ResolvedField, raw any, dataKey string) (types.AssignResult, error)
}

// Announcer tells the page an element's value changed.
type Announcer interface {
	Announce(el dom.Element)
}

// Flasher gives visual confirmation on an element.
type Flasher interface {
	Flash(el dom.Element)
}

// TransitionFunc observes state machine transitions of a run.
type TransitionFunc func(runID uuid.UUID, from, to types.FillState)

// Options configures a Filler. Nil components get the package defaults.
type Options struct {
	Aliases   func(dataKey string) []string
	Resolver  Locator
	Coercer   Assigner
	Notifier  Announcer
	Flasher   Flasher
	Metrics   *metrics.Metrics
	Logger    *zap.Logger

	// SettleDelay defaults to DefaultSettleDelay; a negative value disables it.
	SettleDelay time.Duration

	OnTransition TransitionFunc
}

// Filler runs fills. It holds no per-run state and may be shared.
type Filler struct {
	aliases      func(string) []string
	resolver     Locator
	coercer      Assigner
	notifier     Announcer
	flasher      Flasher
	metrics      *metrics.Metrics
	logger       *zap.Logger
	settle       time.Duration
	onTransition TransitionFunc
}

// New creates a Filler.
func New(opts Options) *Filler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	f := &Filler{
		aliases:      opts.Aliases,
		resolver:     opts.Resolver,
		coercer:      opts.Coercer,
		notifier:     opts.Notifier,
		flasher:      opts.Flasher,
		metrics:      opts.Metrics,
		logger:       logger.Named("filler"),
		settle:       opts.SettleDelay,
		onTransition: opts.OnTransition,
	}
	if f.aliases == nil {
		f.aliases = aliases.Lookup
	}
	if f.resolver == nil {
		f.resolver = resolver.New(resolver.WithLogger(logger))
	}
	if f.coercer == nil {
		f.coercer = coerce.New(logger)
	}
	if f.notifier == nil {
		f.notifier = notify.New(logger)
	}
	if f.flasher == nil {
		f.flasher = highlight.New(highlight.Options{Logger: logger})
	}
	if f.settle == 0 {
		f.settle = DefaultSettleDelay
	}
	return f
}

// run carries the per-invocation state.
type run struct {
	id     uuid.UUID
	state  types.FillState
	logger *zap.Logger
}

func (f *Filler) enter(r *run, to types.FillState) {
	from := r.state
	r.state = to
	if f.onTransition != nil {
		f.onTransition(r.id, from, to)
	}
}

// Fill writes every eligible field of c into page and waits for the settle
// delay. It never panics and never returns an error: unexpected failures are
// reported as an aborted Outcome and the partial report is withheld.
func (f *Filler) Fill(ctx context.Context, page dom.Page, c types.Candidate) (out types.Outcome) {
	start := time.Now()
	r := &run{
		id:    uuid.New(),
		state: types.StateIdle,
	}
	r.logger = f.logger.With(
		zap.String("run_id", r.id.String()),
		zap.String("candidate_id", c.ID()),
	)

	defer func() {
		if rec := recover(); rec != nil {
			out = f.abort(r, &FillError{Message: "panic during fill", Cause: fmt.Errorf("%v", rec)})
		}
		f.metrics.IncrementFill(string(out.State))
		f.metrics.ObserveFillDuration(time.Since(start))
	}()

	f.enter(r, types.StateFilling)
	r.logger.Info("fill started", zap.Int("fields", len(c.Fields)))

	report, err := f.fillFields(ctx, r, page, c)
	if err != nil {
		return f.abort(r, err)
	}

	f.enter(r, types.StateSummarizing)
	f.wait(ctx, r)

	report.Duration = time.Since(start)
	f.enter(r, types.StateDone)
	r.logger.Info("fill completed",
		zap.Int("filled", report.Filled),
		zap.Int("eligible", report.Eligible),
		zap.Duration("duration", report.Duration),
	)
	return types.Outcome{RunID: r.id, State: types.StateDone, Report: report}
}

func (f *Filler) fillFields(ctx context.Context, r *run, page dom.Page, c types.Candidate) (*types.FillReport, error) {
	eligible := c.Eligible()
	report := &types.FillReport{
		RunID:       r.id,
		CandidateID: c.ID(),
		Eligible:    len(eligible),
		Fields:      make([]types.FieldResult, 0, len(eligible)),
	}

	for _, field := range eligible {
		if err := ctx.Err(); err != nil {
			return nil, &FillError{Message: "fill interrupted", Key: field.Key, Cause: err}
		}

		result, err := f.fillField(r, page, field)
		if err != nil {
			return nil, err
		}
		if result.Status.Found() {
			report.Filled++
		}
		report.Fields = append(report.Fields, result)
		f.metrics.IncrementField(string(result.Status), result.Tier.String())
	}
	return report, nil
}

func (f *Filler) fillField(r *run, page dom.Page, field types.Field) (types.FieldResult, error) {
	result := types.FieldResult{Key: field.Key, Status: types.StatusNotFound}

	f.enter(r, types.StateResolving)
	resolved, ok, err := f.resolver.Resolve(page, f.aliases(field.Key))
	if err != nil {
		return result, &FillError{Message: "failed to resolve field", Key: field.Key, Cause: err}
	}
	if !ok {
		r.logger.Debug("field not found", zap.String("key", field.Key))
		return result, nil
	}
	result.Alias = resolved.Alias
	result.Tier = resolved.Tier
	result.ElementKey = resolved.Element.Key()

	f.enter(r, types.StateAssigning)
	assigned, err := f.coercer.Assign(page, resolved, field.Value, field.Key)
	if err != nil {
		return result, &FillError{Message: "failed to assign value", Key: field.Key, Cause: err}
	}
	result.Kind = assigned.Kind
	result.Status = types.StatusFilled
	if !assigned.Applied {
		result.Status = types.StatusOptionNotMatched
	}

	f.enter(r, types.StateNotifying)
	f.notifier.Announce(resolved.Element)

	f.enter(r, types.StateHighlighting)
	f.flasher.Flash(resolved.Element)

	r.logger.Debug("field filled",
		zap.String("key", field.Key),
		zap.String("alias", resolved.Alias),
		zap.Stringer("tier", resolved.Tier),
		zap.String("status", string(result.Status)),
	)
	return result, nil
}

// wait blocks for the settle delay. Cancelling ctx cuts the delay short
// without changing the outcome: every field has already been written.
func (f *Filler) wait(ctx context.Context, r *run) {
	if f.settle <= 0 {
		return
	}
	timer := time.NewTimer(f.settle)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
		r.logger.Debug("settle delay cut short", zap.Error(ctx.Err()))
	}
}

func (f *Filler) abort(r *run, err error) types.Outcome {
	f.enter(r, types.StateAborted)
	r.logger.Error("fill aborted", zap.Error(err))
	return types.Outcome{RunID: r.id, State: types.StateAborted, Reason: err.Error()}
}

// FillSelected runs Fill for a candidate chosen from the launcher and
// advances sel accordingly: cleared and closed on success, cleared with the
// dialog left open on abort.
func (f *Filler) FillSelected(ctx context.Context, page dom.Page, c types.Candidate, sel types.Selection) (types.Outcome, types.Selection) {
	sel = sel.Begin(c.ID())
	out := f.Fill(ctx, page, c)
	if out.Completed() {
		return out, sel.Complete()
	}
	return out, sel.Abort()
}
