// Package session implements the external interface contract of spec.md
// §6 on top of the compiler/network/store/calc/exec packages: one Session
// owns one fact store, one compiled network, one calculator cache, and no
// state is shared across sessions (spec.md §5).
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/weftengine/rules/internal/agenda"
	"github.com/weftengine/rules/internal/calc"
	"github.com/weftengine/rules/internal/compiler"
	"github.com/weftengine/rules/internal/config"
	"github.com/weftengine/rules/internal/exec"
	"github.com/weftengine/rules/internal/network"
	"github.com/weftengine/rules/internal/obslog"
	"github.com/weftengine/rules/internal/store"
	"github.com/weftengine/rules/internal/types"
)

// FactInput is one fact in an AssertBatch call (spec.md §6 Assert input).
type FactInput struct {
	ExternalID string
	Fields     map[string]types.FactValue
}

// AssertOutcome reports one fact's admission into the store. Err is set to
// the store's insert error when the fact was rejected (Store.Insert fails
// only when the fact-id space is exhausted); the fact is skipped and the
// rest of the batch continues (spec.md §7).
type AssertOutcome struct {
	ExternalID string
	FactID     types.FactID
	Err        error
}

// BatchResult is everything one AssertBatch call produced.
type BatchResult struct {
	Asserts  []AssertOutcome
	Firings  []exec.FiringResult
	Duration time.Duration
}

// Session is one compile-once-evaluate-many unit of isolation (spec.md §5).
// Not safe for concurrent use by multiple goroutines except where noted
// (AssertBatch internally parallelizes store inserts; everything else on a
// Session must be called sequentially by its single owner).
type Session struct {
	mu sync.Mutex

	ID   string
	opts config.Options
	log  *obslog.Logger
	met  *Metrics

	store   *store.Store
	runtime *network.Runtime
	agenda  *agenda.Agenda
	network *network.Network
	report  *compiler.CompileReport
	rules   []*types.Rule
	calc    *calc.Cache
	exec    *exec.Executor

	externalIndex map[string]types.FactID
	closed        bool
}

// New creates a Session with a freshly generated id when id is "".
func New(id string, opts config.Options, log *obslog.Logger, met *Metrics) (*Session, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if log == nil {
		log = obslog.Noop()
	}
	if met == nil {
		var err error
		if met, err = NewMetrics(nil); err != nil {
			return nil, err
		}
	}

	st := store.New(opts.Policy(), opts.IndexedFieldDefaults)
	ag := agenda.New()
	rt := network.NewRuntime(st, opts.Policy(), opts.FloatOrder(), ag)

	reg := calc.NewRegistry()
	cache, err := calc.NewCache(reg, opts.CalculatorCacheCapacity)
	if err != nil {
		return nil, fmt.Errorf("build calculator cache: %w", err)
	}

	s := &Session{
		ID:            id,
		opts:          opts,
		log:           log,
		met:           met,
		store:         st,
		runtime:       rt,
		agenda:        ag,
		calc:          cache,
		externalIndex: make(map[string]types.FactID),
	}
	return s, nil
}

// CompileRules validates and wires rules into a fresh network, replacing
// any network compiled earlier on this session (spec.md §6 CompileRules).
// A compile failure leaves the session's prior network, if any, untouched —
// "no partial network is retained" (spec.md §7).
func (s *Session) CompileRules(rules []*types.Rule, hints map[string]int) (*compiler.CompileReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("session %s is closed", s.ID)
	}

	nw, report, err := compiler.Compile(rules, s.store, s.runtime, compiler.CompileOptions{CardinalityHints: hints})
	if err != nil {
		return nil, err
	}

	s.network = nw
	s.report = report
	s.rules = rules
	s.exec = exec.New(s.store, nw, s.calc, s.opts.Policy())
	s.log.Info("compiled rule set",
		obslog.String("session", s.ID),
		obslog.Int("rules", len(rules)),
		obslog.Int("alpha_nodes", report.AlphaNodeCount),
		obslog.Int("shared_alpha_nodes", report.SharedAlphaNodeCount),
		obslog.Int("join_nodes", report.JoinNodeCount),
	)
	return report, nil
}

// AssertBatch inserts facts, propagates them through the network, and
// drains the agenda, executing every firing the batch produces before
// returning (spec.md §6 Assert input's batch-end marker is this call's
// return — there is no separate "end batch" call in this in-process API).
//
// ctx is checked for cancellation between firings and between processing
// two input facts (spec.md §5); a cancellation mid-batch still leaves the
// network consistent because each firing's field writes commit atomically
// inside Executor.Fire before the next cancellation check happens.
func (s *Session) AssertBatch(ctx context.Context, facts []FactInput) (BatchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := time.Now()

	if s.closed {
		return BatchResult{}, fmt.Errorf("session %s is closed", s.ID)
	}
	if s.network == nil {
		return BatchResult{}, fmt.Errorf("session %s has no compiled rules: %w", s.ID, types.ErrInvalidRule)
	}

	if s.store.Len()+len(facts) > s.opts.MaxFactsPerSession {
		return BatchResult{}, fmt.Errorf("session %s at fact ceiling %d: %w", s.ID, s.opts.MaxFactsPerSession, types.ErrResourceExhausted)
	}

	shards := 1
	if len(facts) > 256 {
		shards = 4
	}
	asserts, err := parallelInsert(ctx, s.store, facts, shards)
	if err != nil {
		if ctx.Err() != nil {
			return BatchResult{}, fmt.Errorf("batch insert: %w: %w", err, types.ErrCancelled)
		}
		return BatchResult{}, fmt.Errorf("batch insert: %w", err)
	}

	var assertedIDs []types.FactID
	for _, oc := range asserts {
		if oc.Err != nil {
			continue
		}
		if oc.ExternalID != "" {
			s.externalIndex[oc.ExternalID] = oc.FactID
		}
		assertedIDs = append(assertedIDs, oc.FactID)
	}

	for _, id := range assertedIDs {
		if ctx.Err() != nil {
			return BatchResult{}, fmt.Errorf("%w", types.ErrCancelled)
		}
		s.network.AssertFact(id)
	}
	s.met.recordAssert(ctx, int64(len(assertedIDs)))

	budget := s.opts.MaxFiringsPerBatch
	if budget <= 0 {
		budget = 10 * (len(facts) + 1) * (len(s.rules) + 1)
	}

	var firings []exec.FiringResult
	fired := 0
	for {
		if ctx.Err() != nil {
			return BatchResult{Asserts: asserts, Firings: firings}, fmt.Errorf("%w", types.ErrCancelled)
		}
		f := s.agenda.PopNext()
		if f == nil {
			break
		}
		fired++
		if fired > budget {
			return BatchResult{Asserts: asserts, Firings: firings}, fmt.Errorf("batch exceeded %d firings: %w: %w", budget, types.ErrBudgetExceeded, types.ErrResourceExhausted)
		}
		result := s.exec.Fire(f.Rule, f.Token)
		firings = append(firings, result)
		s.met.recordFiring(ctx)
	}

	dur := time.Since(start)
	s.met.recordBatchSeconds(ctx, dur.Seconds())
	return BatchResult{Asserts: asserts, Firings: firings, Duration: dur}, nil
}

// Retract removes a fact by internal id, cascading through the network the
// same way a batch-internal field-write commit does (spec.md §6 Control
// input).
func (s *Session) Retract(id types.FactID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.retractLocked(id)
}

// RetractExternal removes the fact most recently asserted under externalID.
func (s *Session) RetractExternal(externalID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.externalIndex[externalID]
	if !ok {
		return false
	}
	delete(s.externalIndex, externalID)
	return s.retractLocked(id)
}

func (s *Session) retractLocked(id types.FactID) bool {
	if s.network != nil {
		s.network.RetractFact(id)
	}
	ok := s.store.Retract(id)
	if ok {
		s.met.recordRetract(context.Background())
	}
	return ok
}

// Close releases session memory (spec.md §6 Control input). The session
// must not be used afterward.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.network = nil
	s.rules = nil
	s.externalIndex = nil
}

// Report returns the CompileReport from the most recent successful
// CompileRules call, or nil if none has succeeded yet.
func (s *Session) Report() *compiler.CompileReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.report
}

// FactCount reports the number of live facts, for ResourceExhausted
// diagnostics and tests.
func (s *Session) FactCount() int { return s.store.Len() }
