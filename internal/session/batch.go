package session

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/weftengine/rules/internal/types"
)

// insertShard is one worker's share of a batch's fact inserts.
type insertShard struct {
	input []FactInput
	out   []AssertOutcome
}

// parallelInsert partitions facts across up to shards workers and inserts
// each into the store concurrently (spec.md §5's "batch-internal data
// parallelism"). Store.Insert and Store's field indexes are already
// mutex-guarded (internal/store/store.go), so fan-out here is safe without
// the engine itself taking any lock.
//
// Network fan-out (AssertFact) deliberately stays out of this function and
// runs single-threaded afterward: alpha/beta node memories carry no
// synchronization of their own, and spec.md §5 requires parallel execution
// to be "observationally identical to single-threaded execution" — the
// cheapest way to guarantee that for a mutable graph of unlocked node
// structs is to never touch it from more than one goroutine. Parallelizing
// only the part that is already safe to parallelize (store writes) still
// gives real wall-clock benefit on large batches without reopening that
// correctness question.
func parallelInsert(ctx context.Context, st insertStore, facts []FactInput, shards int) ([]AssertOutcome, error) {
	if shards < 1 {
		shards = 1
	}
	if len(facts) == 0 {
		return nil, nil
	}
	if shards > len(facts) {
		shards = len(facts)
	}

	chunks := make([]insertShard, shards)
	base := len(facts) / shards
	rem := len(facts) % shards
	offset := 0
	for i := 0; i < shards; i++ {
		n := base
		if i < rem {
			n++
		}
		chunks[i].input = facts[offset : offset+n]
		offset += n
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := range chunks {
		i := i
		g.Go(func() error {
			chunks[i].out = make([]AssertOutcome, len(chunks[i].input))
			for j, f := range chunks[i].input {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				id, err := st.Insert(f.Fields, f.ExternalID)
				if err != nil {
					chunks[i].out[j] = AssertOutcome{ExternalID: f.ExternalID, Err: err}
					continue
				}
				chunks[i].out[j] = AssertOutcome{ExternalID: f.ExternalID, FactID: id}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]AssertOutcome, 0, len(facts))
	for i := range chunks {
		out = append(out, chunks[i].out...)
	}
	return out, nil
}

// insertStore is the narrow surface parallelInsert needs from *store.Store.
type insertStore interface {
	Insert(fields map[string]types.FactValue, externalID string) (types.FactID, error)
}
