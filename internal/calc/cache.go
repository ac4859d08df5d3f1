package calc

import (
	"sort"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/weftengine/rules/internal/types"
)

// Cache is the per-session bounded LRU described in spec.md §4.7: calculator
// invocations are pure functions of their input mapping, so a hit must be
// indistinguishable from a fresh call. Only successful results are cached —
// a calculator error is not memoized, since a rule author fixing the
// upstream fact that caused it expects the next invocation to actually run.
type Cache struct {
	reg   *Registry
	store *lru.Cache[string, types.FactValue]
}

// NewCache wraps reg with an LRU of the given capacity (spec.md §6
// `calculator_cache_capacity`).
func NewCache(reg *Registry, capacity int) (*Cache, error) {
	store, err := lru.New[string, types.FactValue](capacity)
	if err != nil {
		return nil, err
	}
	return &Cache{reg: reg, store: store}, nil
}

// Invoke returns the cached result for (name, inputs) if present, otherwise
// runs the calculator and caches a successful result.
func (c *Cache) Invoke(name string, inputs map[string]types.FactValue, policy types.NumericEqualityPolicy) (types.FactValue, error) {
	key := cacheKey(name, inputs, policy)
	if v, ok := c.store.Get(key); ok {
		return v, nil
	}
	result, err := c.reg.Invoke(name, inputs)
	if err != nil {
		return types.FactValue{}, err
	}
	c.store.Add(key, result)
	return result, nil
}

// cacheKey canonicalizes an input mapping into a deterministic string:
// names are sorted so key order never affects the cache key, and each
// value is written as its Hash under policy followed by its String form,
// so two values that merely print alike (String "1" and Int 1) never share
// an entry.
func cacheKey(name string, inputs map[string]types.FactValue, policy types.NumericEqualityPolicy) string {
	names := make([]string, 0, len(inputs))
	for n := range inputs {
		names = append(names, n)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(name)
	for _, n := range names {
		b.WriteByte('|')
		b.WriteString(n)
		b.WriteByte('=')
		b.WriteString(strconv.FormatUint(inputs[n].Hash(policy), 16))
		b.WriteByte(':')
		b.WriteString(inputs[n].String())
	}
	return b.String()
}
