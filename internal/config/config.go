// Package config loads the engine's session options from a layered
// TOML/env/flag configuration (spf13/viper, the way steveyegge/beads'
// cmd/bd/config.go wires it), with a direct BurntSushi/toml decode path for
// callers that just want to read one file without the viper machinery —
// the same split beads itself draws between its SQLite-backed runtime
// config and its bootstrap-time config.yaml (internal/config/yaml_config.go).
package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"

	"github.com/weftengine/rules/internal/network"
	"github.com/weftengine/rules/internal/store"
	"github.com/weftengine/rules/internal/types"
)

// Options is the resolved configuration for one session (spec.md §6).
type Options struct {
	MaxFactsPerSession      int      `toml:"max_facts_per_session" mapstructure:"max_facts_per_session"`
	MaxFiringsPerBatch      int      `toml:"max_firings_per_batch" mapstructure:"max_firings_per_batch"`
	CalculatorCacheCapacity int      `toml:"calculator_cache_capacity" mapstructure:"calculator_cache_capacity"`
	IndexedFieldDefaults    []string `toml:"indexed_field_defaults" mapstructure:"indexed_field_defaults"`
	NumericEqualityPolicy   string   `toml:"numeric_equality_policy" mapstructure:"numeric_equality_policy"` // "cross_kind" | "strict"
	FloatAggregationOrder   string   `toml:"float_aggregation_order" mapstructure:"float_aggregation_order"` // "insertion" | "sorted"
}

// Default returns the engine's built-in defaults, used when no config file
// or override is present.
func Default() Options {
	return Options{
		MaxFactsPerSession:      1_000_000,
		MaxFiringsPerBatch:      100_000,
		CalculatorCacheCapacity: 4096,
		IndexedFieldDefaults:    append([]string(nil), store.DefaultIndexedFields...),
		NumericEqualityPolicy:   "cross_kind",
		FloatAggregationOrder:   "insertion",
	}
}

// LoadFile decodes opts directly from a TOML file, bypassing viper's layered
// resolution — for callers (tests, one-shot CLI invocations) that don't need
// env var or flag overlays.
func LoadFile(path string) (Options, error) {
	opts := Default()
	if _, err := toml.DecodeFile(path, &opts); err != nil {
		return Options{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return opts, nil
}

// NewViper builds a viper instance layering, in increasing priority:
// built-in defaults, an optional TOML file at path, and RULES_-prefixed
// environment variables (spec.md §6's configuration surface, wired the way
// beads layers its own settings across config.yaml and the CLI).
func NewViper(path string) (*viper.Viper, error) {
	v := viper.New()
	d := Default()
	v.SetDefault("max_facts_per_session", d.MaxFactsPerSession)
	v.SetDefault("max_firings_per_batch", d.MaxFiringsPerBatch)
	v.SetDefault("calculator_cache_capacity", d.CalculatorCacheCapacity)
	v.SetDefault("indexed_field_defaults", d.IndexedFieldDefaults)
	v.SetDefault("numeric_equality_policy", d.NumericEqualityPolicy)
	v.SetDefault("float_aggregation_order", d.FloatAggregationOrder)

	v.SetEnvPrefix("RULES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	return v, nil
}

// Load resolves Options from a viper instance built by NewViper.
func Load(v *viper.Viper) (Options, error) {
	var opts Options
	if err := v.Unmarshal(&opts); err != nil {
		return Options{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return opts, nil
}

// Policy resolves the configured numeric equality policy, defaulting to
// CrossKind for any unrecognized value rather than failing (spec.md §9's
// chosen default).
func (o Options) Policy() types.NumericEqualityPolicy {
	if o.NumericEqualityPolicy == "strict" {
		return types.Strict
	}
	return types.CrossKind
}

// FloatOrder resolves the configured float-aggregation reduction order.
func (o Options) FloatOrder() network.FloatAggregationOrder {
	if o.FloatAggregationOrder == "sorted" {
		return network.OrderSorted
	}
	return network.OrderInsertion
}
