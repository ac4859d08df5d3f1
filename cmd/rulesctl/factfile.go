package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/weftengine/rules/internal/session"
	"github.com/weftengine/rules/internal/types"
)

// factFile is the on-disk YAML shape facts are authored in (spec.md §6
// Assert input): a plain sequence of external-id + field-map documents.
type factFile struct {
	Facts []yamlFact `yaml:"facts"`
}

type yamlFact struct {
	ExternalID string         `yaml:"external_id"`
	Fields     map[string]any `yaml:"fields"`
}

func loadFacts(path string) ([]session.FactInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fact file %s: %w", path, err)
	}
	var ff factFile
	if err := yaml.Unmarshal(data, &ff); err != nil {
		return nil, fmt.Errorf("parse fact file %s: %w", path, err)
	}

	out := make([]session.FactInput, 0, len(ff.Facts))
	for _, yf := range ff.Facts {
		fields := make(map[string]types.FactValue, len(yf.Fields))
		for k, v := range yf.Fields {
			fields[k] = fromYAML(v)
		}
		out = append(out, session.FactInput{ExternalID: yf.ExternalID, Fields: fields})
	}
	return out, nil
}
