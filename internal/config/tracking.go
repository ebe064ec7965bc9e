package config

import (
	"fmt"

	"quantum-redirect/internal/redirect/domain"

	"gopkg.in/yaml.v3"
)

// TrackingDefaults is an ordered YAML mapping of query parameters appended to every final URL
// at the lowest priority. Order in the file is the order on the wire.
type TrackingDefaults struct {
	params domain.Params
}

func (t *TrackingDefaults) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: tracking_defaults must be a mapping", node.Line)
	}

	var params domain.Params
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if value.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: tracking default %q must be a scalar", value.Line, key.Value)
		}
		params.Set(key.Value, value.Value)
	}
	t.params = params
	return nil
}

// Params returns a copy of the defaults.
func (t TrackingDefaults) Params() domain.Params {
	return t.params.Clone()
}
