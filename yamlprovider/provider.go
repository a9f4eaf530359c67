// Package yamlprovider implements the same mustach.Interface contract as
// jsonprovider, over data decoded by gopkg.in/yaml.v2. YAML mapping nodes
// decode as map[interface{}]interface{}; normalize walks the tree once into
// the map[string]interface{}/[]interface{} shape jsonprovider and the
// values package already know how to look up, rather than teaching values
// a second map-key convention.
package yamlprovider

import (
	"github.com/Inkimera/mustach"
	"github.com/Inkimera/mustach/jsonprovider"
	"github.com/Inkimera/mustach/values"

	yaml "gopkg.in/yaml.v2"
)

// New returns a provider whose root context is root, after normalizing
// any map[interface{}]interface{} nodes yaml.v2 may have produced.
func New(root interface{}) *jsonprovider.Provider {
	return jsonprovider.New(normalize(root))
}

// Parse decodes YAML bytes and returns a provider rooted at the result.
func Parse(data []byte) (*jsonprovider.Provider, error) {
	var root interface{}
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &mustach.Error{Code: mustach.ErrSystem, Cause: err}
	}
	return New(root), nil
}

// normalize recursively rewrites map[interface{}]interface{} nodes (as
// produced by yaml.v2 for mapping values) into map[string]interface{},
// and stringifies non-string map keys, so downstream lookup sees the same
// shape as a decoded JSON document.
func normalize(v interface{}) interface{} {
	switch n := v.(type) {
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(n))
		for k, val := range n {
			out[formatKey(k)] = normalize(val)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(n))
		for k, val := range n {
			out[k] = normalize(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(n))
		for i, val := range n {
			out[i] = normalize(val)
		}
		return out
	default:
		return v
	}
}

func formatKey(k interface{}) string {
	if s, ok := k.(string); ok {
		return s
	}
	return values.Format(k)
}
