// Package model_selection implements hyperparameter search over a grid of
// configurations, scored by k-fold cross-validation or out-of-bag estimates.
//
// 使用例:
//
//	grid := model_selection.ParamGrid{
//	    {Name: "max_depth", Values: []interface{}{2, 4, 8}},
//	    {Name: "max_features", Values: []interface{}{1, 3}},
//	}
//	res, err := model_selection.Tune(ctx, X, y,
//	    model_selection.RandomForestRegressorFamily(ensemble.WithRandomState(1)),
//	    grid, model_selection.OOB(), metrics.RMSEScorer)
package model_selection

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/scigo-ensemble/pkg/errors"
)

// Param is one named hyperparameter with its candidate values.
type Param struct {
	Name   string        `yaml:"name" mapstructure:"name"`
	Values []interface{} `yaml:"values" mapstructure:"values"`
}

// ParamGrid is an ordered list of hyperparameters. Its cross product is
// enumerated with the first parameter as the outermost loop.
type ParamGrid []Param

// Validate returns an InvalidGridError when the grid is empty, a name is
// blank or repeated, or a parameter has no candidate values.
func (g ParamGrid) Validate() error {
	if len(g) == 0 {
		return errors.NewInvalidGridError("", "grid has no parameters")
	}
	seen := make(map[string]bool, len(g))
	for _, p := range g {
		if strings.TrimSpace(p.Name) == "" {
			return errors.NewInvalidGridError("", "parameter name is empty")
		}
		if seen[p.Name] {
			return errors.NewInvalidGridError(p.Name, "parameter appears more than once")
		}
		seen[p.Name] = true
		if len(p.Values) == 0 {
			return errors.NewInvalidGridError(p.Name, "no candidate values")
		}
	}
	return nil
}

// Size returns the number of configurations in the cross product.
func (g ParamGrid) Size() int {
	if len(g) == 0 {
		return 0
	}
	n := 1
	for _, p := range g {
		n *= len(p.Values)
	}
	return n
}

// Configurations enumerates the cross product outer-to-inner: the last
// parameter varies fastest.
func (g ParamGrid) Configurations() []Configuration {
	n := g.Size()
	if n == 0 {
		return nil
	}
	out := make([]Configuration, n)
	for i := range out {
		cfg := make(Configuration, len(g))
		rem := i
		for j := len(g) - 1; j >= 0; j-- {
			k := len(g[j].Values)
			cfg[j] = ParamValue{Name: g[j].Name, Value: g[j].Values[rem%k]}
			rem /= k
		}
		out[i] = cfg
	}
	return out
}

// ParamValue is a single hyperparameter assignment.
type ParamValue struct {
	Name  string
	Value interface{}
}

// Configuration assigns one value to every parameter of a grid, in grid order.
type Configuration []ParamValue

// Map returns the configuration as a SetParams argument.
func (c Configuration) Map() map[string]interface{} {
	m := make(map[string]interface{}, len(c))
	for _, pv := range c {
		m[pv.Name] = pv.Value
	}
	return m
}

// Get returns the value assigned to name.
func (c Configuration) Get(name string) (interface{}, bool) {
	for _, pv := range c {
		if pv.Name == name {
			return pv.Value, true
		}
	}
	return nil, false
}

// String renders the configuration as "name=value, name=value".
func (c Configuration) String() string {
	parts := make([]string, len(c))
	for i, pv := range c {
		parts[i] = fmt.Sprintf("%s=%v", pv.Name, pv.Value)
	}
	return strings.Join(parts, ", ")
}

// MarshalYAML encodes the configuration as a mapping that keeps grid order.
func (c Configuration) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, pv := range c {
		key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: pv.Name}
		value := &yaml.Node{}
		if err := value.Encode(pv.Value); err != nil {
			return nil, errors.Wrapf(err, "encode parameter %s", pv.Name)
		}
		node.Content = append(node.Content, key, value)
	}
	return node, nil
}
