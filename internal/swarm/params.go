package swarm

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParamKind tags the representation held by a ParamValue.
type ParamKind uint8

const (
	KindFloat ParamKind = iota
	KindInt
)

// ParamValue is a hyperparameter: either a float or an int.
type ParamValue struct {
	kind ParamKind
	f    float64
	i    int
}

func Float(v float64) ParamValue { return ParamValue{kind: KindFloat, f: v} }
func Int(v int) ParamValue       { return ParamValue{kind: KindInt, i: v} }

func (v ParamValue) Kind() ParamKind { return v.kind }

// Float64 returns the value as a float regardless of kind.
func (v ParamValue) Float64() float64 {
	if v.kind == KindInt {
		return float64(v.i)
	}
	return v.f
}

// String formats floats with two decimals and ints as-is. Used for
// directory names and log lines.
func (v ParamValue) String() string {
	if v.kind == KindInt {
		return strconv.Itoa(v.i)
	}
	return strconv.FormatFloat(v.f, 'f', 2, 64)
}

// MarshalJSON writes a JSON number. Integral floats keep a ".0" so the kind
// survives a round trip.
func (v ParamValue) MarshalJSON() ([]byte, error) {
	if v.kind == KindInt {
		return []byte(strconv.Itoa(v.i)), nil
	}
	b, err := json.Marshal(v.f)
	if err != nil {
		return nil, err
	}
	if !strings.ContainsAny(string(b), ".eE") {
		b = append(b, ".0"...)
	}
	return b, nil
}

func (v *ParamValue) UnmarshalJSON(data []byte) error {
	parsed, err := ParseParam(string(data))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// UnmarshalYAML decodes !!int scalars as Int and everything numeric else as
// Float.
func (v *ParamValue) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: parameter must be a scalar", node.Line)
	}
	switch node.ShortTag() {
	case "!!int":
		var i int
		if err := node.Decode(&i); err != nil {
			return err
		}
		*v = Int(i)
	case "!!float":
		var f float64
		if err := node.Decode(&f); err != nil {
			return err
		}
		*v = Float(f)
	default:
		return fmt.Errorf("line %d: parameter %q is not a number", node.Line, node.Value)
	}
	return nil
}

// MarshalYAML writes a tagged scalar so integral floats are read back as
// floats.
func (v ParamValue) MarshalYAML() (interface{}, error) {
	if v.kind == KindInt {
		return v.i, nil
	}
	b, err := v.MarshalJSON()
	if err != nil {
		return v.f, nil // .nan and .inf
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: string(b)}, nil
}

// ParseParam parses a command-line value: "50" is an Int, "0.8" or "1e3" a
// Float.
func ParseParam(s string) (ParamValue, error) {
	s = strings.TrimSpace(s)
	if !strings.ContainsAny(s, ".eE") {
		if i, err := strconv.Atoi(s); err == nil {
			return Int(i), nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return ParamValue{}, fmt.Errorf("invalid parameter value %q", s)
	}
	return Float(f), nil
}

// Params maps hyperparameter names to values.
type Params map[string]ParamValue

// ParamError reports a missing or mistyped hyperparameter.
type ParamError struct {
	Name   string
	Reason string
}

func (e *ParamError) Error() string {
	return "hyperparameter " + e.Name + ": " + e.Reason
}

// Float returns a float parameter; ints are widened.
func (p Params) Float(name string) (float64, error) {
	v, ok := p[name]
	if !ok {
		return 0, &ParamError{Name: name, Reason: "missing"}
	}
	return v.Float64(), nil
}

// FloatOr returns the parameter or def when absent.
func (p Params) FloatOr(name string, def float64) float64 {
	if v, ok := p[name]; ok {
		return v.Float64()
	}
	return def
}

// Int returns an integer parameter. Floats are rejected.
func (p Params) Int(name string) (int, error) {
	v, ok := p[name]
	if !ok {
		return 0, &ParamError{Name: name, Reason: "missing"}
	}
	if v.Kind() != KindInt {
		return 0, &ParamError{Name: name, Reason: "must be an integer, got " + v.String()}
	}
	return v.i, nil
}

// IntOr returns the integer parameter or def when absent.
func (p Params) IntOr(name string, def int) (int, error) {
	if _, ok := p[name]; !ok {
		return def, nil
	}
	return p.Int(name)
}

// With returns a copy of p with overrides applied.
func (p Params) With(overrides Params) Params {
	out := make(Params, len(p)+len(overrides))
	for k, v := range p {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

// Keys returns the parameter names in sorted order.
func (p Params) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Numbers converts the parameters to JSON numbers for config.json.
func (p Params) Numbers() map[string]json.Number {
	out := make(map[string]json.Number, len(p))
	for k, v := range p {
		b, err := v.MarshalJSON()
		if err != nil {
			continue // non-finite floats have no JSON form
		}
		out[k] = json.Number(b)
	}
	return out
}

func (p Params) String() string {
	parts := make([]string, 0, len(p))
	for _, k := range p.Keys() {
		parts = append(parts, k+"="+p[k].String())
	}
	return strings.Join(parts, " ")
}
