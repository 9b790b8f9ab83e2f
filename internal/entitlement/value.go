package entitlement

import (
	"encoding/json"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ValueKind is the shape of a configured feature value
type ValueKind int

const (
	KindBool ValueKind = iota
	KindLimit
	KindLabel
)

// Unlimited is the matrix spelling of a limit with no bound
const Unlimited = "unlimited"

// FeatureValue is one cell of the plan matrix: a boolean, a numeric limit
// (possibly unlimited), or a qualitative label such as "advanced".
type FeatureValue struct {
	kind      ValueKind
	enabled   bool
	limit     int
	unlimited bool
	label     string
}

// BoolValue returns a boolean feature value
func BoolValue(b bool) FeatureValue {
	return FeatureValue{kind: KindBool, enabled: b}
}

// LimitValue returns a numeric limit
func LimitValue(n int) FeatureValue {
	return FeatureValue{kind: KindLimit, limit: n}
}

// UnlimitedValue returns a limit with no bound
func UnlimitedValue() FeatureValue {
	return FeatureValue{kind: KindLimit, unlimited: true}
}

// LabelValue returns a qualitative tier label
func LabelValue(label string) FeatureValue {
	return FeatureValue{kind: KindLabel, label: label}
}

// Kind returns the value's shape
func (v FeatureValue) Kind() ValueKind {
	return v.kind
}

// Bool returns the boolean; ok is false for other kinds.
func (v FeatureValue) Bool() (enabled, ok bool) {
	return v.enabled, v.kind == KindBool
}

// Limit returns the numeric limit; ok is false for other kinds.
func (v FeatureValue) Limit() (n int, unlimited, ok bool) {
	return v.limit, v.unlimited, v.kind == KindLimit
}

// Label returns the tier label; ok is false for other kinds.
func (v FeatureValue) Label() (string, bool) {
	return v.label, v.kind == KindLabel
}

// Allows is false only for boolean false and a zero limit.
func (v FeatureValue) Allows() bool {
	switch v.kind {
	case KindBool:
		return v.enabled
	case KindLimit:
		return v.unlimited || v.limit != 0
	default:
		return v.label != ""
	}
}

func (v FeatureValue) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.enabled)
	case KindLimit:
		if v.unlimited {
			return Unlimited
		}
		return strconv.Itoa(v.limit)
	default:
		return v.label
	}
}

func (v FeatureValue) raw() any {
	switch v.kind {
	case KindBool:
		return v.enabled
	case KindLimit:
		if v.unlimited {
			return Unlimited
		}
		return v.limit
	default:
		return v.label
	}
}

// MarshalJSON writes the value in its matrix spelling
func (v FeatureValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.raw())
}

// MarshalYAML writes the value in its matrix spelling
func (v FeatureValue) MarshalYAML() (interface{}, error) {
	return v.raw(), nil
}

// UnmarshalYAML decodes a matrix cell
func (v *FeatureValue) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: feature value must be a scalar", node.Line)
	}

	switch node.Tag {
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return err
		}
		*v = BoolValue(b)
	case "!!int":
		var n int
		if err := node.Decode(&n); err != nil {
			return err
		}
		if n < 0 {
			return fmt.Errorf("line %d: limit must not be negative, got %d", node.Line, n)
		}
		*v = LimitValue(n)
	case "!!str":
		switch node.Value {
		case "":
			return fmt.Errorf("line %d: label must not be empty", node.Line)
		case Unlimited:
			*v = UnlimitedValue()
		default:
			*v = LabelValue(node.Value)
		}
	default:
		return fmt.Errorf("line %d: unsupported feature value %q", node.Line, node.Value)
	}
	return nil
}
