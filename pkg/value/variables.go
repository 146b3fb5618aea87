package value

import (
	"maps"
	"slices"
)

// Variables maps variable names to their values
type Variables map[string]Value

// VariablesOf converts a map of native Go values into Variables
func VariablesOf(m map[string]any) Variables {
	res := make(Variables, len(m))
	for k, v := range m {
		res[k] = Of(v)
	}
	return res
}

// Set creates a new Variables with the specified name-value pair added
func (v Variables) Set(name string, val Value) Variables {
	if v == nil {
		return Variables{name: val}
	}
	res := maps.Clone(v)
	res[name] = val
	return res
}

// Get returns the named value and whether it is present
func (v Variables) Get(name string) (Value, bool) {
	val, ok := v[name]
	return val, ok
}

// Names returns the variable names in sorted order
func (v Variables) Names() []string {
	return slices.Sorted(maps.Keys(v))
}

// Native converts every value with Value.Native
func (v Variables) Native() map[string]any {
	res := make(map[string]any, len(v))
	for k, val := range v {
		res[k] = val.Native()
	}
	return res
}

// Clone returns a shallow copy that is never nil
func (v Variables) Clone() Variables {
	if v == nil {
		return Variables{}
	}
	return maps.Clone(v)
}

// Merge returns a copy of v overlaid with other
func (v Variables) Merge(other Variables) Variables {
	res := v.Clone()
	maps.Copy(res, other)
	return res
}
