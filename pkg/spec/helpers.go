package spec

import "github.com/kode4food/bpmspec/pkg/value"

// Variable is a named value for Vars
type Variable struct {
	Name  string
	Value value.Value
}

// Set lists variable names to collect
func Set(names ...string) []string {
	return names
}

// Pair names a native value, converted with value.Of
func Pair(name string, v any) Variable {
	return Variable{Name: name, Value: value.Of(v)}
}

// Vars builds a variable map from pairs. Later pairs win
func Vars(pairs ...Variable) value.Variables {
	res := make(value.Variables, len(pairs))
	for _, p := range pairs {
		res[p.Name] = p.Value
	}
	return res
}
