package harness

import "fmt"

// Params is the per-step parameter bag from a contract document. YAML
// decodes step params into this tagged value tree; actions pull typed
// values back out with the Get* helpers below, which raise
// MissingParamError naming the offending field instead of panicking on a
// type assertion.
type Params map[string]any

// GetString returns the required string param name.
func (p Params) GetString(action, name string) (string, error) {
	v, ok := p[name]
	if !ok {
		return "", &MissingParamError{Action: action, Field: name}
	}
	s, ok := v.(string)
	if !ok {
		return "", &MissingParamError{Action: action, Field: name}
	}
	return s, nil
}

// GetStringDefault returns the string param name, or def if absent.
func (p Params) GetStringDefault(name, def string) string {
	v, ok := p[name]
	if !ok {
		return def
	}
	s, ok := v.(string)
	if !ok {
		return def
	}
	return s
}

// GetInt returns the required integer param name. YAML/JSON numbers
// surface as int, int64 or float64 depending on the decoder path taken to
// reach this bag, so all three are accepted.
func (p Params) GetInt(action, name string) (int, error) {
	v, ok := p[name]
	if !ok {
		return 0, &MissingParamError{Action: action, Field: name}
	}
	n, ok := toInt(v)
	if !ok {
		return 0, &MissingParamError{Action: action, Field: name}
	}
	return n, nil
}

// GetIntDefault returns the integer param name, or def if absent or not a number.
func (p Params) GetIntDefault(name string, def int) int {
	v, ok := p[name]
	if !ok {
		return def
	}
	n, ok := toInt(v)
	if !ok {
		return def
	}
	return n
}

// GetIntPtr returns a pointer to the integer param name, or nil if absent.
// Used for InitConfig knobs where "absent" and "zero" are distinct.
func (p Params) GetIntPtr(name string) *int {
	v, ok := p[name]
	if !ok {
		return nil
	}
	n, ok := toInt(v)
	if !ok {
		return nil
	}
	return &n
}

// GetBoolPtr returns a pointer to the bool param name, or nil if absent.
func (p Params) GetBoolPtr(name string) *bool {
	v, ok := p[name]
	if !ok {
		return nil
	}
	b, ok := v.(bool)
	if !ok {
		return nil
	}
	return &b
}

// GetBoolDefault returns the bool param name, or def if absent.
func (p Params) GetBoolDefault(name string, def bool) bool {
	v, ok := p[name]
	if !ok {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		return def
	}
	return b
}

// Has reports whether name is present in the bag at all.
func (p Params) Has(name string) bool {
	_, ok := p[name]
	return ok
}

// GetMap returns the named field as a nested Params bag, or nil if absent
// or not a map.
func (p Params) GetMap(name string) Params {
	v, ok := p[name]
	if !ok {
		return nil
	}
	switch m := v.(type) {
	case Params:
		return m
	case map[string]any:
		return Params(m)
	default:
		return nil
	}
}

// GetSlice returns the named field as a []any, or nil if absent or not a slice.
func (p Params) GetSlice(name string) []any {
	v, ok := p[name]
	if !ok {
		return nil
	}
	s, ok := v.([]any)
	if !ok {
		return nil
	}
	return s
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

// String renders p for diagnostics, e.g. inside an assertion failure message.
func (p Params) String() string {
	return fmt.Sprintf("%v", map[string]any(p))
}
