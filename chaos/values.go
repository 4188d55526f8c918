package chaos

// Values carries caller-supplied data through one invocation so that
// providers can read it (for example "should this request fail"). The
// caller owns it; strategies only read it.
type Values map[string]any

// NewValues returns Values holding the given key/value pairs. Odd trailing
// keys are ignored, non-string keys are skipped.
func NewValues(kv ...any) Values {
	v := make(Values, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		v[key] = kv[i+1]
	}
	return v
}

// Lookup returns the value stored under key. It is safe on nil Values.
func (v Values) Lookup(key string) (any, bool) {
	if v == nil {
		return nil, false
	}
	val, ok := v[key]
	return val, ok
}

// String returns the value under key when it is a string.
func (v Values) String(key string) string {
	val, _ := v.Lookup(key)
	s, _ := val.(string)
	return s
}

// Bool returns the value under key when it is a bool.
func (v Values) Bool(key string) bool {
	val, _ := v.Lookup(key)
	b, _ := val.(bool)
	return b
}
