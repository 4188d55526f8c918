package experiment

import (
	"fmt"
	"path"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/torosent/chaosfire/chaos"
)

// Keys set on every request's Values.
const (
	KeyInvocationID = "invocation_id"
	KeyMethod       = "method"
	KeyURL          = "url"
	KeyHost         = "host"
	KeyPath         = "path"
	KeyBody         = "body"
)

// condition is the compiled form of an injection's when / when_body.
type condition struct {
	when     map[string]string
	bodyPath string
}

func newCondition(when map[string]string, whenBody string) (condition, error) {
	for key, pattern := range when {
		if _, err := path.Match(pattern, ""); err != nil {
			return condition{}, fmt.Errorf("when %q: %w", key, err)
		}
	}
	return condition{when: when, bodyPath: normalizeJSONPath(whenBody)}, nil
}

func (c condition) empty() bool {
	return len(c.when) == 0 && c.bodyPath == ""
}

// match reports whether every when pattern matches its value and, if set, the
// body path exists in the request body.
func (c condition) match(vals chaos.Values) bool {
	for key, pattern := range c.when {
		ok, err := path.Match(pattern, vals.String(key))
		if err != nil || !ok {
			return false
		}
	}
	if c.bodyPath == "" {
		return true
	}
	raw, _ := vals.Lookup(KeyBody)
	body, _ := raw.([]byte)
	if len(body) == 0 {
		return false
	}
	return gjson.GetBytes(body, c.bodyPath).Exists()
}

// normalizeJSONPath accepts both "$.field" and "field" syntax.
func normalizeJSONPath(p string) string {
	p = strings.TrimSpace(p)
	if strings.HasPrefix(p, "$.") {
		return p[2:]
	}
	if p == "$" {
		return "@this"
	}
	return p
}
