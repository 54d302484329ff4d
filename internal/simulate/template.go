package simulate

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"

	"github.com/detectlab/entrasim/internal/types"
)

// tokenPattern matches a double-brace placeholder, e.g. "{{ client_ip }}".
var tokenPattern = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_]+)\s*\}\}`)

// Template is the parsed record skeleton. The text is decoded once; rendering
// walks the tree and replaces placeholder tokens with binding values. A string
// leaf that consists of exactly one token takes the binding's typed value
// (number, bool, list), so numeric and boolean fields come out typed instead
// of stringified. Tokens embedded in longer strings splice in the stringified
// value. Matching whole tokens only means a resolved value can never collide
// with another token's literal form.
type Template struct {
	root map[string]any
}

// ParseTemplate decodes the template text. The top level must be an object.
func ParseTemplate(text []byte) (*Template, error) {
	var root any
	if err := json.Unmarshal(text, &root); err != nil {
		return nil, fmt.Errorf("template: %w", err)
	}
	obj, ok := root.(map[string]any)
	if !ok {
		return nil, errors.New("template: top level must be an object")
	}
	return &Template{root: obj}, nil
}

// Tokens returns the sorted set of placeholder names the template uses.
func (t *Template) Tokens() []string {
	seen := map[string]struct{}{}
	walkStrings(t.root, func(s string) {
		for _, m := range tokenPattern.FindAllStringSubmatch(s, -1) {
			seen[m[1]] = struct{}{}
		}
	})
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// MissingTokens lists template tokens that have no binding. A non-empty
// result means the template and resolver vocabularies have drifted apart,
// which is a programming defect, not a runtime condition.
func (t *Template) MissingTokens(b Bindings) []string {
	var missing []string
	for _, name := range t.Tokens() {
		if _, ok := b[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// Render substitutes bindings into the template and returns the record.
// Unresolved tokens survive into the output literally and are logged loudly;
// they signal a vocabulary mismatch rather than a recoverable fault.
func (t *Template) Render(b Bindings) types.Record {
	return types.Record(substituteMap(t.root, b))
}

func substituteMap(m map[string]any, b Bindings) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = substitute(v, b)
	}
	return out
}

func substitute(node any, b Bindings) any {
	switch v := node.(type) {
	case map[string]any:
		return substituteMap(v, b)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = substitute(item, b)
		}
		return out
	case string:
		return substituteString(v, b)
	default:
		return v
	}
}

func substituteString(s string, b Bindings) any {
	if m := tokenPattern.FindStringSubmatch(s); m != nil && m[0] == s {
		if val, ok := b[m[1]]; ok {
			return val
		}
		slog.Error(fmt.Sprintf("unresolved template token: %s", s))
		return s
	}
	return tokenPattern.ReplaceAllStringFunc(s, func(tok string) string {
		name := tokenPattern.FindStringSubmatch(tok)[1]
		val, ok := b[name]
		if !ok {
			slog.Error(fmt.Sprintf("unresolved template token: %s", tok))
			return tok
		}
		return stringify(val)
	})
}

func stringify(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(raw)
}

func walkStrings(node any, fn func(string)) {
	switch v := node.(type) {
	case map[string]any:
		for _, item := range v {
			walkStrings(item, fn)
		}
	case []any:
		for _, item := range v {
			walkStrings(item, fn)
		}
	case string:
		fn(v)
	}
}
