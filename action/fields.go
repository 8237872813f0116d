package action

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/jonwraymond/hyperentity/hypermedia"
)

// Pair is one name/value entry. Repeated names are kept in order.
type Pair struct {
	Name  string
	Value any
}

// Values is an ordered multiset of fields.
type Values []Pair

// Add appends a pair.
func (v *Values) Add(name string, value any) {
	*v = append(*v, Pair{Name: name, Value: value})
}

// Set replaces every pair named name with a single pair at the position of
// the first one, or appends it.
func (v *Values) Set(name string, value any) {
	out := (*v)[:0:0]
	placed := false
	for _, p := range *v {
		if p.Name != name {
			out = append(out, p)
			continue
		}
		if !placed {
			out = append(out, Pair{Name: name, Value: value})
			placed = true
		}
	}
	if !placed {
		out = append(out, Pair{Name: name, Value: value})
	}
	*v = out
}

// Get returns the first value for name.
func (v Values) Get(name string) (any, bool) {
	for _, p := range v {
		if p.Name == name {
			return p.Value, true
		}
	}
	return nil, false
}

// Encode renders the pairs as an application/x-www-form-urlencoded string,
// preserving order.
func (v Values) Encode() string {
	var b strings.Builder
	for i, p := range v {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(format(p.Value)))
	}
	return b.String()
}

// Object collapses the pairs into a JSON object; the last value per name wins.
func (v Values) Object() map[string]any {
	obj := make(map[string]any, len(v))
	for _, p := range v {
		obj[p.Name] = p.Value
	}
	return obj
}

// Fields returns the values an action sends. Fields without a value are
// omitted. For GET and HEAD the query already present on the action href
// comes first.
func Fields(act *hypermedia.Action) (Values, error) {
	if act == nil {
		return nil, ErrNoAction
	}
	var vals Values
	if queryMethod(method(act)) {
		seed, err := parseQuery(act.Href)
		if err != nil {
			return nil, err
		}
		vals = seed
	}
	for _, f := range act.Fields {
		if f == nil || f.Value == nil {
			continue
		}
		vals.Add(f.Name, f.Value)
	}
	return vals, nil
}

// parseQuery reads the href's query in order; url.Values would lose it.
func parseQuery(href string) (Values, error) {
	u, err := url.Parse(href)
	if err != nil {
		return nil, fmt.Errorf("action: parse href %q: %w", href, err)
	}
	var vals Values
	for _, part := range strings.Split(u.RawQuery, "&") {
		if part == "" {
			continue
		}
		name, value, _ := strings.Cut(part, "=")
		n, err := url.QueryUnescape(name)
		if err != nil {
			return nil, fmt.Errorf("action: parse query of %q: %w", href, err)
		}
		v, err := url.QueryUnescape(value)
		if err != nil {
			return nil, fmt.Errorf("action: parse query of %q: %w", href, err)
		}
		vals.Add(n, v)
	}
	return vals, nil
}

func format(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

func method(act *hypermedia.Action) string {
	if act.Method == "" {
		return hypermedia.DefaultActionMethod
	}
	return strings.ToUpper(act.Method)
}

func contentType(act *hypermedia.Action) string {
	if act.Type == "" {
		return hypermedia.DefaultActionType
	}
	return act.Type
}

func queryMethod(m string) bool {
	return m == "GET" || m == "HEAD"
}
