package graph

import (
	"fmt"
	"net/url"
	"strings"
)

// Query is the set of filters accepted by the graph rendering endpoint.
// List values keep the order the caller gave them.
type Query struct {
	Tasks      []string
	Skip       []string
	Start      string
	End        string
	ParentsFor string
	Remove     []string
}

// Values returns the query parameters. Lists are comma joined, unset scalars
// and empty lists are left out.
func (q Query) Values() url.Values {
	v := url.Values{}
	setList := func(key string, items []string) {
		if len(items) > 0 {
			v.Set(key, strings.Join(items, ","))
		}
	}
	setScalar := func(key, val string) {
		if val != "" {
			v.Set(key, val)
		}
	}
	setList("tasks", q.Tasks)
	setList("skip", q.Skip)
	setScalar("start", q.Start)
	setScalar("end", q.End)
	setScalar("parents_for", q.ParentsFor)
	setList("remove", q.Remove)
	return v
}

// Encode returns the URL encoded query string, parameters sorted by name.
func (q Query) Encode() string {
	return q.Values().Encode()
}

// Echo renders the parameters as "# - name: value" lines in the order
// start, end, skip, tasks, parents-for, remove. Tools scrape this block out
// of saved graphs, so the layout must not change.
func (q Query) Echo() string {
	lines := []string{
		echoLine("start", scalarRepr(q.Start)),
		echoLine("end", scalarRepr(q.End)),
		echoLine("skip", listRepr(q.Skip)),
		echoLine("tasks", listRepr(q.Tasks)),
		echoLine("parents-for", scalarRepr(q.ParentsFor)),
		echoLine("remove", listRepr(q.Remove)),
	}
	return strings.Join(lines, "\n")
}

func echoLine(name, value string) string {
	return fmt.Sprintf("# - %s: %s", name, value)
}

func scalarRepr(v string) string {
	if v == "" {
		return "None"
	}
	return v
}

func listRepr(items []string) string {
	quoted := make([]string, 0, len(items))
	for _, item := range items {
		quoted = append(quoted, quote(item))
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// quote wraps s in single quotes, or in double quotes when s holds a single
// quote and no double quote. Backslashes and the chosen quote are escaped.
func quote(s string) string {
	q := byte('\'')
	if strings.IndexByte(s, '\'') >= 0 && strings.IndexByte(s, '"') < 0 {
		q = '"'
	}
	var b strings.Builder
	b.WriteByte(q)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '\\' || c == q:
			b.WriteByte('\\')
			b.WriteByte(c)
		case c == '\n':
			b.WriteString(`\n`)
		case c == '\t':
			b.WriteString(`\t`)
		case c == '\r':
			b.WriteString(`\r`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte(q)
	return b.String()
}
