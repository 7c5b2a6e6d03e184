package filter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ohler55/ojg/jp"

	"github.com/getmockd/replay/pkg/har"
)

type bodyFilter struct {
	paths []string
	exprs []jp.Expr
}

// RedactBodyFields replaces the values selected by JSONPath expressions with
// RedactValue in JSON request and response bodies. Bodies that are not JSON,
// or in which no expression selects anything, are left untouched.
func RedactBodyFields(paths ...string) (Filter, error) {
	f := bodyFilter{paths: append([]string(nil), paths...)}
	for _, p := range paths {
		x, err := jp.ParseString(p)
		if err != nil {
			return nil, fmt.Errorf("invalid JSONPath %q: %w", p, err)
		}
		f.exprs = append(f.exprs, x)
	}
	return f, nil
}

func (f bodyFilter) Apply(e har.Entry) har.Entry {
	if pd := e.Request.PostData; pd != nil && pd.Encoding == "" {
		if text, ok := f.redact(pd.Text); ok {
			cp := *pd
			cp.Text = text
			e.Request.PostData = &cp
			e.Request.BodySize = int64(len(text))
		}
	}
	if c := e.Response.Content; c.Encoding == "" {
		if text, ok := f.redact(c.Text); ok {
			e.Response.Content.Text = text
			e.Response.Content.Size = int64(len(text))
			e.Response.BodySize = int64(len(text))
		}
	}
	return e
}

// redact returns the rewritten body and whether anything was replaced.
func (f bodyFilter) redact(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || (trimmed[0] != '{' && trimmed[0] != '[') {
		return text, false
	}

	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var data interface{}
	if err := dec.Decode(&data); err != nil {
		return text, false
	}

	changed := false
	for _, x := range f.exprs {
		if len(x.Get(data)) == 0 {
			continue
		}
		out, err := x.Modify(data, func(interface{}) (interface{}, bool) {
			return RedactValue, true
		})
		if err != nil {
			continue
		}
		data = out
		changed = true
	}
	if !changed {
		return text, false
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		return text, false
	}
	return strings.TrimSuffix(buf.String(), "\n"), true
}

func (f bodyFilter) String() string {
	return string(KindBody) + ":" + strings.Join(f.paths, ",")
}
