package builder

import (
	"strings"

	"github.com/satishbabariya/prisma-engine-go/query/selection"
	"github.com/satishbabariya/prisma-engine-go/query/serializer"
	"github.com/satishbabariya/prisma-engine-go/runtime/types"
)

const indentUnit = "  "

// indent prefixes every non blank line of s.
func indent(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			lines[i] = indentUnit + line
		}
	}
	return strings.Join(lines, "\n")
}

// block renders enter, the indented children and depart on separate lines.
func block(enter string, children []string, depart string) string {
	parts := make([]string, 0, len(children)+2)
	parts = append(parts, enter)
	for _, c := range children {
		if c != "" {
			parts = append(parts, indent(c))
		}
	}
	parts = append(parts, depart)
	return strings.Join(parts, "\n")
}

// renderRoot renders
//
//	query {
//	  result: findUniqueUser
//	  (
//	    where: {
//	      id: "1"
//	    }
//	  )
//	  {
//	    id
//	  }
//	}
func renderRoot(p *Prepared) (string, error) {
	result := []string{"result: " + p.WireName()}

	args, err := renderArguments(p.Arguments)
	if err != nil {
		return "", err
	}
	if args != "" {
		result = append(result, args)
	}

	sel, err := renderSelection(p.Selection)
	if err != nil {
		return "", err
	}
	if sel != "" {
		result = append(result, sel)
	}

	return block(string(p.Method.Operation())+" {", []string{strings.Join(result, "\n")}, "}"), nil
}

// renderArguments renders ( key: value ... ) or "" when there are none.
func renderArguments(args types.Map) (string, error) {
	children := make([]string, 0, len(args))
	for _, arg := range args {
		if arg.Value == nil {
			continue
		}
		child, err := renderKey(arg.Key, arg.Value)
		if err != nil {
			return "", err
		}
		children = append(children, child)
	}
	if len(children) == 0 {
		return "", nil
	}
	return block("(", children, ")"), nil
}

func renderKey(key string, v any) (string, error) {
	value, err := renderValue(v)
	if err != nil {
		return "", err
	}
	return key + ": " + value, nil
}

// renderValue renders mappings as { } blocks, sequences as [ ] blocks and
// everything else as a JSON literal of its serialized form.
func renderValue(v any) (string, error) {
	if _, ok := v.(types.WireValue); !ok {
		if m, ok := types.AsMap(v); ok {
			return renderData(m)
		}
		if l, ok := types.AsList(v); ok {
			return renderList(l)
		}
	}
	enc, err := serializer.Encode(v, serializer.GraphQL)
	if err != nil {
		return "", err
	}
	lit, err := serializer.MarshalJSON(enc)
	if err != nil {
		return "", err
	}
	return string(lit), nil
}

func renderData(m types.Map) (string, error) {
	children := make([]string, 0, len(m))
	for _, p := range m {
		if types.IsUnset(p.Value) {
			continue
		}
		child, err := renderKey(p.Key, p.Value)
		if err != nil {
			return "", err
		}
		children = append(children, child)
	}
	return block("{", children, "}"), nil
}

func renderList(l []any) (string, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	items := make([]string, len(l))
	for i, item := range l {
		s, err := renderValue(item)
		if err != nil {
			return "", err
		}
		items[i] = s
	}
	return "[\n" + indent(strings.Join(items, ",\n")) + "\n]", nil
}

// renderSelection renders { fields relations } or "" when empty.
func renderSelection(sel *selection.Selection) (string, error) {
	if sel.IsEmpty() {
		return "", nil
	}
	children := renderFields(sel.Fields)

	for _, rel := range sel.Relations {
		sub, err := renderSelection(rel.Selection)
		if err != nil {
			return "", err
		}
		if len(rel.Arguments) == 0 {
			children = append(children, strings.TrimSpace(rel.Name+" "+sub))
			continue
		}
		args, err := renderArguments(rel.Arguments)
		if err != nil {
			return "", err
		}
		children = append(children, rel.Name+args)
		if sub != "" {
			children = append(children, sub)
		}
	}
	return block("{", children, "}"), nil
}

func renderFields(fields []selection.Field) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f.Children) == 0 {
			out = append(out, f.Name)
			continue
		}
		out = append(out, f.Name+" "+block("{", renderFields(f.Children), "}"))
	}
	return out
}
