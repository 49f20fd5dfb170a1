package builder

import (
	"github.com/satishbabariya/prisma-engine-go/runtime/types"
)

// aliases maps argument keys accepted from callers onto engine keys.
var aliases = map[string]string{
	"startswith":        "startsWith",
	"endswith":          "endsWith",
	"has_every":         "hasEvery",
	"has_some":          "hasSome",
	"is_empty":          "isEmpty",
	"order_by":          "orderBy",
	"not_in":            "notIn",
	"is_not":            "isNot",
	"connect_or_create": "connectOrCreate",
}

// Alias returns the engine key for key.
func Alias(key string) string {
	if alias, ok := aliases[key]; ok {
		return alias
	}
	return key
}

// TransformAliases rewrites every mapping key in the tree rooted at v,
// descending through nested mappings and sequences. Sequences of any type
// are normalized to []any and Unset entries are removed. Wire values are
// left untouched so that Json wrappers keep their inner keys.
func TransformAliases(v any) any {
	if _, ok := v.(types.WireValue); ok {
		return v
	}
	if m, ok := types.AsMap(v); ok {
		out := make(types.Map, 0, len(m))
		for _, p := range m {
			if types.IsUnset(p.Value) {
				continue
			}
			out.Set(Alias(p.Key), TransformAliases(p.Value))
		}
		return out
	}
	if l, ok := types.AsList(v); ok {
		out := make([]any, 0, len(l))
		for _, item := range l {
			if types.IsUnset(item) {
				continue
			}
			out = append(out, TransformAliases(item))
		}
		return out
	}
	return v
}

// transformArguments applies TransformAliases to the top level arguments.
func transformArguments(args types.Map) types.Map {
	if args == nil {
		return types.Map{}
	}
	return TransformAliases(args).(types.Map)
}
