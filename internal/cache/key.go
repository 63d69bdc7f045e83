package cache

import (
	"fmt"
	"sort"
	"strings"
)

// MakeKey derives a cache key the way spec.md §4.1 describes: a flat tuple
// of positional args followed by kwarg items. Go maps have no insertion
// order, so MakeKey sorts the kwargs by name itself. A list argument
// ([]any) is written as a parenthesised, comma-separated group. When
// there is a single primitive argument and no kwargs, it is used unwrapped.
func MakeKey(args []any, kwargs map[string]any) string {
	if len(kwargs) == 0 && len(args) == 1 {
		return fmt.Sprint(args[0])
	}

	var b strings.Builder
	for i, a := range args {
		if i > 0 {
			b.WriteByte('\x1f')
		}
		writeArg(&b, a)
	}
	if len(kwargs) > 0 {
		b.WriteString("\x1fkwds\x1f")
		names := make([]string, 0, len(kwargs))
		for k := range kwargs {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, k := range names {
			b.WriteByte('\x1f')
			b.WriteString(k)
			b.WriteByte('=')
			writeArg(&b, kwargs[k])
		}
	}
	return b.String()
}

func writeArg(b *strings.Builder, a any) {
	if list, ok := a.([]any); ok {
		b.WriteByte('(')
		for i, v := range list {
			if i > 0 {
				b.WriteByte(',')
			}
			writeArg(b, v)
		}
		b.WriteByte(')')
		return
	}
	fmt.Fprint(b, a)
}
