// Package template renders user-authored reminder templates. Placeholders use
// {name} syntax; anything the data map cannot resolve stays in the output as
// literal text so a typo in a template never breaks a send.
package template

import (
	"fmt"
	"regexp"
)

var placeholderPattern = regexp.MustCompile(`\{([a-zA-Z0-9_]+)\}`)

// Render substitutes every {name} occurrence with the stringified value from
// data. Pure and deterministic; once all placeholders are resolved the result
// is a fixed point of Render.
func Render(tpl string, data map[string]any) string {
	return placeholderPattern.ReplaceAllStringFunc(tpl, func(match string) string {
		name := match[1 : len(match)-1]
		v, ok := data[name]
		if !ok {
			return match
		}
		return fmt.Sprintf("%v", v)
	})
}
