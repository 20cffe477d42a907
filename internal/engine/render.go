package engine

import (
	"fmt"
	"regexp"
)

// placeholderPattern matches {name} tokens in storylet text templates. The
// token syntax comes from the stored content, so the renderer keeps it
// instead of imposing a different template language.
var placeholderPattern = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// Render substitutes {name} tokens with snapshot values. Unknown tokens stay
// as written so a missing variable is visible in the output instead of
// silently vanishing.
func Render(template string, vars map[string]any) string {
	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		name := match[1 : len(match)-1]
		value, ok := vars[name]
		if !ok {
			return match
		}
		return fmt.Sprint(value)
	})
}
