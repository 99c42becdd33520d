// Package prompt assembles the text fed to the model for one turn.
package prompt

import "strings"

// Build concatenates base, a newline, the memory descriptions joined by
// newlines, a newline, every history entry oldest first, and newInput.
// History entries are expected to carry their own trailing newline. No
// length budget is applied here.
func Build(base string, memories []string, history []string, newInput string) string {
	var b strings.Builder
	n := len(base) + len(newInput) + 2
	for _, m := range memories {
		n += len(m) + 1
	}
	for _, h := range history {
		n += len(h)
	}
	b.Grow(n)

	b.WriteString(base)
	b.WriteByte('\n')
	b.WriteString(strings.Join(memories, "\n"))
	b.WriteByte('\n')
	for _, h := range history {
		b.WriteString(h)
	}
	b.WriteString(newInput)
	return b.String()
}
