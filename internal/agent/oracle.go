// Package agent turns a graded outcome into a pedagogical hint: it builds
// the escalating-disclosure prompt, calls the language-model oracle, and
// derives the minimal source patch on the final disclosure level.
package agent

import "context"

// Oracle is the text-in/text-out language-model capability. Implementations
// are expected to degrade into a readable sentinel string rather than fail
// the request when the backend is unavailable.
type Oracle interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
