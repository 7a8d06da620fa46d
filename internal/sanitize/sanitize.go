// Package sanitize guards user-supplied plain text. Book and user fields
// are stored exactly as typed; input carrying markup (tags, or entity-encoded
// tags) is rejected instead of being rewritten.
package sanitize

import (
	"errors"
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// ErrMarkup is returned by Text when the input contains markup.
var ErrMarkup = errors.New("text must not contain markup")

var (
	policy     *bluemonday.Policy
	policyOnce sync.Once
)

func getPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.StrictPolicy()
	})
	return policy
}

// Text trims surrounding whitespace and returns the input unchanged if
// bluemonday's strict policy would leave it as-is. The policy escapes text
// on output, so its result is unescaped before comparing; any difference
// means the policy dropped or decoded something and the input is refused.
func Text(input string) (string, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", nil
	}
	if html.UnescapeString(getPolicy().Sanitize(s)) != s {
		return "", ErrMarkup
	}
	return s, nil
}
