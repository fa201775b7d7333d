package normalization

import (
  "strings"
)

// ParseInputString trims surrounding whitespace. Case is deliberately left
// alone: passwords go through here too.
func ParseInputString(s string) string {
  return strings.TrimSpace(s)
}

// ParseEmail lowercases on top of trimming. Emails are stored and compared
// in this normalized form.
func ParseEmail(s string) string {
  return strings.ToLower(strings.TrimSpace(s))
}

// ParseCategory trims and lowercases, falling back to "geral" when empty.
func ParseCategory(s string) string {
  c := strings.ToLower(strings.TrimSpace(s))
  if c == "" {
    return "geral"
  }
  return c
}
