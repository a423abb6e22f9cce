package core

import (
	"fmt"
	"strings"
)

// Issue codes reported by schema validation.
const (
	CodeRequired    = "required"
	CodeInvalidType = "invalid_type"
	CodeTooSmall    = "too_small"
	CodeTooBig      = "too_big"
	CodeInvalidEnum = "invalid_enum"
	CodeCustom      = "custom"
)

// Issue is a single field-level validation failure.
type Issue struct {
	// Path is the dotted path of the offending field (e.g. "tags.2").
	Path string

	// Code is one of the codes listed above.
	Code string

	// Message is a human-readable description of the failure.
	Message string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s", i.Path, i.Message)
}

// Issues is a list of validation failures. It implements error so that
// validators can return it directly.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	lim := len(iss)
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(b, "%s at %q", iss[i].Code, iss[i].Path)
	}
	if len(iss) > lim {
		fmt.Fprintf(b, "; ... (%d total)", len(iss))
	}
	return b.String()
}

// Prefix returns a copy of the issues with every path prefixed, used when
// element-level issues bubble up to a batch operation.
func (iss Issues) Prefix(prefix string) Issues {
	out := make(Issues, len(iss))
	for i, issue := range iss {
		issue.Path = prefix + "." + issue.Path
		out[i] = issue
	}
	return out
}
