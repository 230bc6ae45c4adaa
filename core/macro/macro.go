// Package macro substitutes $(NAME) and ${NAME} references in command lines.
//
// Definitions live in a stack of scopes, the innermost definition wins and
// names that aren't defined in any scope fall back to a lookup function,
// normally the process environment.
package macro

import (
	"errors"
	"fmt"
	"strings"
)

const maxDepth = 100

var (
	// ErrUndefined is returned (wrapped) when a reference has no value and
	// no default.
	ErrUndefined = errors.New("undefined macro")
	// ErrUnterminated is returned when a reference is missing its closing
	// bracket.
	ErrUnterminated = errors.New("unterminated macro reference")
	// ErrRecursive is returned when expansion nests too deeply, usually
	// because a macro refers to itself.
	ErrRecursive = errors.New("recursive macro definition")
)

// LookupFunc resolves names that aren't defined in any scope.
type LookupFunc func(name string) (string, bool)

// Handle holds a stack of macro definition scopes.
type Handle struct {
	scopes   []map[string]*string
	fallback LookupFunc
}

// New creates a handle with a single empty scope. fallback may be nil.
func New(fallback LookupFunc) *Handle {
	return &Handle{
		scopes:   []map[string]*string{{}},
		fallback: fallback,
	}
}

// PushScope starts a new innermost scope.
func (h *Handle) PushScope() {
	h.scopes = append(h.scopes, map[string]*string{})
}

// PopScope discards the innermost scope and its definitions. The outermost
// scope is never removed.
func (h *Handle) PopScope() {
	if len(h.scopes) > 1 {
		h.scopes = h.scopes[:len(h.scopes)-1]
	}
}

// Depth returns the number of scopes.
func (h *Handle) Depth() int {
	return len(h.scopes)
}

// Put defines name in the innermost scope.
func (h *Handle) Put(name, value string) {
	h.scopes[len(h.scopes)-1][name] = &value
}

// Install defines every definition in the innermost scope.
func (h *Handle) Install(defs []Definition) {
	for _, d := range defs {
		h.Put(d.Name, d.Value)
	}
}

// Clear removes name from every scope so lookups fall through to the
// fallback again.
func (h *Handle) Clear(name string) {
	for _, scope := range h.scopes {
		delete(scope, name)
	}
}

// Lookup resolves the raw (unexpanded) value of a name.
func (h *Handle) Lookup(name string) (string, bool) {
	for i := len(h.scopes) - 1; i >= 0; i-- {
		if v, ok := h.scopes[i][name]; ok && v != nil {
			return *v, true
		}
	}

	if h.fallback != nil {
		return h.fallback(name)
	}
	return "", false
}

// UndefinedError lists the references that couldn't be expanded.
type UndefinedError struct {
	Names []string
	Input string
}

func (e *UndefinedError) Error() string {
	return fmt.Sprintf("macro %s is undefined (expanding string %s)", strings.Join(e.Names, ", "), e.Input)
}

func (e *UndefinedError) Unwrap() error {
	return ErrUndefined
}

// Expand substitutes every reference in raw. Text inside single quotes and
// references preceded by a backslash are copied unchanged. If some
// references are undefined, the partially expanded string is returned
// alongside an *UndefinedError and each undefined reference is replaced by
// $(NAME,undefined).
func (h *Handle) Expand(raw string) (string, error) {
	var undefined []string
	out, err := h.expand(raw, 0, true, &undefined)
	if err != nil {
		return "", err
	}
	if len(undefined) > 0 {
		return out, &UndefinedError{Names: undefined, Input: raw}
	}
	return out, nil
}

func (h *Handle) expand(in string, depth int, quoting bool, undefined *[]string) (string, error) {
	if depth > maxDepth {
		return "", ErrRecursive
	}

	var sb strings.Builder
	var quote byte

	for i := 0; i < len(in); i++ {
		c := in[i]

		switch {
		case quoting && quote == 0 && c == '\\' && i+1 < len(in):
			sb.WriteByte(c)
			sb.WriteByte(in[i+1])
			i++
			continue

		case quoting && quote == 0 && (c == '\'' || c == '"'):
			quote = c
			sb.WriteByte(c)
			continue

		case quoting && quote != 0 && c == quote:
			quote = 0
			sb.WriteByte(c)
			continue

		case quote == '\'':
			sb.WriteByte(c)
			continue
		}

		if c != '$' || i+1 >= len(in) || (in[i+1] != '(' && in[i+1] != '{') {
			sb.WriteByte(c)
			continue
		}

		end, err := matchingBracket(in, i+1)
		if err != nil {
			return "", err
		}

		value, err := h.reference(in[i+2:end], depth, undefined)
		if err != nil {
			return "", err
		}
		sb.WriteString(value)
		i = end
	}

	return sb.String(), nil
}

// reference expands the body of a single $(...) reference.
func (h *Handle) reference(body string, depth int, undefined *[]string) (string, error) {
	name, def, hasDefault := splitDefault(body)

	name, err := h.expand(name, depth+1, false, undefined)
	if err != nil {
		return "", err
	}

	if raw, ok := h.Lookup(name); ok {
		return h.expand(raw, depth+1, false, undefined)
	}

	if hasDefault {
		return h.expand(def, depth+1, false, undefined)
	}

	*undefined = append(*undefined, name)
	return fmt.Sprintf("$(%s,undefined)", name), nil
}

// splitDefault splits NAME=default at the first top level '='.
func splitDefault(body string) (name, def string, ok bool) {
	level := 0
	for i := 0; i < len(body); i++ {
		switch body[i] {
		case '(', '{':
			level++
		case ')', '}':
			level--
		case '=':
			if level == 0 {
				return body[:i], body[i+1:], true
			}
		}
	}
	return body, "", false
}

// matchingBracket finds the index of the bracket closing the one at open.
func matchingBracket(in string, open int) (int, error) {
	level := 0
	for i := open; i < len(in); i++ {
		switch in[i] {
		case '(', '{':
			level++
		case ')', '}':
			level--
			if level == 0 {
				return i, nil
			}
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrUnterminated, in[open-1:])
}
