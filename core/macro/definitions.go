package macro

import (
	"fmt"
	"strings"

	"github.com/anmitsu/go-shlex"
)

// Definition is a single NAME=value pair.
type Definition struct {
	Name  string
	Value string
}

func (d Definition) String() string {
	return fmt.Sprintf("%s=%s", d.Name, d.Value)
}

// ParseDefinitions parses a comma separated list of NAME=value pairs.
// Values may be quoted to include commas or whitespace, e.g.
// `P=dev:,DESC="pump, north"`.
func ParseDefinitions(defs string) ([]Definition, error) {
	var out []Definition

	pieces, err := splitDefinitions(defs)
	if err != nil {
		return nil, err
	}

	for _, piece := range pieces {
		words, err := shlex.Split(piece, true)
		if err != nil {
			return nil, fmt.Errorf("bad macro definition %q: %w", piece, err)
		}
		if len(words) == 0 {
			continue
		}

		def := strings.Join(words, " ")
		eq := strings.IndexByte(def, '=')
		if eq <= 0 {
			return nil, fmt.Errorf("bad macro definition %q: expected NAME=value", piece)
		}

		out = append(out, Definition{
			Name:  strings.TrimSpace(def[:eq]),
			Value: def[eq+1:],
		})
	}

	return out, nil
}

// splitDefinitions splits on commas that aren't quoted or escaped.
func splitDefinitions(defs string) ([]string, error) {
	var out []string
	var quote byte
	start := 0

	for i := 0; i < len(defs); i++ {
		c := defs[i]
		switch {
		case c == '\\' && quote != '\'':
			i++
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == ',':
			out = append(out, defs[start:i])
			start = i + 1
		}
	}

	if quote != 0 {
		return nil, fmt.Errorf("bad macro definitions %q: unbalanced quote", defs)
	}

	return append(out, defs[start:]), nil
}
