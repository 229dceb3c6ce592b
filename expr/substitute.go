package expr

import (
	"fmt"
	"strings"

	"github.com/pavilion-hpc/pavilion/errkind"
	"github.com/pavilion-hpc/pavilion/vartable"
)

// Substitute renders a template string containing {{ expr }} substitutions
// and [~ ... ~sep] iterations against t (spec §4.1). It is the top-level
// entry point the test resolver and build-script composer call once a
// variable table is fully resolved.
//
// Escapes: "\{{" renders a literal "{{", "\[~" a literal "[~", "\~" a
// literal "~", and "\\" a literal "\". Any other backslash sequence is a
// Configuration-kind error rather than passed through, so a typo does not
// silently survive into generated output.
func Substitute(s string, t *vartable.Table) (string, error) {
	var out strings.Builder
	i := 0
	for i < len(s) {
		switch {
		case strings.HasPrefix(s[i:], `\{{`):
			out.WriteString("{{")
			i += 3
		case strings.HasPrefix(s[i:], `\[~`):
			out.WriteString("[~")
			i += 3
		case strings.HasPrefix(s[i:], `\~`):
			out.WriteString("~")
			i += 2
		case strings.HasPrefix(s[i:], `\\`):
			out.WriteString(`\`)
			i += 2
		case s[i] == '\\':
			end := i + 2
			if end > len(s) {
				end = len(s)
			}
			return "", errkind.New(errkind.Configuration, "unrecognized escape sequence %q", s[i:end])
		case strings.HasPrefix(s[i:], "{{"):
			end, ok := findClose(s, i+2, "}}")
			if !ok {
				return "", errkind.New(errkind.Configuration, "unterminated '{{' expression")
			}
			rendered, err := renderExpression(s[i+2:end], t)
			if err != nil {
				return "", err
			}
			out.WriteString(rendered)
			i = end + 2
		case strings.HasPrefix(s[i:], "[~"):
			end, sepStart, ok := findIterationClose(s, i+2)
			if !ok {
				return "", errkind.New(errkind.Configuration, "unterminated '[~' iteration")
			}
			body := s[i+2 : sepStart]
			sep := s[sepStart+1 : end]
			if strings.Contains(body, "[~") {
				return "", errkind.New(errkind.Configuration, "nested iterations are not supported")
			}
			rendered, err := renderIteration(body, sep, t)
			if err != nil {
				return "", err
			}
			out.WriteString(rendered)
			i = end + 1
		default:
			out.WriteByte(s[i])
			i++
		}
	}
	return out.String(), nil
}

func findClose(s string, from int, marker string) (int, bool) {
	idx := strings.Index(s[from:], marker)
	if idx < 0 {
		return 0, false
	}
	return from + idx, true
}

// findIterationClose locates the "~...]" closing an iteration opened at
// from (just past "[~"). It returns the index of the final ']' and the
// index of the '~' that starts the separator section.
func findIterationClose(s string, from int) (closeIdx int, sepStart int, ok bool) {
	bracket := strings.Index(s[from:], "]")
	if bracket < 0 {
		return 0, 0, false
	}
	closeIdx = from + bracket
	tilde := strings.LastIndex(s[from:closeIdx], "~")
	if tilde < 0 {
		return 0, 0, false
	}
	return closeIdx, from + tilde, true
}

// renderExpression evaluates the body of a single {{ }} substitution,
// splitting off an optional ": <format spec>" suffix and applying it with
// fmt.Sprintf when present.
func renderExpression(body string, t *vartable.Table) (string, error) {
	exprSrc, formatSpec, hasFormat := splitFormatSpec(body)
	if !hasFormat {
		return Eval(exprSrc, t)
	}
	v, err := EvalValue(exprSrc, t)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(formatSpec, v), nil
}

// splitFormatSpec splits "expr : fmt" on the first top-level colon (one not
// nested inside a quoted string), matching spec §4.1's "{{ expr : fmt }}"
// form.
func splitFormatSpec(body string) (exprSrc, formatSpec string, ok bool) {
	inQuote := rune(0)
	for i, r := range body {
		switch {
		case inQuote != 0:
			if r == inQuote {
				inQuote = 0
			}
		case r == '"' || r == '\'':
			inQuote = r
		case r == ':':
			return strings.TrimSpace(body[:i]), strings.TrimSpace(body[i+1:]), true
		}
	}
	return strings.TrimSpace(body), "", false
}

// renderIteration expands a "[~ body ~sep]" block: every bare reference in
// body to a multi-valued (list) variable is discovered, the Cartesian
// product of their indices is computed, and body is rendered once per
// combination with each of those variables pinned to one element, joined by
// sep (spec §4.1).
func renderIteration(body, sep string, t *vartable.Table) (string, error) {
	names, err := listVariableNames(body, t)
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		// No multi-valued variable referenced: render once, as-is.
		return Substitute(body, t)
	}

	lengths := make([]int, len(names))
	for i, n := range names {
		v, _, _ := t.Lookup(n)
		lengths[i] = v.Len()
	}

	var parts []string
	combo := make([]int, len(names))
	for {
		scoped := t
		for i, n := range names {
			next, err := scoped.WithScalar(n, combo[i])
			if err != nil {
				return "", err
			}
			scoped = next
		}
		rendered, err := Substitute(body, scoped)
		if err != nil {
			return "", err
		}
		parts = append(parts, rendered)

		// odometer increment
		pos := len(combo) - 1
		for pos >= 0 {
			combo[pos]++
			if combo[pos] < lengths[pos] {
				break
			}
			combo[pos] = 0
			pos--
		}
		if pos < 0 {
			break
		}
	}
	return strings.Join(parts, sep), nil
}

// listVariableNames scans body for {{ }} expressions, parses each, and
// collects the distinct bare (unindexed) variable names that resolve to a
// multi-valued variable in t.
func listVariableNames(body string, t *vartable.Table) ([]string, error) {
	seen := map[string]bool{}
	var names []string
	i := 0
	for i < len(body) {
		idx := strings.Index(body[i:], "{{")
		if idx < 0 {
			break
		}
		start := i + idx + 2
		end, ok := findClose(body, start, "}}")
		if !ok {
			break
		}
		exprSrc, _, _ := splitFormatSpec(body[start:end])
		n, err := parseExpr(exprSrc)
		if err == nil {
			for _, refText := range collectRefs(n) {
				ref, err := vartable.ParseReference(refText)
				if err != nil {
					continue
				}
				if len(ref.Rest) != 0 {
					continue // already indexed/subkeyed, not a bare reference
				}
				v, _, ok := t.Lookup(ref.Name)
				if ok && v.IsMultiValued() && !seen[ref.Name] {
					seen[ref.Name] = true
					names = append(names, ref.Name)
				}
			}
		}
		i = end + 2
	}
	return names, nil
}

func collectRefs(n node) []string {
	switch e := n.(type) {
	case refNode:
		return []string{e.text}
	case unaryNode:
		return collectRefs(e.expr)
	case binaryNode:
		return append(collectRefs(e.left), collectRefs(e.right)...)
	case callNode:
		var out []string
		for _, a := range e.args {
			out = append(out, collectRefs(a)...)
		}
		return out
	}
	return nil
}
