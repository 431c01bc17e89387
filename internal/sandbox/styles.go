package sandbox

import "strings"

// declaration is one inline style property
type declaration struct {
	name  string
	value string
}

// parseStyle splits an inline style attribute into ordered declarations.
// Malformed segments are dropped the way browsers drop them.
func parseStyle(style string) []declaration {
	var decls []declaration
	for _, segment := range strings.Split(style, ";") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		name, value, found := strings.Cut(segment, ":")
		if !found {
			continue
		}
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)
		if name == "" || value == "" {
			continue
		}
		decls = append(decls, declaration{name: name, value: value})
	}
	return decls
}

// renderStyle serializes declarations back into attribute form
func renderStyle(decls []declaration) string {
	if len(decls) == 0 {
		return ""
	}
	parts := make([]string, 0, len(decls))
	for _, d := range decls {
		parts = append(parts, d.name+": "+d.value)
	}
	return strings.Join(parts, "; ")
}

// setProperty updates one declaration, preserving the order of the rest.
// An empty value removes the declaration, matching setProperty semantics
// in the style API.
func setProperty(decls []declaration, name, value string) []declaration {
	name = strings.TrimSpace(name)

	if value == "" {
		out := decls[:0]
		for _, d := range decls {
			if !strings.EqualFold(d.name, name) {
				out = append(out, d)
			}
		}
		return out
	}

	for i, d := range decls {
		if strings.EqualFold(d.name, name) {
			decls[i].value = value
			return decls
		}
	}
	return append(decls, declaration{name: name, value: value})
}
