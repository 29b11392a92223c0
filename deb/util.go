package deb

import (
	"strconv"
	"strings"
)

// splitList splits a comma-separated control field into a slice of
// strings, trimming whitespace from each element. It returns nil for an
// empty input.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	var res []string
	for _, p := range parts {
		res = append(res, strings.TrimSpace(p))
	}
	return res
}

// parseControlFile parses an RFC822-style control stanza into m, handling
// folded (continuation) lines the way dpkg does: any line starting with a
// space or tab extends the previous field's value.
func parseControlFile(content string, m *Metadata) error {
	var currentKey string
	var currentValue strings.Builder

	flush := func() {
		if currentKey == "" {
			return
		}
		val := strings.TrimSpace(currentValue.String())
		switch ControlField(currentKey) {
		case FieldPackage:
			m.Package = val
		case FieldVersion:
			m.Version = val
		case FieldArchitecture:
			m.Architecture = val
		case FieldMaintainer:
			m.Maintainer = val
		case FieldDescription:
			m.Description = val
		case FieldSection:
			m.Section = val
		case FieldPriority:
			m.Priority = val
		case FieldHomepage:
			m.Homepage = val
		case FieldEssential:
			m.Essential = val == "yes"
		case FieldDepends:
			m.Depends = splitList(val)
		case FieldPreDepends:
			m.PreDepends = splitList(val)
		case FieldRecommends:
			m.Recommends = splitList(val)
		case FieldSuggests:
			m.Suggests = splitList(val)
		case FieldEnhances:
			m.Enhances = splitList(val)
		case FieldConflicts:
			m.Conflicts = splitList(val)
		case FieldBreaks:
			m.Breaks = splitList(val)
		case FieldReplaces:
			m.Replaces = splitList(val)
		case FieldProvides:
			m.Provides = splitList(val)
		case FieldBuiltUsing:
			m.BuiltUsing = val
		case FieldSource:
			m.Source = val
		case FieldInstalledSize:
			// recomputed at generation time, never trusted from input.
		default:
			if m.ExtraFields == nil {
				m.ExtraFields = make(map[string]string)
			}
			m.ExtraFields[currentKey] = val
		}
	}

	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t") {
			currentValue.WriteString("\n" + line)
		} else if strings.Contains(line, ":") {
			flush()
			parts := strings.SplitN(line, ":", 2)
			currentKey = parts[0]
			currentValue.Reset()
			currentValue.WriteString(strings.TrimSpace(parts[1]))
		}
	}
	flush()
	return nil
}

// BumpVersion increments the Debian revision of a version string:
// appends "-1" when there is no revision, increments a purely numeric
// revision, or bumps the last lowercase-alphanumeric character of a
// non-numeric one ('9' becomes 'a'; a 'z' gets a fresh '0' appended after
// it). Exposed for the
// -bump-revision CLI flag, letting a rebuild of an unchanged source tree
// produce an installable successor package.
func BumpVersion(v string) string {
	idx := strings.LastIndex(v, "-")
	if idx == -1 {
		return v + "-1"
	}
	prefix := v[:idx+1]
	rev := v[idx+1:]
	if rev == "" {
		return prefix + "1"
	}

	if i, err := strconv.Atoi(rev); err == nil {
		return prefix + strconv.Itoa(i+1)
	}

	runes := []rune(rev)
	for i := len(runes) - 1; i >= 0; i-- {
		c := runes[i]
		switch {
		case c >= '0' && c < '9':
			runes[i]++
			return prefix + string(runes)
		case c == '9':
			runes[i] = 'a'
			return prefix + string(runes)
		case c >= 'a' && c < 'z':
			runes[i]++
			return prefix + string(runes)
		case c == 'z':
			return prefix + string(runes[:i+1]) + "0" + string(runes[i+1:])
		}
	}
	return v + "1"
}
