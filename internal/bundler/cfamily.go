package bundler

import (
	"path"
	"regexp"
	"strings"
)

var cLocalInclude = regexp.MustCompile(`(?m)^[ \t]*#[ \t]*include[ \t]*"([^"]+)"[^\n]*\n?`)

var (
	cHeaderExts = []string{".h", ".hpp", ".hh", ".hxx"}
	cSourceExts = []string{".c", ".cpp", ".cc", ".cxx"}
)

// cFamily emits headers first, then implementation files, dropping
// quoted includes of sibling files. System includes are kept.
type cFamily struct{}

func (cFamily) Bundle(files map[string]string, entry string) string {
	var headers, sources []string
	for _, name := range sortedNames(files) {
		switch {
		case hasExt(name, cHeaderExts...):
			headers = append(headers, name)
		case hasExt(name, cSourceExts...) && name != entry:
			sources = append(sources, name)
		}
	}
	if !hasExt(entry, cHeaderExts...) {
		sources = append(sources, entry)
	}

	var out strings.Builder
	for _, name := range append(headers, sources...) {
		body := cLocalInclude.ReplaceAllStringFunc(files[name], func(stmt string) string {
			m := cLocalInclude.FindStringSubmatch(stmt)
			if hasFile(files, path.Base(m[1])) {
				return ""
			}
			return stmt
		})

		out.WriteString("\n")
		out.WriteString(fileHeader("//", name))
		out.WriteString(body)
		out.WriteString("\n")
	}

	return out.String()
}
