package bundler

import (
	"regexp"
	"strings"
)

var pyFromImport = regexp.MustCompile(`(?m)^[ \t]*from[ \t]+(\.?)(\w+)[ \t]+import[ \t]+[^\n]*\n?`)

// python concatenates sibling modules ahead of the files that import
// them and drops the import lines. Names resolve late at run time, so
// no symbol substitution is needed.
type python struct{}

func (python) Bundle(files map[string]string, entry string) string {
	var out strings.Builder
	visited := map[string]bool{}

	var process func(name string)
	process = func(name string) {
		if visited[name] {
			return
		}
		visited[name] = true

		content, ok := files[name]
		if !ok {
			return
		}

		for _, m := range pyFromImport.FindAllStringSubmatch(content, -1) {
			if module := m[2] + ".py"; hasFile(files, module) {
				process(module)
			}
		}

		content = pyFromImport.ReplaceAllStringFunc(content, func(stmt string) string {
			m := pyFromImport.FindStringSubmatch(stmt)
			if m[1] == "." || hasFile(files, m[2]+".py") {
				return ""
			}
			return stmt
		})

		out.WriteString("\n")
		out.WriteString(fileHeader("#", name))
		out.WriteString(content)
		out.WriteString("\n")
	}

	process(entry)
	return out.String()
}

func hasFile(files map[string]string, name string) bool {
	_, ok := files[name]
	return ok
}
