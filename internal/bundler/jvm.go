package bundler

import (
	"regexp"
	"strings"
)

var (
	jvmPackage = regexp.MustCompile(`(?m)^[ \t]*package\s+([\w.]+)\s*;[ \t]*\r?\n?`)
	jvmImport  = regexp.MustCompile(`(?m)^[ \t]*import\s+(?:static\s+)?[\w.]+(?:\.\*)?\s*;[ \t]*\r?\n?`)
)

// jvm puts every class under the entry file's package with one merged
// import block. Duplicate top-level class names are not handled.
type jvm struct{}

func (jvm) Bundle(files map[string]string, entry string) string {
	names := orderedSources(files, entry, ".java")

	var imports []string
	seen := map[string]bool{}
	for _, name := range names {
		for _, stmt := range jvmImport.FindAllString(files[name], -1) {
			stmt = strings.TrimSpace(stmt)
			if !seen[stmt] {
				seen[stmt] = true
				imports = append(imports, stmt)
			}
		}
	}

	var out strings.Builder
	if m := jvmPackage.FindStringSubmatch(files[entry]); m != nil {
		out.WriteString("package " + m[1] + ";\n\n")
	}
	if len(imports) > 0 {
		out.WriteString(strings.Join(imports, "\n"))
		out.WriteString("\n")
	}

	for _, name := range names {
		body := jvmPackage.ReplaceAllString(files[name], "")
		body = jvmImport.ReplaceAllString(body, "")

		out.WriteString("\n")
		out.WriteString(fileHeader("//", name))
		out.WriteString(strings.TrimSpace(body))
		out.WriteString("\n")
	}

	return out.String()
}

// orderedSources returns the entry followed by the remaining files with
// one of the given extensions, in sorted order.
func orderedSources(files map[string]string, entry string, exts ...string) []string {
	names := []string{entry}
	for _, name := range sortedNames(files) {
		if name != entry && hasExt(name, exts...) {
			names = append(names, name)
		}
	}
	return names
}

func hasExt(name string, exts ...string) bool {
	lower := strings.ToLower(name)
	for _, ext := range exts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
