package bundler

import (
	"regexp"
	"strings"
)

var (
	esExportFunc  = regexp.MustCompile(`export\s+((?:async\s+)?function\s*\*?\s*(\w+)\s*\([^)]*\)\s*\{)`)
	esExportClass = regexp.MustCompile(`export\s+(class\s+(\w+)[^{]*\{)`)
	esExportConst = regexp.MustCompile(`export\s+((?:const|let|var)\s+(\w+)\s*=\s*[^;]+;)`)
	esImport      = regexp.MustCompile(`import\s*\{([^}]+)\}\s*from\s*['"]\./([^'"]+)['"][ \t]*;?`)
	esExportWord  = regexp.MustCompile(`\bexport\s+(?:default\s+)?`)
)

var esExtensions = []string{".js", ".mjs", ".jsx", ".ts", ".tsx"}

// ecmaScript inlines imported symbols in place of same-directory import
// statements, depth first from the entry file.
type ecmaScript struct{}

func (ecmaScript) Bundle(files map[string]string, entry string) string {
	b := &esBuild{
		files:   files,
		entry:   entry,
		exports: make(map[string]map[string]string, len(files)),
		visited: map[string]bool{entry: true},
		inlined: map[string]bool{},
	}
	for name, content := range files {
		b.exports[name] = extractExports(content)
	}

	body := esImport.ReplaceAllStringFunc(files[entry], b.inline)
	body = esExportWord.ReplaceAllString(body, "")

	return fileHeader("//", entry) + body
}

type esBuild struct {
	files   map[string]string
	entry   string
	exports map[string]map[string]string
	visited map[string]bool
	inlined map[string]bool
}

// inline returns the replacement text for one import statement.
func (b *esBuild) inline(stmt string) string {
	m := esImport.FindStringSubmatch(stmt)
	target, ok := b.resolve(m[2])
	if !ok {
		return stmt
	}

	var out strings.Builder

	// The target's own imports come first so its symbols can see them.
	if !b.visited[target] {
		b.visited[target] = true
		for _, dep := range esImport.FindAllString(b.files[target], -1) {
			out.WriteString(b.inline(dep))
		}
	}

	for _, item := range strings.Split(m[1], ",") {
		name, alias := splitAlias(item)
		if name == "" {
			continue
		}

		// The entry body is emitted whole, so its declarations are never copied
		key := target + ":" + name
		if target != b.entry && !b.inlined[key] {
			decl, ok := b.exports[target][name]
			if !ok {
				continue
			}
			b.inlined[key] = true
			out.WriteString(decl)
			out.WriteString("\n")
		}

		if alias != name {
			out.WriteString("const " + alias + " = " + name + ";\n")
		}
	}

	return out.String()
}

// resolve maps "./utils" or "./utils.js" to a sibling file name.
func (b *esBuild) resolve(target string) (string, bool) {
	if strings.Contains(target, "/") {
		return "", false
	}
	if _, ok := b.files[target]; ok {
		return target, true
	}
	for _, ext := range esExtensions {
		if _, ok := b.files[target+ext]; ok {
			return target + ext, true
		}
	}
	return "", false
}

func splitAlias(item string) (name, alias string) {
	fields := strings.Fields(item)
	switch {
	case len(fields) == 0:
		return "", ""
	case len(fields) == 3 && fields[1] == "as":
		return fields[0], fields[2]
	default:
		return fields[0], fields[0]
	}
}

// extractExports builds the export table of one file: symbol name to
// declaration text without the export keyword.
func extractExports(content string) map[string]string {
	exports := map[string]string{}

	for _, pattern := range []*regexp.Regexp{esExportFunc, esExportClass} {
		for _, loc := range pattern.FindAllStringSubmatchIndex(content, -1) {
			declStart, name := loc[2], content[loc[4]:loc[5]]
			end := matchingBrace(content, loc[1])
			exports[name] = content[declStart:end]
		}
	}

	for _, m := range esExportConst.FindAllStringSubmatch(content, -1) {
		exports[m[2]] = m[1]
	}

	return exports
}

// matchingBrace returns the index just past the brace that closes the
// block opened right before from. Unbalanced input runs to the end.
func matchingBrace(content string, from int) int {
	depth := 1
	for i := from; i < len(content); i++ {
		switch content[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return len(content)
}
