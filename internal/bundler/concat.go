package bundler

import "strings"

// concat is the fallback: every file in name order, each preceded by a
// comment naming it.
type concat struct {
	commentPrefix string
}

func (c concat) Bundle(files map[string]string, entry string) string {
	parts := make([]string, 0, len(files))
	for _, name := range sortedNames(files) {
		parts = append(parts, "\n"+c.commentPrefix+" "+name+"\n"+files[name])
	}
	return strings.Join(parts, "\n")
}
