package sh

import (
	"path"
	"strings"

	"github.com/devpad/websh/core/vos"
)

// globField expands one field against the virtual filesystem. A pattern
// with no matches is passed through literally; quoted or escaped fields are
// never globbed.
func (c *execContext) globField(field string, tok Token) []string {
	if tok.noGlob || !strings.ContainsAny(field, "*?[") {
		return []string{field}
	}
	if matches := c.glob(field); len(matches) > 0 {
		return matches
	}
	return []string{field}
}

// globFrags globs one field rebuilt from mixed-quoting fragments. Only
// metacharacters from unquoted fragments activate matching; quoted fragments
// are escaped in the pattern so they match literally.
func (c *execContext) globFrags(frags []wordFrag) []string {
	var text, pattern strings.Builder
	hasMeta := false
	for _, f := range frags {
		text.WriteString(f.text)
		if f.quoted {
			pattern.WriteString(escapeGlob(f.text))
			continue
		}
		if strings.ContainsAny(f.text, "*?[") {
			hasMeta = true
		}
		pattern.WriteString(f.text)
	}
	if !hasMeta {
		return []string{text.String()}
	}
	if matches := c.glob(pattern.String()); len(matches) > 0 {
		return matches
	}
	return []string{text.String()}
}

// escapeGlob backslash-escapes pattern metacharacters so path.Match treats
// them literally.
func escapeGlob(s string) string {
	var out strings.Builder
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '*', '?', '[', '\\':
			out.WriteByte('\\')
		}
		out.WriteByte(s[i])
	}
	return out.String()
}

// glob matches a pattern against directory entries with POSIX dotfile
// semantics: * and ? never match a leading dot; only a pattern explicitly
// starting with "." matches dotfiles. Patterns glob in the final path
// element only.
func (c *execContext) glob(pattern string) []string {
	dir, base := path.Split(pattern)
	if strings.ContainsAny(dir, "*?[") {
		return nil
	}

	listDir := dir
	if listDir == "" {
		listDir = "."
	}
	names, err := vos.ReadDirNames(c.fs(), listDir)
	if err != nil {
		return nil
	}

	var out []string
	for _, name := range names {
		if strings.HasPrefix(name, ".") && !strings.HasPrefix(base, ".") {
			continue
		}
		if ok, err := path.Match(base, name); err != nil || !ok {
			continue
		}
		out = append(out, dir+name)
	}
	return out
}
