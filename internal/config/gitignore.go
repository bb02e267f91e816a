package config

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// GitignorePattern is one non-comment line of a .gitignore.
type GitignorePattern struct {
	Pattern   string
	Negate    bool
	Directory bool
	Absolute  bool
}

// ParseGitignoreLine parses line; ok is false for blanks and comments.
func ParseGitignoreLine(line string) (p GitignorePattern, ok bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return p, false
	}
	if strings.HasPrefix(line, "!") {
		p.Negate = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		p.Directory = true
		line = strings.TrimSuffix(line, "/")
	}
	if strings.HasPrefix(line, "/") {
		p.Absolute = true
		line = line[1:]
	}
	p.Pattern = line
	return p, line != ""
}

// Exclusion converts the pattern to a doublestar exclusion relative to the
// root, or "" for negations.
func (p GitignorePattern) Exclusion() string {
	if p.Negate {
		return ""
	}
	pat := p.Pattern
	if !p.Absolute && !strings.Contains(pat, "/") {
		pat = "**/" + pat
	}
	if p.Directory {
		return pat + "/**"
	}
	return pat
}

// LoadGitignore reads the .gitignore of root and returns its patterns as
// exclusions. A missing file yields none.
func LoadGitignore(root string) []string {
	f, err := os.Open(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	defer f.Close()

	var out []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		p, ok := ParseGitignoreLine(scanner.Text())
		if !ok {
			continue
		}
		if ex := p.Exclusion(); ex != "" {
			out = append(out, ex)
		}
	}
	return out
}
