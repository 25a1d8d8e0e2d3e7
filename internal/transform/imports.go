package transform

import (
	"go/ast"
	"strconv"
	"strings"
	"unicode"
)

// PackageName guesses the package name declared at an import path. It
// skips major-version elements (v9), gopkg.in style suffixes (yaml.v3) and
// the common go- prefix, which covers how nearly every module is named.
func PackageName(pkgPath string) string {
	parts := strings.Split(pkgPath, "/")
	last := parts[len(parts)-1]
	if isMajorVersion(last) && len(parts) > 1 {
		last = parts[len(parts)-2]
	}
	if i := strings.LastIndex(last, ".v"); i > 0 && allDigits(last[i+2:]) {
		last = last[:i]
	}
	last = strings.TrimPrefix(last, "go-")
	last = strings.TrimSuffix(last, "-go")

	name := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			return r
		}
		return -1
	}, last)
	if name == "" {
		return "pkg"
	}
	return name
}

func isMajorVersion(s string) bool {
	return len(s) > 1 && s[0] == 'v' && allDigits(s[1:])
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// importTable maps the local name of every named import in file to its
// path. Blank and dot imports introduce no name and are left out.
func importTable(file *ast.File) map[string]string {
	table := make(map[string]string, len(file.Imports))
	for _, imp := range file.Imports {
		path, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			continue
		}
		name := PackageName(path)
		if imp.Name != nil {
			if imp.Name.Name == "_" || imp.Name.Name == "." {
				continue
			}
			name = imp.Name.Name
		}
		table[name] = path
	}
	return table
}
