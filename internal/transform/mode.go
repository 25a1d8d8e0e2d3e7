package transform

import (
	"fmt"
	"go/ast"
	"strings"

	"github.com/funvibe/fallible/internal/config"
)

// Mode selects what a rewrite emits.
type Mode int

const (
	// Replace emits only the rewritten function, under the original name.
	Replace Mode = iota
	// Keep also emits the untouched original, renamed with the Fallible suffix.
	Keep
)

func (m Mode) String() string {
	switch m {
	case Replace:
		return "replace"
	case Keep:
		return "keep"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode interprets the text after the directive. Empty text selects
// Replace, "keep" selects Keep, anything else is ErrUnexpectedAttribute.
func ParseMode(args string) (Mode, error) {
	fields := strings.Fields(args)
	switch {
	case len(fields) == 0:
		return Replace, nil
	case len(fields) == 1 && fields[0] == config.KeepArgument:
		return Keep, nil
	}
	return Replace, fmt.Errorf("%q: %w", args, ErrUnexpectedAttribute)
}

// FindDirective looks for the directive in a doc comment and returns the
// text that follows it.
func FindDirective(doc *ast.CommentGroup) (args string, found bool) {
	if doc == nil {
		return "", false
	}
	for _, c := range doc.List {
		if rest, ok := directiveArgs(c.Text); ok {
			return rest, true
		}
	}
	return "", false
}

func directiveArgs(line string) (string, bool) {
	rest, ok := strings.CutPrefix(line, config.Directive)
	if !ok {
		return "", false
	}
	// "//fallible:systems" is a different directive
	if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
		return "", false
	}
	return strings.TrimSpace(rest), true
}

// DeclMode returns the mode requested by decl's directive. ok is false when
// decl carries no directive.
func DeclMode(decl *ast.FuncDecl) (mode Mode, ok bool, err error) {
	args, found := FindDirective(decl.Doc)
	if !found {
		return Replace, false, nil
	}
	mode, err = ParseMode(args)
	return mode, true, err
}
