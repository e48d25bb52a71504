// Package attrs parses cherry annotations: `cherry:"..."` struct tags on fields and
// `//cherry:` directives in the doc comment of a type declaration.
package attrs

import (
	"go/ast"
	"strconv"
	"strings"

	"github.com/m4gshm/gollections/slice"
	"github.com/pkg/errors"
)

const (
	TagName         = "cherry"
	DirectivePrefix = "//" + TagName + ":"
)

// Item is one annotation: key, key=value or key(arg, ...).
type Item struct {
	Key      string
	Value    string
	Args     []string
	HasValue bool
	HasArgs  bool
}

func (i Item) String() string {
	s := i.Key
	if i.HasValue {
		s += "=" + i.Value
	}
	if i.HasArgs {
		s += "(" + strings.Join(i.Args, ", ") + ")"
	}
	return s
}

// Directives extracts the annotation lists of a declaration doc comment.
func Directives(doc *ast.CommentGroup) []string {
	if doc == nil {
		return nil
	}
	lines := slice.Filter(doc.List, func(c *ast.Comment) bool { return strings.HasPrefix(c.Text, DirectivePrefix) })
	return slice.Convert(lines, func(c *ast.Comment) string { return strings.TrimSpace(c.Text[len(DirectivePrefix):]) })
}

// ParseAll parses and concatenates several annotation lists.
func ParseAll(lists ...string) ([]Item, error) {
	var all []Item
	for _, list := range lists {
		items, err := Parse(list)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
	}
	return all, nil
}

// Parse splits a comma separated annotation list.
func Parse(list string) ([]Item, error) {
	parts, err := split(list)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %q", list)
	}
	items := make([]Item, 0, len(parts))
	for _, part := range parts {
		if len(part) == 0 {
			continue
		}
		item, err := parseItem(part)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func split(s string) ([]string, error) {
	var (
		parts  []string
		depth  int
		quoted bool
		start  int
	)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '\\' && quoted:
			i++
		case c == '"':
			quoted = !quoted
		case quoted:
		case c == '(':
			depth++
		case c == ')':
			if depth--; depth < 0 {
				return nil, errors.Errorf("unexpected ')' at %d", i)
			}
		case c == ',' && depth == 0:
			parts = append(parts, strings.TrimSpace(s[start:i]))
			start = i + 1
		}
	}
	if quoted {
		return nil, errors.New("unterminated quote")
	} else if depth > 0 {
		return nil, errors.New("unclosed '('")
	}
	return append(parts, strings.TrimSpace(s[start:])), nil
}

func parseItem(part string) (Item, error) {
	i := strings.IndexAny(part, "=(")
	if i < 0 {
		return Item{Key: part}, checkKey(part)
	}
	key := strings.TrimSpace(part[:i])
	if err := checkKey(key); err != nil {
		return Item{}, err
	}
	rest := strings.TrimSpace(part[i+1:])
	if part[i] == '=' {
		value, err := unquote(rest)
		if err != nil {
			return Item{}, invalid(key, "%v", err)
		}
		return Item{Key: key, Value: value, HasValue: true}, nil
	}
	if !strings.HasSuffix(rest, ")") {
		return Item{}, invalid(key, "expected ')' at the end of %q", part)
	}
	argParts, err := split(rest[:len(rest)-1])
	if err != nil {
		return Item{}, invalid(key, "%v", err)
	}
	args := make([]string, 0, len(argParts))
	for _, a := range argParts {
		if len(a) == 0 {
			continue
		}
		arg, err := unquote(a)
		if err != nil {
			return Item{}, invalid(key, "%v", err)
		}
		args = append(args, arg)
	}
	return Item{Key: key, Args: args, HasArgs: true}, nil
}

func checkKey(key string) error {
	if len(key) == 0 {
		return errors.New("empty attribute key")
	}
	for _, r := range key {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return errors.Errorf("illegal attribute key %q", key)
		}
	}
	return nil
}

func unquote(s string) (string, error) {
	if strings.HasPrefix(s, `"`) {
		return strconv.Unquote(s)
	}
	return s, nil
}
