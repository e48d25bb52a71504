package generator

import (
	"go/token"
	"strings"
	"unicode"

	"github.com/m4gshm/gollections/slice"
)

// IdentName converts a Go name to an exported or an unexported identifier.
// A leading acronym is converted as a whole: "URLPath" becomes "urlPath".
func IdentName(name string, export bool) string {
	if len(name) == 0 {
		return name
	}
	if export {
		runes := []rune(name)
		runes[0] = unicode.ToUpper(runes[0])
		return string(runes)
	}
	return ArgName(name)
}

// ArgName converts a Go name to an unexported identifier, lowering its leading upper case run
// except the last rune of a run followed by a lower case one.
func ArgName(name string) string {
	runes := []rune(name)
	upper := 0
	for upper < len(runes) && unicode.IsUpper(runes[upper]) {
		upper++
	}
	if upper > 1 && upper < len(runes) && unicode.IsLower(runes[upper]) {
		upper--
	}
	for i := 0; i < upper; i++ {
		runes[i] = unicode.ToLower(runes[i])
	}
	return string(runes)
}

var predeclared = map[string]struct{}{
	"any": {}, "bool": {}, "byte": {}, "error": {}, "string": {}, "rune": {}, "len": {}, "cap": {},
	"new": {}, "make": {}, "nil": {}, "true": {}, "false": {}, "iota": {}, "append": {}, "copy": {},
	"delete": {}, "int": {}, "uint": {}, "float64": {}, "close": {}, "panic": {}, "print": {},
}

// LegalIdentName suffixes a name colliding with a keyword or a predeclared identifier.
func LegalIdentName(name string) string {
	if _, ok := predeclared[name]; ok || token.IsKeyword(name) {
		return name + "_"
	}
	return name
}

// TypeReceiverVar is the short receiver name of a type, the first letter lowered.
func TypeReceiverVar(typeName string) string {
	if parts := strings.Split(typeName, "."); len(parts) > 1 {
		return TypeReceiverVar(parts[len(parts)-1])
	} else if f, ok := slice.First([]rune(typeName), unicode.IsLetter); ok {
		return string(unicode.ToLower(f))
	}
	return "r"
}
