package attrs

import "fmt"

type Kind int

const (
	Duplicate Kind = iota + 1
	Missing
	Unknown
	Invalid
)

func (k Kind) String() string {
	switch k {
	case Duplicate:
		return "duplicate attribute"
	case Missing:
		return "missing attribute"
	case Unknown:
		return "unknown attribute"
	case Invalid:
		return "invalid attribute"
	default:
		return "attribute error"
	}
}

// Error is an annotation error. Kind and Key are matched by tests and callers via errors.As.
type Error struct {
	Kind   Kind
	Key    string
	Detail string
}

func (e *Error) Error() string {
	m := e.Kind.String() + " " + e.Key
	if len(e.Detail) > 0 {
		m += ": " + e.Detail
	}
	return m
}

// Is matches errors of the same kind and key; an empty key in target matches any key.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (len(t.Key) == 0 || t.Key == e.Key)
}

func duplicate(key string) error { return &Error{Kind: Duplicate, Key: key} }
func missing(key string) error   { return &Error{Kind: Missing, Key: key} }
func unknown(key string) error   { return &Error{Kind: Unknown, Key: key} }

func invalid(key, format string, args ...any) error {
	return &Error{Kind: Invalid, Key: key, Detail: fmt.Sprintf(format, args...)}
}

// ErrDuplicate, ErrMissing and ErrUnknown match any attribute error of their kind.
var (
	ErrDuplicate = &Error{Kind: Duplicate}
	ErrMissing   = &Error{Kind: Missing}
	ErrUnknown   = &Error{Kind: Unknown}
	ErrInvalid   = &Error{Kind: Invalid}
)
