package attrs

import (
	"go/token"
)

// declaration keys
const (
	KeyTable      = "table"
	KeyDatasource = "datasource"
	KeyID         = "id"
	KeyInsertable = "insertable"
	KeyQueryable  = "queryable"
	KeyPatch      = "patch"
)

// field keys
const (
	KeyColumn      = "column"
	KeyCustomType  = "custom_type"
	KeyGetOne      = "get_one"
	KeyGetOptional = "get_optional"
	KeyGetMany     = "get_many"
	KeySet         = "set"
	KeyDefault     = "default"
	KeyUnmapped    = "unmapped"
)

// Decl holds the attributes of a type declaration.
type Decl struct {
	Table      string
	Datasource string
	ID         string
	// Insertable is the companion name; empty with HasInsertable means the default name.
	Insertable    string
	HasInsertable bool
	Queryable     bool
	// Patch names the entity type of a patch declaration.
	Patch string

	present map[string]bool
}

// Has reports whether key was annotated.
func (d *Decl) Has(key string) bool {
	return d.present[key]
}

// Require fails with a missing attribute error for the first absent key.
func (d *Decl) Require(keys ...string) error {
	for _, key := range keys {
		if !d.Has(key) {
			return missing(key)
		}
	}
	return nil
}

// ParseDecl builds declaration attributes; every key may occur once.
func ParseDecl(items []Item) (*Decl, error) {
	d := &Decl{present: map[string]bool{}}
	for _, item := range items {
		if d.present[item.Key] {
			return nil, duplicate(item.Key)
		}
		d.present[item.Key] = true

		var err error
		switch item.Key {
		case KeyTable:
			d.Table, err = requiredValue(item)
		case KeyDatasource:
			d.Datasource, err = requiredValue(item)
		case KeyID:
			if d.ID, err = requiredValue(item); err == nil {
				err = checkIdent(item.Key, d.ID)
			}
		case KeyInsertable:
			d.HasInsertable = true
			if d.Insertable, err = optionalValue(item); err == nil && len(d.Insertable) > 0 {
				err = checkIdent(item.Key, d.Insertable)
			}
		case KeyQueryable:
			d.Queryable, err = flag(item)
		case KeyPatch:
			if d.Patch, err = requiredValue(item); err == nil {
				err = checkIdent(item.Key, d.Patch)
			}
		default:
			err = unknown(item.Key)
		}
		if err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Getter is a get_one, get_optional or get_many directive; empty parts take defaults.
type Getter struct {
	Func    string
	ArgType string
}

// Setter is a set directive; an empty Func takes the default name.
type Setter struct {
	Func string
}

// Field holds the attributes of a struct field.
type Field struct {
	Column      string
	CustomType  bool
	StorageType string
	GetOne      *Getter
	GetOptional *Getter
	GetMany     *Getter
	Set         *Setter
	Default     bool
	Unmapped    bool
}

// ParseField builds field attributes; optional tells whether the field type can hold an absent value.
func ParseField(items []Item, optional bool) (*Field, error) {
	f := &Field{}
	seen := map[string]bool{}
	for _, item := range items {
		if seen[item.Key] {
			return nil, duplicate(item.Key)
		}
		seen[item.Key] = true

		var err error
		switch item.Key {
		case KeyColumn:
			f.Column, err = requiredValue(item)
		case KeyCustomType:
			f.CustomType = true
			f.StorageType, err = optionalValue(item)
		case KeyGetOne:
			f.GetOne, err = getter(item)
		case KeyGetOptional:
			f.GetOptional, err = getter(item)
		case KeyGetMany:
			f.GetMany, err = getter(item)
		case KeySet:
			f.Set, err = setter(item)
		case KeyDefault:
			f.Default, err = flag(item)
		case KeyUnmapped:
			if f.Unmapped, err = flag(item); err == nil && !optional {
				err = invalid(item.Key, "only a pointer or sql.Null* field can be unmapped")
			}
		default:
			err = unknown(item.Key)
		}
		if err != nil {
			return nil, err
		}
	}
	return f, nil
}

func getter(item Item) (*Getter, error) {
	g := &Getter{}
	switch {
	case item.HasValue:
		g.Func = item.Value
	case item.HasArgs:
		switch len(item.Args) {
		case 0:
		case 1:
			g.Func = item.Args[0]
		case 2:
			g.Func, g.ArgType = item.Args[0], item.Args[1]
		default:
			return nil, invalid(item.Key, "expected (function) or (function, argument type), got %d arguments", len(item.Args))
		}
	}
	if len(g.Func) > 0 {
		if err := checkIdent(item.Key, g.Func); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func setter(item Item) (*Setter, error) {
	s := &Setter{}
	switch {
	case item.HasValue:
		s.Func = item.Value
	case item.HasArgs:
		if len(item.Args) > 1 {
			return nil, invalid(item.Key, "expected (function), got %d arguments", len(item.Args))
		} else if len(item.Args) == 1 {
			s.Func = item.Args[0]
		}
	}
	if len(s.Func) > 0 {
		if err := checkIdent(item.Key, s.Func); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func requiredValue(item Item) (string, error) {
	switch {
	case item.HasValue && len(item.Value) > 0:
		return item.Value, nil
	case item.HasArgs && len(item.Args) == 1 && len(item.Args[0]) > 0:
		return item.Args[0], nil
	default:
		return "", invalid(item.Key, "value expected")
	}
}

func optionalValue(item Item) (string, error) {
	if !item.HasValue && !item.HasArgs {
		return "", nil
	}
	return requiredValue(item)
}

func flag(item Item) (bool, error) {
	if item.HasValue || item.HasArgs {
		return false, invalid(item.Key, "no value expected")
	}
	return true, nil
}

func checkIdent(key, name string) error {
	if !token.IsIdentifier(name) {
		return invalid(key, "%q is not an identifier", name)
	}
	return nil
}
