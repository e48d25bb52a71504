// Package backend describes the SQL dialects cherry generates code for.
package backend

import (
	"sort"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
)

// InsertStrategy is the way a dialect completes an insert with database generated values.
type InsertStrategy int

const (
	// LastInsertID executes the insert, fetches the generated id by a dedicated query
	// and selects the remaining default fields by id.
	LastInsertID InsertStrategy = iota
	// Returning appends a RETURNING clause with the default fields to the insert.
	Returning
)

func (s InsertStrategy) String() string {
	switch s {
	case LastInsertID:
		return "last-insert-id"
	case Returning:
		return "returning"
	default:
		return "unknown"
	}
}

// Backend is a SQL dialect.
type Backend interface {
	Name() string
	// Quote is the identifier quoting character.
	Quote() byte
	// IsReserved checks case-insensitively whether ident is a keyword of the dialect.
	IsReserved(ident string) bool
	// Bindings returns a fresh placeholder sequence.
	Bindings() *Bindings
	Strategy() InsertStrategy
	// LastInsertIDQuery is the follow-up query of the LastInsertID strategy.
	LastInsertIDQuery() string
	DriverName() string
	PlaceholderFormat() sq.PlaceholderFormat
	// Upsert renders the clause appended to an insert that updates the given columns on a key conflict.
	Upsert(conflict, update []string) (string, error)
	// InsertIgnore is the insert option and the suffix that skip conflicting rows.
	InsertIgnore() (option, suffix string)
	// SupportsReplace reports whether REPLACE INTO is available.
	SupportsReplace() bool
}

var ErrUnknown = errors.New("unknown backend")

var (
	backends = map[string]Backend{}
	aliases  = map[string]string{}
)

func register(b Backend, alias ...string) {
	backends[b.Name()] = b
	for _, a := range alias {
		aliases[a] = b.Name()
	}
}

func init() {
	register(MySQL{}, "mariadb")
	register(Postgres{}, "postgresql", "pg", "pgx")
	register(SQLite{}, "sqlite3")
}

// Lookup finds a dialect by its name or alias.
func Lookup(name string) (Backend, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := aliases[key]; ok {
		key = canonical
	}
	if b, ok := backends[key]; ok {
		return b, nil
	}
	return nil, errors.Wrapf(ErrUnknown, "%q, supported %s", name, strings.Join(Names(), ", "))
}

// Names lists the supported dialect names.
func Names() []string {
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Ident renders a column reference, quoting it when it collides with a keyword.
func Ident(b Backend, name string) string {
	if b.IsReserved(name) {
		return QuoteIdent(b, name)
	}
	return name
}

// QuoteIdent unconditionally quotes name.
func QuoteIdent(b Backend, name string) string {
	q := string(b.Quote())
	return q + name + q
}

// Bindings is an unbounded sequence of placeholder tokens.
type Bindings struct {
	render func(n int) string
	n      int
}

func newBindings(render func(n int) string) *Bindings {
	return &Bindings{render: render}
}

// Next returns the next placeholder.
func (b *Bindings) Next() string {
	b.n++
	return b.render(b.n)
}

// Take returns the next count placeholders.
func (b *Bindings) Take(count int) []string {
	tokens := make([]string, count)
	for i := range tokens {
		tokens[i] = b.Next()
	}
	return tokens
}

// Count is the number of issued placeholders.
func (b *Bindings) Count() int {
	return b.n
}

func question(int) string { return "?" }

type keywords map[string]struct{}

func newKeywords(list string) keywords {
	words := strings.Fields(list)
	k := make(keywords, len(words))
	for _, w := range words {
		k[strings.ToUpper(w)] = struct{}{}
	}
	return k
}

func (k keywords) contains(ident string) bool {
	_, ok := k[strings.ToUpper(ident)]
	return ok
}

func assignments(update []string, value func(col string) string) string {
	parts := make([]string, len(update))
	for i, col := range update {
		parts[i] = col + " = " + value(col)
	}
	return strings.Join(parts, ", ")
}
