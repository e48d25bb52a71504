package generator

import (
	"strconv"

	"github.com/m4gshm/gollections/collection/mutable"
)

func NewUniqueShortVarGenerator(reserved ...string) *UniqueShortVarGenerator {
	u := &UniqueShortVarGenerator{uniqueVars: mutable.NewSet[string]()}
	for _, v := range reserved {
		u.Get(v)
	}
	return u
}

// UniqueShortVarGenerator issues variable names not used before in a scope.
type UniqueShortVarGenerator struct {
	uniqueVars *mutable.Set[string]
}

func (u *UniqueShortVarGenerator) Get(shortVar string) string {
	name := shortVar
	for i := 1; !u.uniqueVars.AddNew(name); i++ {
		name = shortVar + strconv.Itoa(i)
	}
	return name
}
