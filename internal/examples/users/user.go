// Package users is an example entity with its generated table accessor.
package users

import "time"

//go:generate go run github.com/Plato-solutions/cherry -type User
//go:generate go run github.com/Plato-solutions/cherry -type ProfilePatch

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// User is an account.
//
//cherry:table=users,datasource=main,id=ID,insertable,queryable
type User struct {
	ID        int64     `cherry:"default"`
	Email     string    `cherry:"get_one(ByEmail),set"`
	Role      Role      `cherry:"custom_type,get_many(ListByRole)"`
	Session   *string   `cherry:"unmapped"`
	CreatedAt time.Time `cherry:"default"`
}

//cherry:patch=User
type ProfilePatch struct {
	Email string
	Role  Role
}
