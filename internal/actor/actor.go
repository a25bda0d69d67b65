package actor

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
)

// Role is the capability class of an authenticated account.
type Role string

const (
	RoleConsumer     Role = "CONSUMER"
	RoleFarmerUnion  Role = "FARMER_UNION"
	RoleLaboratory   Role = "LABORATORY"
	RoleManufacturer Role = "MANUFACTURER"
	RoleAdmin        Role = "ADMIN"
)

var roles = map[Role]struct{}{
	RoleConsumer:     {},
	RoleFarmerUnion:  {},
	RoleLaboratory:   {},
	RoleManufacturer: {},
	RoleAdmin:        {},
}

// ParseRole accepts the role name in any case.
func ParseRole(value string) (Role, bool) {
	role := Role(strings.ToUpper(strings.TrimSpace(value)))
	_, ok := roles[role]
	return role, ok
}

func (r Role) Valid() bool {
	_, ok := roles[r]
	return ok
}

// Actor is the caller of a core operation. It is always passed explicitly.
type Actor struct {
	ID   snowflake.ID
	Role Role
}

func New(id snowflake.ID, role Role) Actor {
	return Actor{ID: id, Role: role}
}

func (a Actor) IsZero() bool {
	return a.ID == 0 && a.Role == ""
}

// Subject is the casbin subject for the actor's role.
func (a Actor) Subject() string {
	return "role:" + strings.ToLower(string(a.Role))
}

func (a Actor) IDString() string {
	if a.ID == 0 {
		return ""
	}
	return a.ID.String()
}

func (a Actor) String() string {
	return fmt.Sprintf("%s:%s", a.Role, a.IDString())
}

type contextKey struct{}

// WithActor stores the authenticated actor so handlers can pass it on.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, contextKey{}, a)
}

func FromContext(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	a, ok := ctx.Value(contextKey{}).(Actor)
	if !ok || a.IsZero() {
		return Actor{}, false
	}
	return a, true
}
