package models

import "fmt"

// ActorKind distinguishes the two identities that can hold a session.
type ActorKind string

const (
	ActorUser        ActorKind = "user"
	ActorFoodPartner ActorKind = "foodpartner"
)

// Valid reports whether k is a known actor kind.
func (k ActorKind) Valid() bool {
	return k == ActorUser || k == ActorFoodPartner
}

// Actor is the authenticated identity attached to a request.
type Actor struct {
	ID   uint      `json:"id"`
	Kind ActorKind `json:"type"`
}

func (a Actor) IsUser() bool        { return a.Kind == ActorUser && a.ID != 0 }
func (a Actor) IsFoodPartner() bool { return a.Kind == ActorFoodPartner && a.ID != 0 }

// String renders the actor as "kind:id", used in logs and cache keys.
func (a Actor) String() string {
	return fmt.Sprintf("%s:%d", a.Kind, a.ID)
}

// IsOwner reports whether actor is the partner that owns food. It is the only
// ownership predicate used for partner moderation.
func IsOwner(actor Actor, food *Food) bool {
	if food == nil || !actor.IsFoodPartner() {
		return false
	}
	return food.FoodPartnerID == actor.ID
}
