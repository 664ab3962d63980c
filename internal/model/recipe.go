package model

import "time"

// Recipe represents a row in the `recipes` table together with its
// ingredient lists from `recipe_ingredients`.  The owner is fixed at
// creation from the authenticated requester and never changes.
//
// Fields:
//
//	ID                – primary key identifier.
//	Title             – recipe title, non-empty.
//	Ingredients       – ordered list of ingredient strings, non-empty.
//	IngredientsSetTwo – optional second component of the dish.
//	Instructions      – preparation steps, non-empty.
//	Category          – free-text category used by search.
//	Notes             – optional notes.
//	OwnerID           – id of the creating user, immutable.
//	CreatedAt         – creation timestamp.
//	UpdatedAt         – last update timestamp.
type Recipe struct {
	ID                uint64    `json:"id"`
	Title             string    `json:"title"`
	Ingredients       []string  `json:"ingredients"`
	IngredientsSetTwo []string  `json:"ingredientsSetTwo,omitempty"`
	Instructions      string    `json:"instructions"`
	Category          string    `json:"category"`
	Notes             string    `json:"notes,omitempty"`
	OwnerID           uint64    `json:"-"`
	CreatedAt         time.Time `json:"-"`
	UpdatedAt         time.Time `json:"-"`

	// Owner is the minimal projection attached to listing and detail
	// responses.  Nil when the row was loaded without its owner.
	Owner *RecipeOwner `json:"owner,omitempty"`
}

// RecipeOwner is the minimal owner annotation (name and role) exposed on
// recipe responses.
type RecipeOwner struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}
