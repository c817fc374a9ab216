package model

import "encoding/json"

// UserPayload is the client-facing shape of a User.
//
// There is no password field and no recipes field. The first keeps the hash
// out of every response; the second keeps Recipe → User expansion one level
// deep, since a UserPayload has nothing further to expand.
type UserPayload struct {
	ID       int64   `json:"id"`
	Username string  `json:"username"`
	ImageURL *string `json:"image_url"`
	Bio      *string `json:"bio"`
}

// RecipePayload is the client-facing shape of a Recipe, with its owner
// embedded (or null when the owner was not loaded).
type RecipePayload struct {
	ID                int64        `json:"id"`
	Title             string       `json:"title"`
	Instructions      string       `json:"instructions"`
	MinutesToComplete int          `json:"minutes_to_complete"`
	User              *UserPayload `json:"user"`
}

// Payload converts the user to its response shape.
func (u *User) Payload() UserPayload {
	return UserPayload{
		ID:       u.ID,
		Username: u.Username,
		ImageURL: u.ImageURL,
		Bio:      u.Bio,
	}
}

// MarshalJSON encodes the payload, so json.Marshal(user) anywhere in the
// program produces the safe shape.
func (u User) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.Payload())
}

// Payload converts the recipe to its response shape.
func (r *Recipe) Payload() RecipePayload {
	p := RecipePayload{
		ID:                r.ID,
		Title:             r.Title,
		Instructions:      r.Instructions,
		MinutesToComplete: r.MinutesToComplete,
	}
	if r.User != nil {
		owner := r.User.Payload()
		p.User = &owner
	}
	return p
}

// MarshalJSON encodes the payload, matching User.
func (r Recipe) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Payload())
}

// RecipePayloads converts a list. The result is never nil so an empty list
// encodes as [] rather than null.
func RecipePayloads(recipes []Recipe) []RecipePayload {
	out := make([]RecipePayload, 0, len(recipes))
	for i := range recipes {
		out = append(out, recipes[i].Payload())
	}
	return out
}
