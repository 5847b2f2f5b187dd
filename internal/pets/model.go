package pets

import (
	"strings"
	"time"
)

// Pet is an animal registered to the session's user.
type Pet struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Name      string    `json:"name"`
	Species   string    `json:"species"`
	Breed     string    `json:"breed"`
	AgeYears  int       `json:"age_years"`
	CreatedAt time.Time `json:"created_at"`
}

// PetRequest is the body for creating or updating a pet
type PetRequest struct {
	OwnerID  string `json:"-"`
	Name     string `json:"name"`
	Species  string `json:"species"`
	Breed    string `json:"breed"`
	AgeYears int    `json:"age_years"`
}

// Validate validates the pet request
func (r *PetRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrInvalidName
	}
	if strings.TrimSpace(r.Species) == "" {
		return ErrInvalidSpecies
	}
	if r.AgeYears < 0 {
		return ErrInvalidAge
	}
	return nil
}
