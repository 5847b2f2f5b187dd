package pets

import "errors"

var (
	// ErrInvalidName is returned when the pet name is blank
	ErrInvalidName = errors.New("pets: name is required")

	// ErrInvalidSpecies is returned when the species is blank
	ErrInvalidSpecies = errors.New("pets: species is required")

	// ErrInvalidAge is returned for negative ages
	ErrInvalidAge = errors.New("pets: age must not be negative")

	// ErrPetNotFound is returned when a pet is not found
	ErrPetNotFound = errors.New("pets: pet not found")
)
