package pets

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the pet directory used by the booking wizard
type Repository interface {
	List(ctx context.Context) ([]Pet, error)
	GetByID(ctx context.Context, id string) (*Pet, error)
	Create(ctx context.Context, req *PetRequest) (*Pet, error)
	Update(ctx context.Context, id string, req *PetRequest) (*Pet, error)
	Delete(ctx context.Context, id string) error
}

// InMemoryRepository stores pets in memory
type InMemoryRepository struct {
	mu   sync.RWMutex
	pets map[string]*Pet
	now  func() time.Time
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		pets: make(map[string]*Pet),
		now:  time.Now,
	}
}

// List returns pets ordered by creation time, then name.
func (r *InMemoryRepository) List(ctx context.Context) ([]Pet, error) {
	r.mu.RLock()
	out := make([]Pet, 0, len(r.pets))
	for _, p := range r.pets {
		out = append(out, *p)
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// GetByID retrieves a pet by ID
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Pet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pet, ok := r.pets[id]
	if !ok {
		return nil, ErrPetNotFound
	}
	cp := *pet
	return &cp, nil
}

// Create registers a new pet
func (r *InMemoryRepository) Create(ctx context.Context, req *PetRequest) (*Pet, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	pet := &Pet{
		ID:        uuid.New().String(),
		OwnerID:   req.OwnerID,
		Name:      strings.TrimSpace(req.Name),
		Species:   strings.TrimSpace(req.Species),
		Breed:     strings.TrimSpace(req.Breed),
		AgeYears:  req.AgeYears,
		CreatedAt: r.now().UTC(),
	}

	r.mu.Lock()
	r.pets[pet.ID] = pet
	r.mu.Unlock()

	cp := *pet
	return &cp, nil
}

// Update replaces the editable fields of a pet
func (r *InMemoryRepository) Update(ctx context.Context, id string, req *PetRequest) (*Pet, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	pet, ok := r.pets[id]
	if !ok {
		return nil, ErrPetNotFound
	}
	pet.Name = strings.TrimSpace(req.Name)
	pet.Species = strings.TrimSpace(req.Species)
	pet.Breed = strings.TrimSpace(req.Breed)
	pet.AgeYears = req.AgeYears

	cp := *pet
	return &cp, nil
}

// Delete removes a pet
func (r *InMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.pets[id]; !ok {
		return ErrPetNotFound
	}
	delete(r.pets, id)
	return nil
}

// SeedDemoPets registers the demo account's pets.
func SeedDemoPets(ctx context.Context, repo Repository, ownerID string) ([]Pet, error) {
	seed := []PetRequest{
		{OwnerID: ownerID, Name: "Buddy", Species: "Dog", Breed: "Golden Retriever", AgeYears: 3},
		{OwnerID: ownerID, Name: "Whiskers", Species: "Cat", Breed: "Persian", AgeYears: 2},
	}
	out := make([]Pet, 0, len(seed))
	for i := range seed {
		pet, err := repo.Create(ctx, &seed[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *pet)
	}
	return out, nil
}
