package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/wolfman30/pawcare-booking/internal/pricing"
)

var (
	ErrServiceNotFound = errors.New("catalog: service not found")
	ErrInvalidService  = errors.New("catalog: invalid service")
)

// Service is an offered clinic service. Values are immutable once loaded.
type Service struct {
	ID              int           `json:"id" toml:"id"`
	Name            string        `json:"name" toml:"name"`
	Description     string        `json:"description" toml:"description"`
	Price           pricing.Money `json:"price_cents" toml:"price_cents"`
	DurationMinutes int           `json:"duration_minutes" toml:"duration_minutes"`
	Category        string        `json:"category" toml:"category"`
}

// ListPrice implements pricing.Priced.
func (s Service) ListPrice() pricing.Money {
	return s.Price
}

// Catalog is a read-only list of services.
type Catalog struct {
	services []Service
	byID     map[int]int
}

// New validates services and builds a catalog in the given order.
func New(services []Service) (*Catalog, error) {
	c := &Catalog{services: make([]Service, 0, len(services)), byID: make(map[int]int, len(services))}
	for _, svc := range services {
		svc.Name = strings.TrimSpace(svc.Name)
		svc.Category = strings.TrimSpace(svc.Category)
		switch {
		case svc.ID <= 0:
			return nil, fmt.Errorf("%w: id must be positive (%q)", ErrInvalidService, svc.Name)
		case svc.Name == "":
			return nil, fmt.Errorf("%w: service %d has no name", ErrInvalidService, svc.ID)
		case svc.Price < 0:
			return nil, fmt.Errorf("%w: service %d has a negative price", ErrInvalidService, svc.ID)
		case svc.DurationMinutes <= 0:
			return nil, fmt.Errorf("%w: service %d has no duration", ErrInvalidService, svc.ID)
		}
		if _, dup := c.byID[svc.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %d", ErrInvalidService, svc.ID)
		}
		c.byID[svc.ID] = len(c.services)
		c.services = append(c.services, svc)
	}
	return c, nil
}

type catalogFile struct {
	Services []Service `toml:"service"`
}

// LoadFile reads a TOML catalog made of [[service]] tables.
func LoadFile(path string) (*Catalog, error) {
	var f catalogFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("catalog: decode %s: %w", path, err)
	}
	if len(f.Services) == 0 {
		return nil, fmt.Errorf("catalog: %s defines no services", path)
	}
	return New(f.Services)
}

// Load returns the catalog at path, or the built-in catalog when path is empty.
func Load(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// List returns a copy of all services in catalog order.
func (c *Catalog) List() []Service {
	out := make([]Service, len(c.services))
	copy(out, c.services)
	return out
}

// Get looks a service up by id.
func (c *Catalog) Get(id int) (Service, error) {
	idx, ok := c.byID[id]
	if !ok {
		return Service{}, fmt.Errorf("%w: %d", ErrServiceNotFound, id)
	}
	return c.services[idx], nil
}

// Categories returns distinct categories in first-seen order.
func (c *Catalog) Categories() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, svc := range c.services {
		if _, ok := seen[svc.Category]; ok {
			continue
		}
		seen[svc.Category] = struct{}{}
		out = append(out, svc.Category)
	}
	return out
}

// ByCategory returns the services in category, in catalog order.
func (c *Catalog) ByCategory(category string) []Service {
	var out []Service
	for _, svc := range c.services {
		if strings.EqualFold(svc.Category, category) {
			out = append(out, svc)
		}
	}
	return out
}
