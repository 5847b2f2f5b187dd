package handlers

import (
	"net/http"

	"github.com/wolfman30/pawcare-booking/internal/catalog"
	"github.com/wolfman30/pawcare-booking/internal/pets"
	"github.com/wolfman30/pawcare-booking/pkg/logging"
)

// CatalogHandler serves read-only reference data: services and the client's pets.
type CatalogHandler struct {
	catalog *catalog.Catalog
	pets    pets.Repository
	ownerID string
	logger  *logging.Logger
}

func NewCatalogHandler(c *catalog.Catalog, repo pets.Repository, ownerID string, logger *logging.Logger) *CatalogHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &CatalogHandler{catalog: c, pets: repo, ownerID: ownerID, logger: logger}
}

type CatalogResponse struct {
	Services   []catalog.Service `json:"services"`
	Categories []string          `json:"categories"`
}

// ListServices returns the service catalog.
// GET /catalog?category=Diagnostics
func (h *CatalogHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	services := h.catalog.List()
	if category := r.URL.Query().Get("category"); category != "" {
		services = h.catalog.ByCategory(category)
	}
	if services == nil {
		services = []catalog.Service{}
	}
	writeJSON(w, http.StatusOK, CatalogResponse{Services: services, Categories: h.catalog.Categories()})
}

// ListPets returns the signed-in client's pets.
// GET /pets
func (h *CatalogHandler) ListPets(w http.ResponseWriter, r *http.Request) {
	all, err := h.pets.List(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	owned := make([]pets.Pet, 0, len(all))
	for _, p := range all {
		if h.ownerID == "" || p.OwnerID == h.ownerID {
			owned = append(owned, p)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"pets": owned})
}
