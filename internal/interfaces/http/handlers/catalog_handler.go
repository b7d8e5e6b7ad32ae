package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/ipfolio/ipfolio/internal/domain/catalog"
)

// CatalogHandler serves the reference catalogs. Catalogs are readable by any
// authenticated caller; the UI needs them to render dropdowns and the import
// preview.
type CatalogHandler struct {
	countries catalog.CountryRepository
	statuses  catalog.StatusRepository
}

func NewCatalogHandler(countries catalog.CountryRepository, statuses catalog.StatusRepository) *CatalogHandler {
	return &CatalogHandler{countries: countries, statuses: statuses}
}

// ListCountries handles GET /catalogs/countries.
func (h *CatalogHandler) ListCountries(c *gin.Context) {
	if _, ok := principal(c); !ok {
		return
	}
	countries, err := h.countries.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"countries": countries})
}

// GetCountry handles GET /catalogs/countries/:id.
func (h *CatalogHandler) GetCountry(c *gin.Context) {
	if _, ok := principal(c); !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	country, err := h.countries.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, country)
}

// ListStatuses handles GET /catalogs/statuses.
func (h *CatalogHandler) ListStatuses(c *gin.Context) {
	if _, ok := principal(c); !ok {
		return
	}
	statuses, err := h.statuses.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"statuses": statuses})
}
