package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	patentapp "github.com/ipfolio/ipfolio/internal/application/patent"
	domain "github.com/ipfolio/ipfolio/internal/domain/patent"
	"github.com/ipfolio/ipfolio/internal/infrastructure/monitoring/logging"
	"github.com/ipfolio/ipfolio/pkg/errors"
)

// PatentHandler exposes the patent aggregate over HTTP.
type PatentHandler struct {
	patents patentapp.Service
	logger  logging.Logger
}

func NewPatentHandler(patents patentapp.Service, logger logging.Logger) *PatentHandler {
	return &PatentHandler{patents: patents, logger: logger.Named("patent_handler")}
}

// updateRequest mirrors domain.UpdateSpec with an explicit presence marker
// for the deposit list: an omitted "deposits" key keeps the stored records,
// a non-empty array replaces them wholesale.
type updateRequest struct {
	FamilyReference *string `json:"family_reference"`
	Title           *string `json:"title"`
	Comment         *string `json:"comment"`

	ClientIDs      []int64 `json:"client_ids"`
	InventorIDs    []int64 `json:"inventor_ids"`
	DepositorIDs   []int64 `json:"depositor_ids"`
	TitleHolderIDs []int64 `json:"title_holder_ids"`

	Deposits *[]domain.DepositRecord `json:"deposits"`

	InventorCountries    domain.CountryRights `json:"inventor_countries"`
	DepositorCountries   domain.CountryRights `json:"depositor_countries"`
	TitleHolderCountries domain.CountryRights `json:"title_holder_countries"`
}

func (r updateRequest) toSpec() domain.UpdateSpec {
	spec := domain.UpdateSpec{
		FamilyReference:      r.FamilyReference,
		Title:                r.Title,
		Comment:              r.Comment,
		ClientIDs:            r.ClientIDs,
		InventorIDs:          r.InventorIDs,
		DepositorIDs:         r.DepositorIDs,
		TitleHolderIDs:       r.TitleHolderIDs,
		InventorCountries:    r.InventorCountries,
		DepositorCountries:   r.DepositorCountries,
		TitleHolderCountries: r.TitleHolderCountries,
		Deposits:             domain.KeepDeposits(),
	}
	if r.Deposits != nil {
		spec.Deposits = domain.ReplaceDeposits(*r.Deposits)
	}
	return spec
}

// Create handles POST /patents.
func (h *PatentHandler) Create(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var spec domain.CreateSpec
	if err := c.ShouldBindJSON(&spec); err != nil {
		respondError(c, errors.Wrap(err, errors.CodeInvalidParam, "malformed patent payload"))
		return
	}

	created, err := h.patents.Create(c.Request.Context(), p, spec)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, created)
}

// Update handles PUT /patents/:id.
func (h *PatentHandler) Update(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.Wrap(err, errors.CodeInvalidParam, "malformed patent payload"))
		return
	}

	updated, err := h.patents.Update(c.Request.Context(), p, id, req.toSpec())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, updated)
}

// Get handles GET /patents/:id.
func (h *PatentHandler) Get(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	patent, err := h.patents.Get(c.Request.Context(), p, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, patent)
}

// List handles GET /patents.
func (h *PatentHandler) List(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	input := patentapp.ListInput{
		Query: c.Query("q"),
		Page:  pagination(c),
	}
	page, err := h.patents.List(c.Request.Context(), p, input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, page)
}

// Access handles GET /patents/:id/access. It reports whether the caller may
// read the patent without fetching the aggregate.
func (h *PatentHandler) Access(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	allowed, err := h.patents.UserCanAccess(c.Request.Context(), p, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"patent_id": id, "allowed": allowed})
}

// Delete handles DELETE /patents/:id.
func (h *PatentHandler) Delete(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.patents.Delete(c.Request.Context(), p, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
