package handlers

import (
	"encoding/base64"

	"github.com/gin-gonic/gin"

	"github.com/ipfolio/ipfolio/internal/application/importer"
	"github.com/ipfolio/ipfolio/internal/infrastructure/monitoring/logging"
	"github.com/ipfolio/ipfolio/pkg/errors"
)

// ImportHandler accepts parsed spreadsheet rows and runs the reconciliation
// batch. The client-side parser sends families as structured JSON plus,
// optionally, the original file bytes for archiving.
type ImportHandler struct {
	imports importer.Service
	logger  logging.Logger
}

func NewImportHandler(imports importer.Service, logger logging.Logger) *ImportHandler {
	return &ImportHandler{imports: imports, logger: logger.Named("import_handler")}
}

type importRequest struct {
	Filename string               `json:"filename"`
	File     string               `json:"file"` // base64, optional
	Families []importer.RawFamily `json:"families"`
}

// Import handles POST /patents/import/:clientId. Every created patent is
// attached to the client named in the path.
func (h *ImportHandler) Import(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	clientID, ok := pathID(c, "clientId")
	if !ok {
		return
	}

	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.Wrap(err, errors.CodeInvalidParam, "malformed import payload"))
		return
	}
	if len(req.Families) == 0 {
		respondError(c, errors.InvalidParam("import payload contains no families"))
		return
	}

	var upload *importer.Upload
	if req.File != "" {
		data, err := base64.StdEncoding.DecodeString(req.File)
		if err != nil {
			respondError(c, errors.Wrap(err, errors.CodeInvalidParam, "file field is not valid base64"))
			return
		}
		upload = &importer.Upload{Filename: req.Filename, Data: data}
	}

	report, err := h.imports.ImportFamilies(c.Request.Context(), p, clientID, upload, req.Families)
	if err != nil {
		respondError(c, err)
		return
	}

	h.logger.Info("import batch finished",
		logging.Int64("client_id", clientID),
		logging.Int("created", report.Created),
		logging.Int("failed", report.Failed),
	)
	respondOK(c, report)
}

// Preview handles POST /patents/import/preview. It reconciles the families
// without writing anything, so the UI can show what an import would produce.
func (h *ImportHandler) Preview(c *gin.Context) {
	if _, ok := principal(c); !ok {
		return
	}

	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.Wrap(err, errors.CodeInvalidParam, "malformed import payload"))
		return
	}

	type previewEntry struct {
		Reference  string                `json:"reference"`
		Spec       any                   `json:"spec"`
		Unresolved []importer.Unresolved `json:"unresolved,omitempty"`
	}
	out := make([]previewEntry, 0, len(req.Families))
	for _, family := range req.Families {
		spec, unresolved, err := h.imports.ReconcileFamily(c.Request.Context(), family)
		if err != nil {
			respondError(c, err)
			return
		}
		out = append(out, previewEntry{Reference: family.Reference, Spec: spec, Unresolved: unresolved})
	}
	respondOK(c, gin.H{"families": out})
}
