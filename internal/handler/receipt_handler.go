package handler

import (
	"bytes"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"kvitto/internal/csvexport"
	"kvitto/internal/domain"
	"kvitto/internal/export"
	"kvitto/internal/service"
)

// ReceiptHandler handles receipt extraction, reconciliation, and export endpoints.
type ReceiptHandler struct {
	svc service.ExtractionService
}

// NewReceiptHandler creates a new ReceiptHandler.
func NewReceiptHandler(svc service.ExtractionService) *ReceiptHandler {
	return &ReceiptHandler{svc: svc}
}

// Extract handles POST /api/v1/receipts/extract.
// Expects a multipart form with an "image" file, optional "locale" and
// "preprocessed" fields.
func (h *ReceiptHandler) Extract(c *gin.Context) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_IMAGE", "multipart field 'image' is required")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "UNREADABLE_IMAGE", "could not open uploaded image")
		return
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "UNREADABLE_IMAGE", "could not read uploaded image")
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if _, ok := domain.AllowedContentTypes[contentType]; !ok {
		contentType = contentTypeFromName(fileHeader.Filename)
	}

	result, err := h.svc.Extract(c.Request.Context(), &service.ExtractInput{
		ImageBytes:   data,
		ContentType:  contentType,
		Locale:       c.PostForm("locale"),
		Preprocessed: c.PostForm("preprocessed") == "true",
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, result)
}

// Reconcile handles POST /api/v1/receipts/reconcile.
// Runs the reconciliation engine over a posted draft without any network calls.
func (h *ReceiptHandler) Reconcile(c *gin.Context) {
	var draft domain.DraftReceipt
	if err := c.ShouldBindJSON(&draft); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_DRAFT", "request body does not match the draft receipt shape")
		return
	}

	RespondOK(c, h.svc.Reconcile(draft))
}

// ExportRequest is the body for POST /api/v1/receipts/export.
type ExportRequest struct {
	Format   string                     `json:"format"` // "csv" or "xlsx"
	Name     string                     `json:"name"`
	Receipts []domain.ReconciledReceipt `json:"receipts"`
}

// Export handles POST /api/v1/receipts/export.
func (h *ReceiptHandler) Export(c *gin.Context) {
	var req ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_EXPORT_REQUEST", "request body is not valid export JSON")
		return
	}
	if len(req.Receipts) == 0 {
		RespondError(c, http.StatusBadRequest, "EMPTY_EXPORT", "no receipts to export")
		return
	}

	switch strings.ToLower(req.Format) {
	case "", "csv":
		var buf bytes.Buffer
		buf.Write(csvexport.BOM)
		w := csvexport.NewWriter(&buf)
		if err := w.WriteHeader(); err != nil {
			HandleError(c, err)
			return
		}
		if err := w.WriteReceipts(req.Receipts); err != nil {
			HandleError(c, err)
			return
		}
		w.Flush()
		if err := w.Error(); err != nil {
			HandleError(c, err)
			return
		}
		filename := csvexport.BuildFilename(req.Name, "csv")
		c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
		c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
	case "xlsx":
		data, err := export.ReceiptsXLSX(req.Receipts)
		if err != nil {
			HandleError(c, err)
			return
		}
		filename := csvexport.BuildFilename(req.Name, "xlsx")
		c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
	default:
		RespondError(c, http.StatusBadRequest, "UNSUPPORTED_FORMAT", "export format must be csv or xlsx")
	}
}

func contentTypeFromName(name string) string {
	switch strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".") {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	default:
		return ""
	}
}
