package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/fiscal/backend/internal/application/fiscalimport"
	"github.com/fiscal/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// FiscalImportHandler exposes the document import pipeline over HTTP
type FiscalImportHandler struct {
	BaseHandler
	importService *fiscalimport.ImportService
	reconciler    *fiscalimport.ReconciliationService
	maxFileSize   int64
}

// NewFiscalImportHandler creates a new FiscalImportHandler
func NewFiscalImportHandler(
	importService *fiscalimport.ImportService,
	reconciler *fiscalimport.ReconciliationService,
	maxFileSize int64,
) *FiscalImportHandler {
	if maxFileSize <= 0 {
		maxFileSize = 5 << 20
	}
	return &FiscalImportHandler{
		importService: importService,
		reconciler:    reconciler,
		maxFileSize:   maxFileSize,
	}
}

// RegisterRoutes registers fiscal import routes
func (h *FiscalImportHandler) RegisterRoutes(rg *gin.RouterGroup) {
	imports := rg.Group("/fiscal/imports")
	{
		imports.POST("", h.Upload)
		imports.POST("/url", h.ImportFromURL)
		imports.POST("/batch", h.UploadBatch)
		imports.GET("", h.List)
		imports.GET("/:id", h.Get)
		imports.POST("/:id/mappings", h.ValidateMappings)
		imports.POST("/:id/complete", h.Complete)
	}
}

// readUpload reads one multipart file, bounded by the configured size
func (h *FiscalImportHandler) readUpload(file *multipart.FileHeader) ([]byte, error) {
	if file.Size > h.maxFileSize {
		return nil, errors.New("file exceeds the maximum allowed size")
	}
	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, h.maxFileSize))
}

// Upload godoc
// @Summary      Import a fiscal document
// @Description  Imports one XML document uploaded as multipart form data
// @Tags         fiscal
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file true "Document XML"
// @Success      201 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Router       /fiscal/imports [post]
func (h *FiscalImportHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		h.BadRequest(c, "A document file is required")
		return
	}

	data, err := h.readUpload(file)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.importService.ImportXML(c.Request.Context(), data, getOperatorID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// ImportFromURLRequest is the payload for URL-based imports
type ImportFromURLRequest struct {
	URL string `json:"url" binding:"required,url"`
}

// ImportFromURL godoc
// @Summary      Import a fiscal document from a URL
// @Tags         fiscal
// @Accept       json
// @Produce      json
// @Param        request body ImportFromURLRequest true "Document location"
// @Success      201 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Failure      502 {object} dto.Response
// @Router       /fiscal/imports/url [post]
func (h *FiscalImportHandler) ImportFromURL(c *gin.Context) {
	var req ImportFromURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "A valid document URL is required")
		return
	}

	result, err := h.importService.ImportFromURL(c.Request.Context(), req.URL, getOperatorID(c))
	if err != nil {
		var fetchErr *fiscalimport.FetchError
		if errors.As(err, &fetchErr) {
			h.Error(c, http.StatusBadGateway, dto.ErrCodeFetchFailed, fetchErr.Error())
			return
		}
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// UploadBatch godoc
// @Summary      Import several fiscal documents at once
// @Description  Each file is imported independently; one failing file does not
//               abort the rest. The response reports every file in input order.
// @Tags         fiscal
// @Accept       multipart/form-data
// @Produce      json
// @Param        files formData file true "Document XML files"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Router       /fiscal/imports/batch [post]
func (h *FiscalImportHandler) UploadBatch(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		h.BadRequest(c, "Multipart form data is required")
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		h.BadRequest(c, "At least one document file is required")
		return
	}

	batch := make([]fiscalimport.BatchFile, 0, len(files))
	for _, file := range files {
		data, err := h.readUpload(file)
		if err != nil {
			// Oversized or unreadable files join the batch as failures
			// instead of rejecting the whole request
			batch = append(batch, fiscalimport.BatchFile{Name: file.Filename, Data: nil})
			continue
		}
		batch = append(batch, fiscalimport.BatchFile{Name: file.Filename, Data: data})
	}

	result := h.importService.ImportBatch(c.Request.Context(), batch, getOperatorID(c))
	h.Success(c, result)
}

// ListImportsRequest narrows the import listing
type ListImportsRequest struct {
	dto.ListRequest
	Status       string `form:"status"`
	DocumentType string `form:"document_type"`
	DateFrom     string `form:"date_from"`
	DateTo       string `form:"date_to"`
}

// List godoc
// @Summary      List fiscal document imports
// @Tags         fiscal
// @Produce      json
// @Success      200 {object} dto.Response
// @Router       /fiscal/imports [get]
func (h *FiscalImportHandler) List(c *gin.Context) {
	req := ListImportsRequest{ListRequest: dto.DefaultListRequest()}
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "Invalid list parameters")
		return
	}

	query := fiscalimport.ListImportsQuery{
		Status:       req.Status,
		DocumentType: req.DocumentType,
		Search:       req.Search,
		Page:         req.Page,
		PageSize:     req.PageSize,
	}

	if req.DateFrom != "" {
		from, err := time.Parse("2006-01-02", req.DateFrom)
		if err != nil {
			h.BadRequest(c, "date_from must use the YYYY-MM-DD format")
			return
		}
		query.DateFrom = &from
	}
	if req.DateTo != "" {
		to, err := time.Parse("2006-01-02", req.DateTo)
		if err != nil {
			h.BadRequest(c, "date_to must use the YYYY-MM-DD format")
			return
		}
		// Inclusive upper bound: the whole last day counts
		end := to.Add(24*time.Hour - time.Nanosecond)
		query.DateTo = &end
	}

	page, err := h.importService.List(c.Request.Context(), query)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Get godoc
// @Summary      Get one fiscal document import with its items
// @Tags         fiscal
// @Produce      json
// @Param        id path string true "Import ID"
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Router       /fiscal/imports/{id} [get]
func (h *FiscalImportHandler) Get(c *gin.Context) {
	id, ok := h.bindImportID(c)
	if !ok {
		return
	}

	result, err := h.importService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// ValidateMappingsRequest carries operator decisions about pending items
type ValidateMappingsRequest struct {
	Mappings []fiscalimport.ItemMapping `json:"mappings"`
}

// ValidateMappings godoc
// @Summary      Resolve pending items of an import
// @Description  Links pending items to catalog products or creates products
//               from them. An empty mapping list reports the current state.
// @Tags         fiscal
// @Accept       json
// @Produce      json
// @Param        id path string true "Import ID"
// @Param        request body ValidateMappingsRequest true "Item mappings"
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Router       /fiscal/imports/{id}/mappings [post]
func (h *FiscalImportHandler) ValidateMappings(c *gin.Context) {
	id, ok := h.bindImportID(c)
	if !ok {
		return
	}

	var req ValidateMappingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid mappings payload")
		return
	}

	result, err := h.importService.ValidateItemMappings(c.Request.Context(), id, req.Mappings)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Complete godoc
// @Summary      Complete a validated import
// @Description  Applies the economic effects of the document: stock movements
//               for every resolved item and, for entry documents, a payable.
// @Tags         fiscal
// @Produce      json
// @Param        id path string true "Import ID"
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Router       /fiscal/imports/{id}/complete [post]
func (h *FiscalImportHandler) Complete(c *gin.Context) {
	id, ok := h.bindImportID(c)
	if !ok {
		return
	}

	result, err := h.reconciler.CompleteImport(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

func (h *FiscalImportHandler) bindImportID(c *gin.Context) (uuid.UUID, bool) {
	raw := strings.TrimSpace(c.Param("id"))
	id, err := uuid.Parse(raw)
	if err != nil {
		h.BadRequest(c, "Import ID must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}
