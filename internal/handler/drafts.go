package handler

import (
	"net/http"
	"strconv"

	"gstbilling/internal/apierror"
	"gstbilling/internal/dto"
	"gstbilling/internal/invoice"
	"gstbilling/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DraftsHandler exposes the line-item editor. Each mutation answers with the
// whole draft so the client can redraw items and totals in one pass;
// words_pending tells it that amount_in_words is still being computed.
type DraftsHandler struct{ svc service.DraftService }

func NewDraftsHandler(svc service.DraftService) *DraftsHandler { return &DraftsHandler{svc: svc} }

func itemIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("item_id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, apierror.New(apierror.MsgInvalidID))
		return 0, false
	}
	return id, true
}

// Create godoc
// @Summary      Open an editing session
// @Description  Without bill_id a blank invoice with a generated number is started; with it the saved bill is loaded for editing.
// @Tags         drafts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreateDraftRequest false "Source bill"
// @Success      201 {object} dto.DraftResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/drafts [post]
func (h *DraftsHandler) Create(c *gin.Context) {
	var req dto.CreateDraftRequest
	if c.Request.ContentLength > 0 && !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Get godoc
// @Summary      Current state of a draft
// @Tags         drafts
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Draft ID"
// @Success      200 {object} dto.DraftResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/drafts/{id} [get]
func (h *DraftsHandler) Get(c *gin.Context) {
	resp, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateHeader godoc
// @Summary      Replace the invoice header of a draft
// @Tags         drafts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                 true "Draft ID"
// @Param        body body dto.DraftHeaderRequest true "Header"
// @Success      200 {object} dto.DraftResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/drafts/{id}/header [put]
func (h *DraftsHandler) UpdateHeader(c *gin.Context) {
	var req dto.DraftHeaderRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateHeader(c.Request.Context(), c.Param("id"), req.Header())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AddItem godoc
// @Summary      Append a line
// @Description  With predefined_item_id the line is prefilled from the catalog and priced at quantity 1; otherwise a blank line with 9% CGST and SGST is added.
// @Tags         drafts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                  true  "Draft ID"
// @Param        body body dto.AddDraftItemRequest false "Template"
// @Success      200 {object} dto.DraftResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/drafts/{id}/items [post]
func (h *DraftsHandler) AddItem(c *gin.Context) {
	var req dto.AddDraftItemRequest
	if c.Request.ContentLength > 0 && !bindAndValidate(c, &req) {
		return
	}
	var templateID *uuid.UUID
	if req.PredefinedItemID != nil && *req.PredefinedItemID != "" {
		id, err := uuid.Parse(*req.PredefinedItemID)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New(apierror.MsgInvalidID))
			return
		}
		templateID = &id
	}
	resp, err := h.svc.AddItem(c.Request.Context(), c.Param("id"), templateID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateItem godoc
// @Summary      Edit one field of a line
// @Description  Numeric edits reprice the line and the document; name and hsn edits do not. Unparseable numbers count as 0.
// @Tags         drafts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path string                     true "Draft ID"
// @Param        item_id path int                        true "Line ID"
// @Param        body    body dto.UpdateDraftItemRequest true "Field and raw value"
// @Success      200 {object} dto.DraftResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/drafts/{id}/items/{item_id} [patch]
func (h *DraftsHandler) UpdateItem(c *gin.Context) {
	itemID, ok := itemIDParam(c)
	if !ok {
		return
	}
	var req dto.UpdateDraftItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateItem(c.Request.Context(), c.Param("id"), itemID, invoice.Field(req.Field), req.Value)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RemoveItem godoc
// @Summary      Delete a line
// @Description  The last remaining line cannot be removed.
// @Tags         drafts
// @Produce      json
// @Security     BearerAuth
// @Param        id      path string true "Draft ID"
// @Param        item_id path int    true "Line ID"
// @Success      200 {object} dto.DraftResponse
// @Failure      404 {object} apierror.APIError
// @Failure      409 {object} apierror.APIError
// @Router       /v1/drafts/{id}/items/{item_id} [delete]
func (h *DraftsHandler) RemoveItem(c *gin.Context) {
	itemID, ok := itemIDParam(c)
	if !ok {
		return
	}
	resp, err := h.svc.RemoveItem(c.Request.Context(), c.Param("id"), itemID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Submit godoc
// @Summary      Save the draft as a bill
// @Description  Waits for amount_in_words, validates required fields, then creates or updates the bill. The draft survives a failed submit.
// @Tags         drafts
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Draft ID"
// @Success      201 {object} dto.BillResponse
// @Failure      400 {object} apierror.APIError
// @Failure      404 {object} apierror.APIError
// @Failure      409 {object} apierror.APIError
// @Router       /v1/drafts/{id}/submit [post]
func (h *DraftsHandler) Submit(c *gin.Context) {
	resp, err := h.svc.Submit(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Discard godoc
// @Summary      Drop a draft without saving
// @Tags         drafts
// @Security     BearerAuth
// @Param        id path string true "Draft ID"
// @Success      204
// @Failure      404 {object} apierror.APIError
// @Router       /v1/drafts/{id} [delete]
func (h *DraftsHandler) Discard(c *gin.Context) {
	if err := h.svc.Discard(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
