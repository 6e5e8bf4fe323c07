package handler

import (
	"net/http"

	"gstbilling/internal/dto"
	"gstbilling/internal/service"

	"github.com/gin-gonic/gin"
)

type PredefinedItemsHandler struct{ svc service.PredefinedItemService }

func NewPredefinedItemsHandler(svc service.PredefinedItemService) *PredefinedItemsHandler {
	return &PredefinedItemsHandler{svc: svc}
}

// List godoc
// @Summary List catalog items
// @Tags predefined-items
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.PredefinedItemResponse
// @Router /v1/predefined-items [get]
func (h *PredefinedItemsHandler) List(c *gin.Context) {
	resp, err := h.svc.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Create godoc
// @Summary Add a catalog item
// @Description Omitted tax rates default to 9% CGST and 9% SGST.
// @Tags predefined-items
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.PredefinedItemRequest true "Item"
// @Success 201 {object} dto.PredefinedItemResponse
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/predefined-items [post]
func (h *PredefinedItemsHandler) Create(c *gin.Context) {
	var req dto.PredefinedItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Update godoc
// @Summary Update a catalog item
// @Tags predefined-items
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Item UUID"
// @Param body body dto.PredefinedItemRequest true "Item"
// @Success 200 {object} dto.PredefinedItemResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/predefined-items/{id} [put]
func (h *PredefinedItemsHandler) Update(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.PredefinedItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Delete godoc
// @Summary Delete a catalog item
// @Tags predefined-items
// @Security BearerAuth
// @Param id path string true "Item UUID"
// @Success 204
// @Failure 404 {object} apierror.APIError
// @Router /v1/predefined-items/{id} [delete]
func (h *PredefinedItemsHandler) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
