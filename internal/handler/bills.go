package handler

import (
	"fmt"
	"net/http"

	"gstbilling/internal/dto"
	"gstbilling/internal/service"

	"github.com/gin-gonic/gin"
)

type BillsHandler struct{ svc service.BillService }

func NewBillsHandler(svc service.BillService) *BillsHandler { return &BillsHandler{svc: svc} }

// Create godoc
// @Summary      Save a new bill
// @Description  Recomputes every line and the document totals, fills amount_in_words when missing and queues PDF rendering.
// @Tags         bills
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.BillRequest true "Invoice"
// @Success      201  {object} dto.BillResponse
// @Failure      400  {object} apierror.APIError
// @Failure      409  {object} apierror.APIError
// @Failure      422  {object} apierror.ValidationError
// @Router       /v1/bills [post]
func (h *BillsHandler) Create(c *gin.Context) {
	var req dto.BillRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), currentUserID(c), req.Submission())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// List godoc
// @Summary      List bills
// @Description  Newest first. q matches customer name or invoice number, case-insensitive.
// @Tags         bills
// @Produce      json
// @Security     BearerAuth
// @Param        q              query string false "Search term"
// @Param        payment_status query string false "credit | paid | all"
// @Param        page           query int    false "Page (default 1)"
// @Param        limit          query int    false "Page size (default 50)"
// @Success      200 {object} dto.BillListResponse
// @Router       /v1/bills [get]
func (h *BillsHandler) List(c *gin.Context) {
	var filter dto.BillFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary      Get a bill with its items
// @Tags         bills
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Bill UUID"
// @Success      200 {object} dto.BillResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/bills/{id} [get]
func (h *BillsHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Update godoc
// @Summary      Replace a bill
// @Tags         bills
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string          true "Bill UUID"
// @Param        body body dto.BillRequest true "Invoice"
// @Success      200  {object} dto.BillResponse
// @Failure      404  {object} apierror.APIError
// @Failure      409  {object} apierror.APIError
// @Router       /v1/bills/{id} [put]
func (h *BillsHandler) Update(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.BillRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), id, req.Submission())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Delete godoc
// @Summary      Delete a bill (admin)
// @Tags         bills
// @Security     BearerAuth
// @Param        id path string true "Bill UUID"
// @Success      204
// @Failure      404 {object} apierror.APIError
// @Router       /v1/bills/{id} [delete]
func (h *BillsHandler) Delete(c *gin.Context) {
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

// UpdatePaymentStatus godoc
// @Summary      Mark a bill paid or back to credit
// @Description  paid stamps today's payment date; credit clears it.
// @Tags         bills
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                   true "Bill UUID"
// @Param        body body dto.PaymentStatusRequest true "Status"
// @Success      200  {object} dto.BillResponse
// @Failure      404  {object} apierror.APIError
// @Router       /v1/bills/{id}/payment-status [put]
func (h *BillsHandler) UpdatePaymentStatus(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.PaymentStatusRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdatePaymentStatus(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PDF godoc
// @Summary      Download the tax invoice PDF
// @Tags         bills
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        id path string true "Bill UUID"
// @Success      200 {file} binary
// @Failure      404 {object} apierror.APIError
// @Router       /v1/bills/{id}/pdf [get]
func (h *BillsHandler) PDF(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	name, content, err := h.svc.RenderPDF(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, "application/pdf", content)
}

// Email godoc
// @Summary      Email the tax invoice PDF
// @Tags         bills
// @Accept       json
// @Security     BearerAuth
// @Param        id   path string               true "Bill UUID"
// @Param        body body dto.EmailBillRequest true "Recipient"
// @Success      202
// @Failure      404 {object} apierror.APIError
// @Failure      503 {object} apierror.APIError
// @Router       /v1/bills/{id}/email [post]
func (h *BillsHandler) Email(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.EmailBillRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.Email(c.Request.Context(), id, req.To); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}
