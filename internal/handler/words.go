package handler

import (
	"net/http"

	"gstbilling/internal/service"

	"github.com/gin-gonic/gin"
)

type WordsHandler struct{ svc service.WordsService }

func NewWordsHandler(svc service.WordsService) *WordsHandler { return &WordsHandler{svc: svc} }

// Convert godoc
// @Summary      Spell an amount in Indian English
// @Description  Uses lakh and crore grouping, e.g. 150000 is "One Lakh Fifty Thousand Rupees Only".
// @Tags         words
// @Produce      json
// @Param        amount path string true "Decimal amount, at most two places"
// @Success      200 {object} dto.WordsResponse
// @Failure      400 {object} apierror.APIError
// @Failure      503 {object} apierror.APIError
// @Router       /v1/number-to-words/{amount} [get]
func (h *WordsHandler) Convert(c *gin.Context) {
	resp, err := h.svc.Convert(c.Request.Context(), c.Param("amount"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
