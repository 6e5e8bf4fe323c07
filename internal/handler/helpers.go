package handler

import (
	"context"
	"errors"
	"math"
	"net/http"
	"reflect"

	"gstbilling/internal/apierror"
	"gstbilling/internal/infra"
	"gstbilling/internal/invoice"
	"gstbilling/internal/middleware"
	"gstbilling/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	// Out of range values become NaN, which fails every min/max bound, and are
	// never handed to Float64 (it expands the exponent).
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			if !invoice.InRange(v) {
				return math.NaN()
			}
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails;
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(apierror.MsgInvalidBody+": "+err.Error()))
		return false
	}
	return validateStruct(c, req)
}

// bindQuery is bindAndValidate for query-string filters.
func bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return false
	}
	return validateStruct(c, req)
}

func validateStruct(c *gin.Context, req interface{}) bool {
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
			return false
		}
		fields := make(map[string]string)
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// uuidParam parses the named path parameter, writing 400 on failure.
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(apierror.MsgInvalidID))
		return uuid.Nil, false
	}
	return id, true
}

// currentUserID returns the authenticated user's id, if any.
func currentUserID(c *gin.Context) *uuid.UUID {
	claims := middleware.GetClaims(c)
	if claims == nil {
		return nil
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil
	}
	return &id
}

// respondError maps domain errors to HTTP statuses. Anything unrecognised is
// attached to the context so that middleware.ErrorHandler logs it and answers
// with a generic 500.
func respondError(c *gin.Context, err error) {
	status := 0
	switch {
	case errors.Is(err, service.ErrBillNotFound),
		errors.Is(err, service.ErrPredefinedItemNotFound),
		errors.Is(err, service.ErrDraftNotFound),
		errors.Is(err, invoice.ErrItemNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrDuplicateInvoiceNo),
		errors.Is(err, service.ErrUserExists),
		errors.Is(err, invoice.ErrLastItem):
		status = http.StatusConflict
	case errors.Is(err, invoice.ErrRequiredFields),
		errors.Is(err, invoice.ErrUnknownField),
		errors.Is(err, service.ErrInvalidDate),
		errors.Is(err, service.ErrNoItems),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, infra.ErrAmountOutOfRange):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidToken):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrEmailDisabled),
		errors.Is(err, service.ErrQueueUnavailable),
		errors.Is(err, infra.ErrCircuitOpen):
		status = http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, apierror.New("Timed out, please retry"))
		return
	}
	if status == 0 {
		_ = c.Error(err)
		return
	}
	c.JSON(status, apierror.New(err.Error()))
}
