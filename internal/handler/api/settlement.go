package api

import (
	"errors"
	"net/http"

	reqdto "bookingcore/internal/handler/dto/request"
	resdto "bookingcore/internal/handler/dto/response"
	"bookingcore/internal/handler/middleware"
	"bookingcore/internal/pkg/errs"
	"bookingcore/internal/usecase/commands"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type SettlementHandler struct {
	settlement *commands.SettlementUsecase
}

func NewSettlementHandler(settlement *commands.SettlementUsecase) *SettlementHandler {
	return &SettlementHandler{settlement: settlement}
}

// @Summary Calculate deposit
// @Description Compute the deposit/balance split for a priced booking from stored tenant configuration
// @Tags settlement
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.CalculateDepositRequest true "Deposit calculation request"
// @Success 200 {object} resdto.DepositSplitResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /settlement/deposit/calculate [post]
func (h *SettlementHandler) CalculateDeposit(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var req reqdto.CalculateDepositRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	split, err := h.settlement.CalculateDeposit(c.Request.Context(), commands.CalculateDepositInput{
		TenantID:       tenantID,
		BasePriceCents: req.BasePriceCents,
		AddOnIDs:       req.AddOnIDs,
	})
	if err != nil {
		h.writeSettlementError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromDepositSplit(split))
}

// @Summary Complete deposit payment
// @Description Record a charged deposit and move the booking to DEPOSIT_PAID
// @Tags settlement
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Param request body reqdto.CompleteDepositRequest true "Deposit completion"
// @Success 200 {object} resdto.BookingResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /settlement/bookings/{id}/deposit/complete [post]
func (h *SettlementHandler) CompleteDeposit(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking ID format"})
		return
	}

	var req reqdto.CompleteDepositRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	b, err := h.settlement.CompleteDepositPayment(c.Request.Context(), tenantID, id, req.AmountCents, req.PaymentRef)
	if err != nil {
		h.writeSettlementError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromBookingEntity(b))
}

// @Summary Prepare balance payment
// @Description Validate that a balance is collectible and return amount, commission share, and checkout metadata
// @Tags settlement
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} resdto.BalancePlanResponse
// @Failure 404 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /settlement/bookings/{id}/balance/prepare [post]
func (h *SettlementHandler) PrepareBalance(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking ID format"})
		return
	}

	plan, err := h.settlement.PrepareBalancePayment(c.Request.Context(), tenantID, id)
	if err != nil {
		h.writeSettlementError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromBalancePlan(plan))
}

// @Summary Start balance checkout
// @Description Open a provider checkout session for the outstanding balance, commission riding as the application fee
// @Tags settlement
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Param request body reqdto.StartBalanceCheckoutRequest true "Checkout options"
// @Success 200 {object} resdto.CheckoutSessionResponse
// @Failure 404 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /settlement/bookings/{id}/balance/checkout [post]
func (h *SettlementHandler) StartBalanceCheckout(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking ID format"})
		return
	}

	var req reqdto.StartBalanceCheckoutRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	session, err := h.settlement.StartBalanceCheckout(c.Request.Context(), tenantID, id, req.ConnectedAccountID)
	if err != nil {
		h.writeSettlementError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromCheckoutSession(session))
}

// @Summary Complete balance payment
// @Description Apply the balance payment idempotently; a duplicated webhook gets the settled booking back unchanged
// @Tags settlement
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Param request body reqdto.CompleteBalanceRequest true "Balance completion"
// @Success 200 {object} resdto.BookingResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /settlement/bookings/{id}/balance/complete [post]
func (h *SettlementHandler) CompleteBalance(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking ID format"})
		return
	}

	var req reqdto.CompleteBalanceRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	b, err := h.settlement.CompleteBalancePayment(c.Request.Context(), tenantID, id, req.AmountCents)
	if err != nil {
		h.writeSettlementError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromBookingEntity(b))
}

// @Summary Refund booking
// @Description Refund paid amounts through the provider; the commission reversal is recomputed server-side
// @Tags settlement
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Param request body reqdto.RefundBookingRequest true "Refund request"
// @Success 200 {object} resdto.RefundResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /settlement/bookings/{id}/refund [post]
func (h *SettlementHandler) RefundBooking(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking ID format"})
		return
	}

	var req reqdto.RefundBookingRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	result, err := h.settlement.RefundBooking(c.Request.Context(), commands.RefundBookingInput{
		TenantID:    tenantID,
		BookingID:   id,
		AmountCents: req.AmountCents,
		Reason:      req.Reason,
	})
	if err != nil {
		h.writeSettlementError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromRefundResult(result))
}

func (h *SettlementHandler) writeSettlementError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errs.ErrBookingNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
	case errors.Is(err, errs.ErrTenantNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Tenant not found"})
	case errors.Is(err, errs.ErrCustomerNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Customer not found"})
	case errors.Is(err, errs.ErrDepositNotPaid):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "No deposit has been paid for this booking"})
	case errors.Is(err, errs.ErrBalanceAlreadyPaid):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Balance is already settled"})
	case errors.Is(err, errs.ErrNothingToCollect):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Deposit covered the full amount"})
	case errors.Is(err, errs.ErrRefundNotAllowed):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Refund is not allowed for this booking"})
	case errors.Is(err, errs.ErrBookingAlreadyCancelled):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Booking is cancelled or in a terminal status"})
	case errors.Is(err, errs.ErrBookingLockTimeout):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Could not acquire the booking in time, retry shortly"})
	case errors.Is(err, errs.ErrPaymentProviderFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Payment provider request failed"})
	case errors.Is(err, errs.ErrDomainValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "detail": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
