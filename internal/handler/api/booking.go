package api

import (
	"errors"
	"net/http"

	reqdto "bookingcore/internal/handler/dto/request"
	resdto "bookingcore/internal/handler/dto/response"
	"bookingcore/internal/handler/middleware"
	"bookingcore/internal/pkg/errs"
	"bookingcore/internal/usecase/commands"
	"bookingcore/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type BookingHandler struct {
	bookings *commands.BookingUsecase
	reads    *queries.BookingQueryService
}

func NewBookingHandler(bookings *commands.BookingUsecase, reads *queries.BookingQueryService) *BookingHandler {
	return &BookingHandler{
		bookings: bookings,
		reads:    reads,
	}
}

// @Summary Create booking
// @Description Create a DATE or TIMESLOT booking under the advisory-lock protocol
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.CreateBookingRequest true "Booking request"
// @Success 201 {object} resdto.CreateBookingResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /bookings [post]
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	var req reqdto.CreateBookingRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	result, err := h.bookings.CreateBooking(c.Request.Context(), req.ToInput(tenantID))
	if err != nil {
		h.writeBookingError(c, err)
		return
	}

	// Conflict and lock timeout are tagged outcomes, not errors: the client
	// picks another slot or retries once.
	switch result.Status {
	case commands.CreateStatusConflict:
		c.JSON(http.StatusConflict, gin.H{
			"error":  "Requested date or slot is already booked",
			"status": string(result.Status),
		})
	case commands.CreateStatusLockTimeout:
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":  "Could not acquire the booking slot in time, retry shortly",
			"status": string(result.Status),
		})
	default:
		c.JSON(http.StatusCreated, resdto.FromCreateResult(result))
	}
}

// @Summary Get booking
// @Description Get booking by ID
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} resdto.BookingResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /bookings/{id} [get]
func (h *BookingHandler) GetBooking(c *gin.Context) {
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

	view, err := h.reads.GetBooking(c.Request.Context(), tenantID, id)
	if err != nil {
		if errors.Is(err, errs.ErrBookingNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, resdto.FromBookingView(view))
}

// @Summary List appointments
// @Description List bookings with filters; page defaults to 100 rows, capped at 500 and a 90-day span
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Success 200 {array} resdto.AppointmentResponse
// @Router /bookings [get]
func (h *BookingHandler) ListAppointments(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	filter, err := parseAppointmentFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	items, err := h.reads.ListAppointments(c.Request.Context(), tenantID, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, resdto.FromAppointmentItems(items))
}

// @Summary Reschedule booking
// @Description Move a booking to a new date, re-running the lock-then-check protocol
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Param request body reqdto.RescheduleBookingRequest true "Reschedule request"
// @Success 200 {object} resdto.BookingResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /bookings/{id}/reschedule [post]
func (h *BookingHandler) RescheduleBooking(c *gin.Context) {
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

	var req reqdto.RescheduleBookingRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	b, err := h.bookings.RescheduleBooking(c.Request.Context(), commands.RescheduleBookingInput{
		TenantID:  tenantID,
		BookingID: id,
		NewDate:   req.NewDate,
		NewStart:  req.NewStart,
		NewEnd:    req.NewEnd,
	})
	if err != nil {
		h.writeBookingError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromBookingEntity(b))
}

// @Summary Cancel booking
// @Description Cancel a booking; the row stays for audit, the slot is released
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} resdto.BookingResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /bookings/{id}/cancel [post]
func (h *BookingHandler) CancelBooking(c *gin.Context) {
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

	b, err := h.bookings.CancelBooking(c.Request.Context(), tenantID, id)
	if err != nil {
		h.writeBookingError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromBookingEntity(b))
}

func (h *BookingHandler) writeBookingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errs.ErrBookingNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
	case errors.Is(err, errs.ErrTenantNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Tenant not found"})
	case errors.Is(err, errs.ErrServiceNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Service not found"})
	case errors.Is(err, errs.ErrPackageNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Package not found"})
	case errors.Is(err, errs.ErrBookingConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Requested date or slot is already booked"})
	case errors.Is(err, errs.ErrBookingLockTimeout):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Could not acquire the booking slot in time, retry shortly"})
	case errors.Is(err, errs.ErrBookingAlreadyCancelled):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Booking is cancelled or in a terminal status"})
	case errors.Is(err, errs.ErrDomainValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "detail": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
