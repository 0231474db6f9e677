package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	resdto "bookingcore/internal/handler/dto/response"
	"bookingcore/internal/handler/middleware"
	"bookingcore/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AvailabilityHandler struct {
	reads *queries.BookingQueryService
}

func NewAvailabilityHandler(reads *queries.BookingQueryService) *AvailabilityHandler {
	return &AvailabilityHandler{reads: reads}
}

// @Summary Check date availability
// @Description Advisory check whether a DATE booking can target this date; the write re-validates under lock
// @Tags availability
// @Produce json
// @Security BearerAuth
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} map[string]bool
// @Failure 400 {object} map[string]string
// @Router /availability/date [get]
func (h *AvailabilityHandler) CheckDate(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	date, err := time.Parse(time.DateOnly, c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date, expected YYYY-MM-DD"})
		return
	}

	available, err := h.reads.IsDateAvailable(c.Request.Context(), tenantID, date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"available": available})
}

// @Summary List unavailable dates
// @Description Batched occupied-date lookup for calendar rendering
// @Tags availability
// @Produce json
// @Security BearerAuth
// @Param from query string false "Window start (YYYY-MM-DD)"
// @Param to query string false "Window end (YYYY-MM-DD)"
// @Success 200 {object} map[string][]string
// @Router /availability/unavailable-dates [get]
func (h *AvailabilityHandler) UnavailableDates(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	from, to, err := parseDateWindow(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dates, err := h.reads.UnavailableDates(c.Request.Context(), tenantID, from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"unavailableDates": dates})
}

// @Summary List timeslot bookings
// @Description Active timeslot bookings for a service on a date, for slot grid rendering
// @Tags availability
// @Produce json
// @Security BearerAuth
// @Param serviceId query string true "Service ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {array} resdto.TimeslotResponse
// @Failure 400 {object} map[string]string
// @Router /availability/timeslots [get]
func (h *AvailabilityHandler) TimeslotBookings(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	serviceID, err := uuid.Parse(c.Query("serviceId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid service ID format"})
		return
	}
	date, err := time.Parse(time.DateOnly, c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date, expected YYYY-MM-DD"})
		return
	}

	views, err := h.reads.TimeslotBookings(c.Request.Context(), tenantID, serviceID, date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, resdto.FromTimeslotViews(views))
}

func parseDateWindow(c *gin.Context) (time.Time, time.Time, error) {
	var from, to time.Time
	var err error
	if s := c.Query("from"); s != "" {
		from, err = time.Parse(time.DateOnly, s)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("invalid 'from' date, expected YYYY-MM-DD")
		}
	}
	if s := c.Query("to"); s != "" {
		to, err = time.Parse(time.DateOnly, s)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("invalid 'to' date, expected YYYY-MM-DD")
		}
	}
	return from, to, nil
}

func parseAppointmentFilter(c *gin.Context) (queries.AppointmentFilter, error) {
	var filter queries.AppointmentFilter

	if s := c.Query("from"); s != "" {
		t, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return filter, errors.New("invalid 'from' date, expected YYYY-MM-DD")
		}
		filter.From = &t
	}
	if s := c.Query("to"); s != "" {
		t, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return filter, errors.New("invalid 'to' date, expected YYYY-MM-DD")
		}
		filter.To = &t
	}
	if s := c.Query("serviceId"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			return filter, errors.New("invalid service ID format")
		}
		filter.ServiceID = &id
	}
	if s := c.Query("status"); s != "" {
		filter.Status = &s
	}
	if s := c.Query("limit"); s != "" {
		v, err := strconv.ParseInt(s, 10, 32)
		if err != nil || v < 0 {
			return filter, errors.New("invalid limit")
		}
		filter.Limit = int32(v)
	}
	if s := c.Query("offset"); s != "" {
		v, err := strconv.ParseInt(s, 10, 32)
		if err != nil || v < 0 {
			return filter, errors.New("invalid offset")
		}
		filter.Offset = int32(v)
	}

	return filter, nil
}
