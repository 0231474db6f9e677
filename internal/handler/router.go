package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"bookingcore/internal/handler/api"
	"bookingcore/internal/handler/middleware"
	"bookingcore/internal/pkg/config"
)

type route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
	Mw      []gin.HandlerFunc
}

func NewRouter(
	engine *gin.Engine,
	cfg config.Config,
	bookingHandler *api.BookingHandler,
	settlementHandler *api.SettlementHandler,
	availabilityHandler *api.AvailabilityHandler,
	jobsHandler *api.JobsHandler,
	authMiddleware *middleware.AuthMiddleware,
) {
	setupMiddleware(engine, cfg)
	setupRoutes(engine, bookingHandler, settlementHandler, availabilityHandler, jobsHandler, authMiddleware)
}

func setupMiddleware(engine *gin.Engine, cfg config.Config) {
	// Recovery must be first (outermost) to catch panics from all other middleware
	engine.Use(middleware.CustomRecovery())
	engine.Use(middleware.NewCORSMiddleware(cfg.CORS))
	engine.Use(middleware.LoggingMiddleware(nil, cfg.Log))
	engine.Use(middleware.ErrorHandler())
}

func setupRoutes(
	engine *gin.Engine,
	bookingHandler *api.BookingHandler,
	settlementHandler *api.SettlementHandler,
	availabilityHandler *api.AvailabilityHandler,
	jobsHandler *api.JobsHandler,
	authMiddleware *middleware.AuthMiddleware,
) {
	engine.GET("/health", healthCheck)

	if gin.Mode() == gin.DebugMode {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	apiGroup := engine.Group("/api")
	apiGroup.Use(authMiddleware.RequireTenant())
	{
		bookings := apiGroup.Group("/bookings")
		{
			addRoutes(bookings, []route{
				{Method: http.MethodPost, Path: "", Handler: bookingHandler.CreateBooking},
				{Method: http.MethodGet, Path: "", Handler: bookingHandler.ListAppointments},
				{Method: http.MethodGet, Path: "/:id", Handler: bookingHandler.GetBooking},
				{Method: http.MethodPost, Path: "/:id/reschedule", Handler: bookingHandler.RescheduleBooking},
				{Method: http.MethodPost, Path: "/:id/cancel", Handler: bookingHandler.CancelBooking},
			})
		}

		settlement := apiGroup.Group("/settlement")
		{
			addRoutes(settlement, []route{
				{Method: http.MethodPost, Path: "/deposit/calculate", Handler: settlementHandler.CalculateDeposit},
				{Method: http.MethodPost, Path: "/bookings/:id/deposit/complete", Handler: settlementHandler.CompleteDeposit},
				{Method: http.MethodPost, Path: "/bookings/:id/balance/prepare", Handler: settlementHandler.PrepareBalance},
				{Method: http.MethodPost, Path: "/bookings/:id/balance/checkout", Handler: settlementHandler.StartBalanceCheckout},
				{Method: http.MethodPost, Path: "/bookings/:id/balance/complete", Handler: settlementHandler.CompleteBalance},
				{Method: http.MethodPost, Path: "/bookings/:id/refund", Handler: settlementHandler.RefundBooking},
			})
		}

		availability := apiGroup.Group("/availability")
		{
			addRoutes(availability, []route{
				{Method: http.MethodGet, Path: "/date", Handler: availabilityHandler.CheckDate},
				{Method: http.MethodGet, Path: "/unavailable-dates", Handler: availabilityHandler.UnavailableDates},
				{Method: http.MethodGet, Path: "/timeslots", Handler: availabilityHandler.TimeslotBookings},
			})
		}

		jobs := apiGroup.Group("/jobs")
		{
			addRoutes(jobs, []route{
				{Method: http.MethodPost, Path: "/reminders/dispatch", Handler: jobsHandler.DispatchReminders},
			})
		}
	}
}

// @Summary Health check
// @Description Check if the service is healthy
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Service is healthy",
	})
}

func addRoutes(g *gin.RouterGroup, rs []route) {
	for _, r := range rs {
		h := r.Handler
		if len(r.Mw) > 0 {
			h = chainHandlers(append(r.Mw, r.Handler)...)
		}
		switch r.Method {
		case http.MethodGet:
			g.GET(r.Path, h)
		case http.MethodPost:
			g.POST(r.Path, h)
		case http.MethodPut:
			g.PUT(r.Path, h)
		case http.MethodPatch:
			g.PATCH(r.Path, h)
		case http.MethodDelete:
			g.DELETE(r.Path, h)
		default:
			g.Any(r.Path, h)
		}
	}
}

func chainHandlers(hs ...gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range hs {
			h(c)
			if c.IsAborted() {
				return
			}
		}
	}
}
