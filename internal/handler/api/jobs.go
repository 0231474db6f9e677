package api

import (
	"net/http"

	"bookingcore/internal/usecase/commands"

	"github.com/gin-gonic/gin"
)

// JobsHandler exposes operational sweeps that an external scheduler triggers.
type JobsHandler struct {
	reminders *commands.ReminderUsecase
}

func NewJobsHandler(reminders *commands.ReminderUsecase) *JobsHandler {
	return &JobsHandler{reminders: reminders}
}

// @Summary Dispatch balance reminders
// @Description Emit a reminder event for every booking whose balance is due and not yet reminded
// @Tags jobs
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]int
// @Failure 500 {object} map[string]string
// @Router /jobs/reminders/dispatch [post]
func (h *JobsHandler) DispatchReminders(c *gin.Context) {
	sent, err := h.reminders.DispatchDueReminders(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"dispatched": sent})
}
