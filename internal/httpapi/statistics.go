package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"daily-tracker/internal/repository"
	"daily-tracker/internal/service"
)

func (h *Handler) DailyStatistics(c *gin.Context) {
	user := currentUser(c)
	day, err := queryDate(c, "date", h.svc.Users.Today(*user))
	if err != nil {
		badRequest(c, err)
		return
	}
	stats, err := h.svc.Statistics.Daily(c.Request.Context(), user.ID, day)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// WeeklyStatistics defaults to the seven days ending today.
func (h *Handler) WeeklyStatistics(c *gin.Context) {
	user := currentUser(c)
	end, err := queryDate(c, "end_date", h.svc.Users.Today(*user))
	if err != nil {
		badRequest(c, err)
		return
	}
	defaultStart, _ := service.DefaultWeek(end)
	start, err := queryDate(c, "start_date", defaultStart)
	if err != nil {
		badRequest(c, err)
		return
	}

	week, err := h.svc.Statistics.Weekly(c.Request.Context(), user.ID, start, end)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, week)
}

func (h *Handler) History(c *gin.Context) {
	var filter repository.HistoryFilter

	taskID, err := queryUint(c, "task_id")
	if err != nil {
		badRequest(c, err)
		return
	}
	if taskID != nil {
		filter.TaskID = *taskID
	}
	limit, err := queryUint(c, "limit")
	if err != nil {
		badRequest(c, err)
		return
	}
	if limit != nil {
		filter.Limit = int(*limit)
	}
	if filter.StartDate, err = queryDate(c, "start_date", filter.StartDate); err != nil {
		badRequest(c, err)
		return
	}
	if filter.EndDate, err = queryDate(c, "end_date", filter.EndDate); err != nil {
		badRequest(c, err)
		return
	}

	entries, err := h.svc.Statistics.History(c.Request.Context(), currentUser(c).ID, filter)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": entries})
}
