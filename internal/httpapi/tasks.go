package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"daily-tracker/internal/date"
	"daily-tracker/internal/model"
	"daily-tracker/internal/repository"
	"daily-tracker/internal/service"
)

type completionRequest struct {
	Notes          string     `json:"notes"`
	CompletionDate *date.Date `json:"completion_date"`
}

// ListTasks lists the caller's tasks. With ?date it returns only the tasks due that day.
func (h *Handler) ListTasks(c *gin.Context) {
	user := currentUser(c)

	if _, ok := c.GetQuery("date"); ok {
		day, err := queryDate(c, "date", h.svc.Users.Today(*user))
		if err != nil {
			badRequest(c, err)
			return
		}
		tasks, err := h.svc.Tasks.ListForDate(c.Request.Context(), user, day)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"date": day, "tasks": tasks})
		return
	}

	var filter repository.TaskFilter
	var err error
	if filter.CategoryID, err = queryUint(c, "category_id"); err != nil {
		badRequest(c, err)
		return
	}
	if filter.Active, err = queryBool(c, "active"); err != nil {
		badRequest(c, err)
		return
	}
	if raw := c.Query("recurrence"); raw != "" {
		recurrence := model.Recurrence(raw)
		if !recurrence.Valid() {
			h.fail(c, service.ErrInvalidRecurrence)
			return
		}
		filter.Recurrence = &recurrence
	}

	tasks, err := h.svc.Tasks.ListTasks(c.Request.Context(), user, filter)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

func (h *Handler) CreateTask(c *gin.Context) {
	var input service.TaskInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	task, err := h.svc.Tasks.CreateTask(c.Request.Context(), currentUser(c), input)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (h *Handler) GetTask(c *gin.Context) {
	id, err := taskIDParam(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	task, err := h.svc.Tasks.GetTask(c.Request.Context(), currentUser(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *Handler) UpdateTask(c *gin.Context) {
	id, err := taskIDParam(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	var patch service.TaskPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}
	task, err := h.svc.Tasks.UpdateTask(c.Request.Context(), currentUser(c), id, patch)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *Handler) DeleteTask(c *gin.Context) {
	id, err := taskIDParam(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	if err := h.svc.Tasks.DeleteTask(c.Request.Context(), currentUser(c), id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "task deleted"})
}

// CompleteTask records a completion; the date defaults to today in the caller's timezone.
func (h *Handler) CompleteTask(c *gin.Context) {
	id, day, req, ok := h.completionArgs(c)
	if !ok {
		return
	}
	res, err := h.svc.Completions.Complete(c.Request.Context(), currentUser(c).ID, id, day, req.Notes)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "task completed", "date": day, "streak": res.Streak})
}

func (h *Handler) UncompleteTask(c *gin.Context) {
	id, day, _, ok := h.completionArgs(c)
	if !ok {
		return
	}
	res, err := h.svc.Completions.Uncomplete(c.Request.Context(), currentUser(c).ID, id, day)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "completion removed", "date": day, "streak": res.Streak})
}

func (h *Handler) completionArgs(c *gin.Context) (uint, date.Date, completionRequest, bool) {
	var req completionRequest
	id, err := taskIDParam(c)
	if err != nil {
		badRequest(c, err)
		return 0, date.Date{}, req, false
	}
	if err := bindOptionalJSON(c, &req); err != nil {
		badRequest(c, err)
		return 0, date.Date{}, req, false
	}
	day := h.svc.Users.Today(*currentUser(c))
	if req.CompletionDate != nil && !req.CompletionDate.IsZero() {
		day = *req.CompletionDate
	}
	return id, day, req, true
}

func (h *Handler) RecomputeStreak(c *gin.Context) {
	id, err := taskIDParam(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	st, err := h.svc.Streaks.Recompute(c.Request.Context(), currentUser(c).ID, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}
