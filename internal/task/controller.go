package task

import (
	"net/http"
	"strconv"

	"github.com/takio1981/my-todo-fullstack/internal/utils"

	"github.com/gin-gonic/gin"
)

const (
	MsgUpdated = "Updated successfully"
	MsgDeleted = "Deleted successfully"
)

type CreateTaskRequest struct {
	Title string `json:"title" binding:"required,notblank,max=255"`
}

// UpdateTaskRequest replaces both fields. A missing is_completed is stored as false.
type UpdateTaskRequest struct {
	Title       string `json:"title" binding:"required,notblank,max=255"`
	IsCompleted *bool  `json:"is_completed"`
}

type TaskController struct {
	service TaskServiceInterface
}

func NewTaskController(service TaskServiceInterface) *TaskController {
	return &TaskController{
		service: service,
	}
}

// ListTasks handles GET /api/tasks
func (tc *TaskController) ListTasks(c *gin.Context) {
	tasks, err := tc.service.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.StoreErrorBody(err))
		return
	}

	c.JSON(http.StatusOK, tasks)
}

// CreateTask handles POST /api/tasks
func (tc *TaskController) CreateTask(c *gin.Context) {
	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := tc.service.Create(c.Request.Context(), req.Title)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.StoreErrorBody(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":    task.ID,
		"title": task.Title,
	})
}

// UpdateTask handles PUT /api/tasks/:id
func (tc *TaskController) UpdateTask(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	isCompleted := req.IsCompleted != nil && *req.IsCompleted
	if err := tc.service.Update(c.Request.Context(), id, req.Title, isCompleted); err != nil {
		c.JSON(http.StatusInternalServerError, utils.StoreErrorBody(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": MsgUpdated})
}

// DeleteTask handles DELETE /api/tasks/:id
func (tc *TaskController) DeleteTask(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := tc.service.Delete(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, utils.StoreErrorBody(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": MsgDeleted})
}

func parseID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task ID"})
		return 0, false
	}
	return id, true
}
