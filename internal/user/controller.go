package user

import (
	"errors"
	"net/http"

	"github.com/takio1981/my-todo-fullstack/internal/auth"
	"github.com/takio1981/my-todo-fullstack/internal/utils"

	"github.com/gin-gonic/gin"
)

const (
	MsgLoginSuccess = "Login successful"
	MsgNoSuchUser   = "User not found"
	MsgWrongPass    = "Wrong password"
	MsgUserCreated  = "User created successfully"
)

type CredentialsRequest struct {
	Username string `json:"username" binding:"required,notblank"`
	Password string `json:"password" binding:"required"`
}

type UserController struct {
	userService UserServiceInterface
}

func NewUserController(userService UserServiceInterface) *UserController {
	return &UserController{
		userService: userService,
	}
}

// Register handles POST /api/register
func (a *UserController) Register(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := a.userService.Register(c.Request.Context(), req.Username, req.Password); err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "Username already exists"})
			return
		}
		if errors.Is(err, auth.ErrPasswordTooLong) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, utils.StoreErrorBody(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": MsgUserCreated})
}

// Login handles POST /api/login. It verifies credentials only; no session is issued.
func (a *UserController) Login(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body", "error": err.Error()})
		return
	}

	user, err := a.userService.Verify(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrNoSuchUser):
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": MsgNoSuchUser})
		case errors.Is(err, ErrWrongPassword):
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": MsgWrongPass})
		default:
			c.JSON(http.StatusInternalServerError, utils.StoreErrorBody(err))
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": MsgLoginSuccess,
		"user":    user,
	})
}
