package account

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oggyb/bubbles/internal/app"
	svcErr "github.com/oggyb/bubbles/internal/errors"
)

// Registrar ties the account service into the HTTP server.
type Registrar struct {
	appCtx    *app.AppContext
	jwtSecret string
}

func NewRegistrar(appCtx *app.AppContext, jwtSecret string) *Registrar {
	return &Registrar{appCtx: appCtx, jwtSecret: jwtSecret}
}

type credentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Username string `json:"username"`
}

// Register attaches the signup/login routes. Both are public.
func (r *Registrar) Register(public, _ *gin.RouterGroup) {
	svc := NewService(r.appCtx, r.jwtSecret)

	public.POST("/signup", func(c *gin.Context) {
		var req credentialsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
			return
		}
		user, token, err := svc.Signup(c.Request.Context(), req.Email, req.Password, req.Username)
		if err != nil {
			status, msg := svcErr.Status(err)
			c.JSON(status, gin.H{"error": msg})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"user": user, "jwt": token})
	})

	public.POST("/login", func(c *gin.Context) {
		var req credentialsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
			return
		}
		user, token, err := svc.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			status, msg := svcErr.Status(err)
			c.JSON(status, gin.H{"error": msg})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": user, "jwt": token})
	})
}
