package decide

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oggyb/bubbles/internal/app"
	svcErr "github.com/oggyb/bubbles/internal/errors"
	"github.com/oggyb/bubbles/internal/middleware"
)

// Registrar ties the decision service into the HTTP server.
type Registrar struct {
	appCtx *app.AppContext
}

func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

type createDecisionRequest struct {
	PersonID uint64 `json:"personId" binding:"required"`
	Status   string `json:"status" binding:"required"`
}

// Register attaches the decision routes. All require authentication.
func (r *Registrar) Register(_, private *gin.RouterGroup) {
	svc := NewService(r.appCtx)

	private.POST("/decisions", func(c *gin.Context) {
		var req createDecisionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "personId and status are required"})
			return
		}
		decision, err := svc.CreateDecision(c.Request.Context(), middleware.CurrentUserID(c), req.PersonID, req.Status)
		if err != nil {
			status, msg := svcErr.Status(err)
			c.JSON(status, gin.H{"error": msg})
			return
		}
		c.JSON(http.StatusCreated, decision)
	})

	private.GET("/candidates", func(c *gin.Context) {
		users, err := svc.Candidates(c.Request.Context(), middleware.CurrentUserID(c))
		if err != nil {
			status, msg := svcErr.Status(err)
			c.JSON(status, gin.H{"error": msg})
			return
		}
		c.JSON(http.StatusOK, users)
	})
}
