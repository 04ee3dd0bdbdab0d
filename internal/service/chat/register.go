package chat

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/oggyb/bubbles/internal/app"
	"github.com/oggyb/bubbles/internal/db"
	svcErr "github.com/oggyb/bubbles/internal/errors"
	"github.com/oggyb/bubbles/internal/loader"
	"github.com/oggyb/bubbles/internal/middleware"
	"github.com/oggyb/bubbles/internal/repository"
)

// Registrar ties the chat service into the HTTP server.
type Registrar struct {
	appCtx *app.AppContext
}

func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

type createMessageRequest struct {
	MatchID uint64 `json:"matchId" binding:"required"`
	Text    string `json:"text" binding:"required"`
}

type markReadRequest struct {
	MessageID uint64 `json:"messageId" binding:"required"`
}

type userRef struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
}

type messageNode struct {
	db.Message
	From *userRef `json:"from,omitempty"`
}

type edgeJSON struct {
	Cursor string      `json:"cursor"`
	Node   messageNode `json:"node"`
}

type pageInfoJSON struct {
	HasNextPage     bool `json:"hasNextPage"`
	HasPreviousPage bool `json:"hasPreviousPage"`
}

type messagePageJSON struct {
	Edges    []edgeJSON   `json:"edges"`
	PageInfo pageInfoJSON `json:"pageInfo"`
}

// Register attaches the match/message routes. All require authentication.
func (r *Registrar) Register(_, private *gin.RouterGroup) {
	svc := NewService(r.appCtx)

	private.GET("/matches", func(c *gin.Context) {
		matches, err := svc.Matches(c.Request.Context(), middleware.CurrentUserID(c))
		if err != nil {
			status, msg := svcErr.Status(err)
			c.JSON(status, gin.H{"error": msg})
			return
		}
		c.JSON(http.StatusOK, matches)
	})

	private.GET("/matches/:match_id", func(c *gin.Context) {
		matchID, ok := pathID(c, "match_id")
		if !ok {
			return
		}
		match, err := svc.Match(c.Request.Context(), matchID)
		if err != nil {
			status, msg := svcErr.Status(err)
			c.JSON(status, gin.H{"error": msg})
			return
		}
		// unknown id reads as null, not as an error
		c.JSON(http.StatusOK, match)
	})

	private.GET("/matches/:match_id/messages", r.handleMessagePage(svc))

	private.GET("/matches/:match_id/unread", func(c *gin.Context) {
		matchID, ok := pathID(c, "match_id")
		if !ok {
			return
		}
		count, err := svc.UnreadCount(c.Request.Context(), middleware.CurrentUserID(c), matchID)
		if err != nil {
			status, msg := svcErr.Status(err)
			c.JSON(status, gin.H{"error": msg})
			return
		}
		c.JSON(http.StatusOK, gin.H{"unreadCount": count})
	})

	private.POST("/matches/:match_id/read", func(c *gin.Context) {
		matchID, ok := pathID(c, "match_id")
		if !ok {
			return
		}
		var req markReadRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "messageId is required"})
			return
		}
		if err := svc.MarkRead(c.Request.Context(), middleware.CurrentUserID(c), matchID, req.MessageID); err != nil {
			status, msg := svcErr.Status(err)
			c.JSON(status, gin.H{"error": msg})
			return
		}
		c.Status(http.StatusNoContent)
	})

	private.POST("/messages", func(c *gin.Context) {
		var req createMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "matchId and text are required"})
			return
		}
		message, err := svc.CreateMessage(c.Request.Context(), middleware.CurrentUserID(c), req.MatchID, req.Text)
		if err != nil {
			status, msg := svcErr.Status(err)
			c.JSON(status, gin.H{"error": msg})
			return
		}
		c.JSON(http.StatusCreated, message)
	})
}

func (r *Registrar) handleMessagePage(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		matchID, ok := pathID(c, "match_id")
		if !ok {
			return
		}

		conn := repository.ConnectionInput{
			After:  c.Query("after"),
			Before: c.Query("before"),
		}
		conn.First, _ = strconv.Atoi(c.DefaultQuery("first", "0"))
		conn.Last, _ = strconv.Atoi(c.DefaultQuery("last", "0"))

		ctx := c.Request.Context()
		page, err := svc.MessagePage(ctx, matchID, conn)
		if err != nil {
			status, msg := svcErr.Status(err)
			c.JSON(status, gin.H{"error": msg})
			return
		}

		hasNext, err := page.PageInfo.HasNextPage(ctx)
		if err != nil {
			status, msg := svcErr.Status(err)
			c.JSON(status, gin.H{"error": msg})
			return
		}
		hasPrev, err := page.PageInfo.HasPreviousPage(ctx)
		if err != nil {
			status, msg := svcErr.Status(err)
			c.JSON(status, gin.H{"error": msg})
			return
		}

		// one batched author lookup for the whole page
		loaders := loader.New(r.appCtx.DB)
		authorIDs := make([]uint64, 0, len(page.Edges))
		for _, e := range page.Edges {
			authorIDs = append(authorIDs, e.Node.UserID)
		}
		authors, err := loaders.Users.LoadMany(ctx, authorIDs)
		if err != nil {
			status, msg := svcErr.Status(err)
			c.JSON(status, gin.H{"error": msg})
			return
		}

		out := messagePageJSON{
			Edges:    make([]edgeJSON, 0, len(page.Edges)),
			PageInfo: pageInfoJSON{HasNextPage: hasNext, HasPreviousPage: hasPrev},
		}
		for _, e := range page.Edges {
			node := messageNode{Message: e.Node}
			if author, found := authors[e.Node.UserID]; found {
				node.From = &userRef{ID: author.ID, Username: author.Username}
			}
			out.Edges = append(out.Edges, edgeJSON{Cursor: e.Cursor, Node: node})
		}
		c.JSON(http.StatusOK, out)
	}
}

func pathID(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be a valid uint64"})
		return 0, false
	}
	return id, true
}
