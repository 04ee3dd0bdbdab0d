package ws

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/oggyb/bubbles/internal/app"
	"github.com/oggyb/bubbles/internal/middleware"
	"github.com/oggyb/bubbles/internal/observability"
	"github.com/oggyb/bubbles/internal/pubsub"
	"github.com/oggyb/bubbles/internal/repository"
)

// Registrar exposes the subscription streams over websocket. Authorization
// happens at subscribe time, before the upgrade: a client that may not
// watch a stream never gets a connection.
type Registrar struct {
	appCtx    *app.AppContext
	jwtSecret string
	matchRepo *repository.MatchRepository
}

func NewRegistrar(appCtx *app.AppContext, jwtSecret string) *Registrar {
	return &Registrar{
		appCtx:    appCtx,
		jwtSecret: jwtSecret,
		matchRepo: repository.NewMatchRepository(appCtx.DB),
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsEvent is the frame written to subscribers.
type wsEvent struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Register attaches the subscription routes. They live on the public group
// because websocket clients send the token as a query parameter; the
// handlers authenticate before upgrading.
func (r *Registrar) Register(public, _ *gin.RouterGroup) {
	public.GET("/subscriptions/matches", r.handleMatchAdded)
	public.GET("/subscriptions/messages", r.handleMessageAdded)
}

// handleMatchAdded streams matchAdded events for one user. A subscriber may
// only watch their own id; delivery skips the match's initiator so the
// acting side never hears its own decision echoed back.
func (r *Registrar) handleMatchAdded(c *gin.Context) {
	currentUserID, err := middleware.ResolveUserID(c, r.jwtSecret)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	requestedID, err := strconv.ParseUint(c.Query("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id must be a valid uint64"})
		return
	}
	if requestedID != currentUserID {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	filter := func(ev pubsub.Event) (bool, error) {
		var payload pubsub.MatchAddedEvent
		if err := json.Unmarshal(ev.Payload, &payload); err != nil {
			return false, err
		}
		if currentUserID == payload.InitiatorID {
			return false, nil
		}
		for _, u := range payload.Match.Users {
			if u.ID == currentUserID {
				return true, nil
			}
		}
		return false, nil
	}

	r.serve(c, pubsub.TopicMatchAdded, filter)
}

// handleMessageAdded streams messageAdded events for a set of matches. Every
// requested id must be a match the subscriber belongs to; delivery skips
// messages the subscriber authored.
func (r *Registrar) handleMessageAdded(c *gin.Context) {
	currentUserID, err := middleware.ResolveUserID(c, r.jwtSecret)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	matchIDs, err := parseIDList(c.Query("match_ids"))
	if err != nil || len(matchIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "match_ids must be a comma-separated list of ids"})
		return
	}

	confirmed, err := r.matchRepo.ConfirmedMatchIDs(c.Request.Context(), currentUserID, matchIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	// requested set larger than the confirmed set: not all ids belong to
	// this user
	if len(matchIDs) > len(confirmed) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	wanted := make(map[uint64]struct{}, len(matchIDs))
	for _, id := range matchIDs {
		wanted[id] = struct{}{}
	}

	filter := func(ev pubsub.Event) (bool, error) {
		var payload pubsub.MessageAddedEvent
		if err := json.Unmarshal(ev.Payload, &payload); err != nil {
			return false, err
		}
		if _, ok := wanted[payload.Message.MatchID]; !ok {
			return false, nil
		}
		// don't echo the author's own message back to them
		return payload.Message.UserID != currentUserID, nil
	}

	r.serve(c, pubsub.TopicMessageAdded, filter)
}

// serve upgrades the connection and pumps filtered events until the client
// goes away. Disconnect deregisters the subscriber; in-flight deliveries
// simply find no one listening.
func (r *Registrar) serve(c *gin.Context, topic string, filter pubsub.FilterFunc) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	sub := r.appCtx.Broadcaster.Subscribe(topic, filter)
	observability.IncWSActive(topic)
	r.appCtx.Logger.Debug("subscriber connected", "topic", topic, "subscriber", sub.ID())

	go func() {
		defer conn.Close()
		for {
			select {
			case ev, ok := <-sub.Events():
				if !ok {
					return
				}
				if err := conn.WriteJSON(wsEvent{Type: ev.Topic, Payload: ev.Payload}); err != nil {
					r.appCtx.Logger.Debug("websocket write failed", "topic", topic, "subscriber", sub.ID(), "err", err)
					r.appCtx.Broadcaster.Unsubscribe(sub)
					return
				}
			case <-sub.Done():
				return
			}
		}
	}()

	// read loop exists only to observe the disconnect
	go func() {
		defer func() {
			r.appCtx.Broadcaster.Unsubscribe(sub)
			observability.DecWSActive(topic)
			conn.Close()
			r.appCtx.Logger.Debug("subscriber disconnected", "topic", topic, "subscriber", sub.ID())
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func parseIDList(raw string) ([]uint64, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]uint64, 0, len(parts))
	seen := make(map[uint64]struct{}, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseUint(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}
