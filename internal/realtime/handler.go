package realtime

import (
	"context"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-desk/internal/auth"
	apperrors "github.com/spec-kit/complaint-desk/pkg/util/errorutil"
)

const userIDLocal = "realtime_user_id"

// Handler authenticates the websocket handshake and hands the connection
// to the hub.
type Handler struct {
	hub        *Hub
	identities auth.IdentityResolver
	access     TicketAccess
	origins    []string
}

// NewHandler builds the /ws handler. An empty or "*" origin accepts any
// browser origin.
func NewHandler(hub *Hub, identities auth.IdentityResolver, access TicketAccess, frontendOrigin string) *Handler {
	origins := []string{"*"}
	if frontendOrigin != "" {
		origins = []string{frontendOrigin}
	}
	return &Handler{hub: hub, identities: identities, access: access, origins: origins}
}

// Handshake verifies the token before the upgrade so a rejected client gets
// a plain 401 response.
func (h *Handler) Handshake(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	token := c.Query("token")
	if token == "" {
		token, _ = auth.BearerToken(c.Get(fiber.HeaderAuthorization))
	}
	if token == "" {
		return apperrors.NewUnauthorized("Authentication error")
	}

	userID, err := h.identities.VerifyToken(token)
	if err != nil {
		return apperrors.NewUnauthorized("Authentication error")
	}
	user, err := h.identities.ResolveUser(c.UserContext(), userID)
	if err != nil {
		if apperrors.IsCode(err, apperrors.CodeNotFound) {
			return apperrors.NewUnauthorized("Authentication error")
		}
		return apperrors.MapError(err)
	}

	c.Locals(userIDLocal, user.ID)
	return c.Next()
}

// Upgrade returns the fiber handler that completes the websocket upgrade.
func (h *Handler) Upgrade() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userID, _ := conn.Locals(userIDLocal).(string)
		if userID == "" {
			_ = conn.Close()
			return
		}
		h.hub.Serve(context.Background(), conn, userID, h.access)
	}, websocket.Config{Origins: h.origins})
}
