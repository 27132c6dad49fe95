package handlers

import (
	"github.com/gin-gonic/gin"

	"sixdegrees-service/internal/middleware"
)

type Handlers struct {
	Users       *UserHandler
	Connections *ConnectionHandler
	Requests    *RequestHandler
	Chains      *ChainHandler
	Wallet      *WalletHandler
	Swipes      *SwipeHandler
}

// RegisterRoutes mounts the public share link, the public profile and the
// authenticated API under /api.
func RegisterRoutes(r *gin.Engine, h Handlers, jwtSecret string, shareLimiter *middleware.RateLimiter) {
	public := r.Group("/api")
	public.GET("/r/:share_id",
		middleware.OptionalJWTAuth(jwtSecret),
		shareLimiter.Handler("/api/r/:share_id"),
		h.Chains.Visit,
	)
	public.GET("/users/:id", h.Users.GetUserByID)

	auth := r.Group("/api", middleware.JWTAuth(jwtSecret))

	auth.PUT("/users/me", h.Users.Sync)
	auth.GET("/users/me", h.Users.GetMe)
	auth.PATCH("/users/me", h.Users.UpdateMe)
	auth.POST("/users/me/avatar", h.Users.AvatarUpload)

	auth.POST("/connections/invite", h.Connections.Invite)
	auth.GET("/connections/invites/incoming", h.Connections.ListIncoming)
	auth.POST("/connections/invites/:id/accept", h.Connections.AcceptInvite)
	auth.POST("/connections/invites/:id/reject", h.Connections.RejectInvite)
	auth.GET("/connections", h.Connections.List)
	auth.DELETE("/connections/:user_id", h.Connections.Delete)

	auth.POST("/requests", h.Requests.Create)
	auth.GET("/requests", h.Requests.ListMine)
	auth.GET("/requests/:id", h.Requests.Get)
	auth.POST("/requests/:id/cancel", h.Requests.Cancel)
	auth.GET("/requests/:id/chain", h.Requests.Chain)
	auth.POST("/requests/:id/participants/:user_id/freeze", h.Requests.Freeze)
	auth.POST("/requests/:id/complete", h.Requests.Complete)
	auth.GET("/requests/:id/rewards", h.Requests.Rewards)
	auth.GET("/requests/:id/analytics", h.Requests.Analytics)

	auth.POST("/chains/:share_id/join", h.Chains.Join)

	auth.GET("/wallet", h.Wallet.Get)
	auth.POST("/wallet/purchase", h.Wallet.Purchase)

	auth.GET("/discover", h.Swipes.Discover)
	auth.POST("/swipes", h.Swipes.Swipe)
	auth.POST("/swipes/undo", h.Swipes.Undo)
	auth.GET("/matches", h.Swipes.Matches)
}
