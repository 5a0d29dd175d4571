// Package router registers the API routes on echo.
package router

import (
	"beatmarket/internal/delivery/api/middleware"
	"beatmarket/internal/delivery/api/router/handler"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	AuthHandler         *handler.AuthHandler
	ProfileHandler      *handler.ProfileHandler
	BeatHandler         *handler.BeatHandler
	RatingHandler       *handler.RatingHandler
	PurchaseHandler     *handler.PurchaseHandler
	CommentHandler      *handler.CommentHandler
	MediaHandler        *handler.MediaHandler
	AuthMiddleware      *middleware.AuthMiddleware
	RateLimitMiddleware *middleware.RateLimitMiddleware
}

// router holds all the handlers that need to be registered.
type router struct {
	authHandler     *handler.AuthHandler
	profileHandler  *handler.ProfileHandler
	beatHandler     *handler.BeatHandler
	ratingHandler   *handler.RatingHandler
	purchaseHandler *handler.PurchaseHandler
	commentHandler  *handler.CommentHandler
	mediaHandler    *handler.MediaHandler
	authMiddleware  *middleware.AuthMiddleware
	rateLimit       *middleware.RateLimitMiddleware
}

// NewRouter is the constructor for the Router.
func NewRouter(params RouterParams) *router {
	return &router{
		authHandler:     params.AuthHandler,
		profileHandler:  params.ProfileHandler,
		beatHandler:     params.BeatHandler,
		ratingHandler:   params.RatingHandler,
		purchaseHandler: params.PurchaseHandler,
		commentHandler:  params.CommentHandler,
		mediaHandler:    params.MediaHandler,
		authMiddleware:  params.AuthMiddleware,
		rateLimit:       params.RateLimitMiddleware,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", handler.HealthCheck)

	authGroup := e.Group("/auth")
	{
		authGroup.POST("/register", r.authHandler.Register)
		authGroup.POST("/login", r.authHandler.Login)
	}

	// Everything under /api/v1 requires an access token
	apiV1 := e.Group("/api/v1")
	apiV1.Use(r.authMiddleware.Authenticate)

	profileGroup := apiV1.Group("/profile")
	{
		profileGroup.GET("", r.profileHandler.GetProfile)
		profileGroup.PUT("", r.profileHandler.UpdateProfile)
		profileGroup.PUT("/photo", r.profileHandler.UpdatePhoto)
		profileGroup.PUT("/balance", r.profileHandler.TopUp, r.rateLimit.Limit)
		profileGroup.GET("/transactions", r.profileHandler.ListTransactions)
	}

	apiV1.GET("/users/:username", r.profileHandler.GetPublicProfile)
	apiV1.GET("/share", r.beatHandler.ResolveShare)

	beatsGroup := apiV1.Group("/beats")
	{
		beatsGroup.GET("", r.beatHandler.ListBeats)
		beatsGroup.POST("", r.beatHandler.CreateBeat)
		// static segments are matched before :id by echo's router
		beatsGroup.GET("/mine", r.beatHandler.ListMyBeats)
		beatsGroup.GET("/rated", r.ratingHandler.ListRatedBeats)
		beatsGroup.GET("/popular", r.beatHandler.Popular)

		beatsGroup.GET("/:id", r.beatHandler.GetBeat)
		beatsGroup.PUT("/:id", r.beatHandler.UpdateBeat)
		beatsGroup.DELETE("/:id", r.beatHandler.DeleteBeat)
		beatsGroup.GET("/:id/qr", r.beatHandler.ShareQR)
		beatsGroup.POST("/:id/purchase", r.purchaseHandler.Purchase, r.rateLimit.Limit)
		beatsGroup.PUT("/:id/rating", r.ratingHandler.SubmitRating)
		beatsGroup.GET("/:id/rating", r.ratingHandler.GetRatingSummary)
		beatsGroup.GET("/:id/ratings", r.ratingHandler.ListRatings)
		beatsGroup.GET("/:id/comments", r.commentHandler.ListComments)
		beatsGroup.POST("/:id/comments", r.commentHandler.AddComment)
	}

	commentsGroup := apiV1.Group("/comments")
	{
		commentsGroup.PUT("/:id", r.commentHandler.EditComment)
		commentsGroup.DELETE("/:id", r.commentHandler.DeleteComment)
	}

	mediaGroup := apiV1.Group("/media")
	{
		mediaGroup.POST("", r.mediaHandler.Upload)
		mediaGroup.GET("/*", r.mediaHandler.Download)
	}
}
