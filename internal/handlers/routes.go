package handlers

import "github.com/gin-gonic/gin"

type Handlers struct {
	Health       *HealthHandler
	Resume       *ResumeHandler
	Auth         *AuthHandler
	Profile      *ProfileHandler
	Posting      *PostingHandler
	Application  *ApplicationHandler
	RequireLogin gin.HandlerFunc
}

// Register mounts every route under api (normally /api).
func (h *Handlers) Register(api *gin.RouterGroup) {
	api.GET("/health", h.Health.HealthCheck)
	api.POST("/parse-resume", h.Resume.ParseResume)

	api.POST("/auth/signup", h.Auth.SignUp)
	api.POST("/auth/signin", h.Auth.SignIn)

	private := api.Group("")
	private.Use(h.RequireLogin)
	{
		// Profile Routes
		private.GET("/profile", h.Profile.GetProfile)
		private.PUT("/profile", h.Profile.UpdateProfile)
		private.PUT("/profile/onboarding", h.Profile.SaveOnboarding)
		private.GET("/profile/follows", h.Profile.FollowStats)
		private.GET("/users/:id", h.Profile.GetUser)
		private.POST("/users/:id/follow", h.Profile.Follow)
		private.DELETE("/users/:id/follow", h.Profile.Unfollow)

		// Posting Routes
		private.GET("/postings", h.Posting.ListPostings)
		private.GET("/postings/:id", h.Posting.GetPosting)
		private.POST("/postings/:id/star", h.Posting.Star)
		private.DELETE("/postings/:id/star", h.Posting.Unstar)
		private.GET("/starred", h.Posting.Starred)

		// Application Routes
		private.POST("/postings/:id/applications", h.Application.Apply)
		private.GET("/applications", h.Application.ListApplications)
		private.PATCH("/applications/:id/status", h.Application.UpdateStatus)
		private.GET("/applications/:id/events", h.Application.ListEvents)
	}
}
