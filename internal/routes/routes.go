package routes

import (
	"net/http"
	"time"

	"github.com/Ruhancpereira/conectacond.site/internal/handlers"
	"github.com/Ruhancpereira/conectacond.site/internal/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func SetupRouter(h *handlers.Handlers) *gin.Engine {
	router := gin.Default()

	// --- CORS Guard ---
	// This must be the very first thing the router uses. The portal
	// frontend sends the session token in the Authorization header.
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "https://conectacond.site"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	v1 := router.Group("/v1")
	{
		// --- Ping Route (Public) ---
		v1.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "pong!"})
		})

		// --- Service Status Routes (Public) ---
		v1.GET("/config", h.ConfigStatus)
		v1.GET("/health", h.Health)

		// --- Auth Routes (Public) ---
		v1.POST("/auth/login", h.Login)
		v1.POST("/auth/register", h.Register)
		v1.POST("/auth/resume", h.Resume)
		v1.POST("/auth/reset-password", h.ResetPassword)

		// --- Session Routes (Token Required) ---
		// These only need a known portal session, resolved or not, so
		// a client can poll while its bootstrap is still in flight.
		sess := v1.Group("/")
		sess.Use(middleware.WithSession(h.Sessions))
		{
			sess.GET("/auth/session", h.SessionStatus)
			sess.POST("/auth/visible", h.Visible)
			sess.POST("/auth/logout", h.Logout)

			// --- Authenticated Routes ---
			auth := sess.Group("/")
			auth.Use(middleware.Authenticated())
			{
				auth.GET("/licenses/condo/:condoId", h.GetLicenseByCondo)
			}
		}

		// --- Super Admin-Only Routes ---
		admin := v1.Group("/admin")
		admin.Use(middleware.WithSession(h.Sessions))
		admin.Use(middleware.Authenticated())
		admin.Use(middleware.SuperAdminOnly())
		{
			// Condominiums
			admin.POST("/condos", h.CreateCondo)
			admin.GET("/condos", h.GetAllCondos)
			admin.GET("/condos/:id", h.GetCondo)
			admin.PATCH("/condos/:id", h.UpdateCondo)
			admin.DELETE("/condos/:id", h.DeleteCondo)

			// Licenses
			admin.POST("/licenses", h.CreateLicense)
			admin.GET("/licenses", h.GetAllLicenses)
			admin.GET("/licenses/:id", h.GetLicense)
			admin.PATCH("/licenses/:id", h.UpdateLicense)
			admin.POST("/licenses/:id/suspend", h.SuspendLicense)
			admin.POST("/licenses/:id/activate", h.ActivateLicense)
			admin.POST("/licenses/:id/renew", h.RenewLicense)

			// Contracts
			admin.GET("/licenses/:id/contracts", h.GetContracts)

			// Billing
			admin.POST("/licenses/:id/charges", h.CreateCharge)
			admin.GET("/licenses/:id/charges", h.GetCharges)

			// Download Links
			admin.POST("/download-links", h.GenerateDownloadLink)
			admin.GET("/licenses/:id/download-links", h.GetDownloadLinks)
			admin.POST("/download-links/:id/revoke", h.RevokeDownloadLink)
			admin.POST("/download-links/:id/reactivate", h.ReactivateDownloadLink)
			admin.POST("/licenses/:id/send-links", h.SendDownloadLinks)

			// Profile Directory
			admin.GET("/profiles", h.GetAllProfiles)
			admin.PATCH("/profiles/:id/condo", h.UpdateProfileCondo)
		}
	}

	return router
}
