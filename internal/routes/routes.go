package routes

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/tractorbazar/marketplace/internal/app/domain/agreements"
	"github.com/tractorbazar/marketplace/internal/app/domain/auth"
	"github.com/tractorbazar/marketplace/internal/app/domain/catalog"
	"github.com/tractorbazar/marketplace/internal/app/domain/company"
	"github.com/tractorbazar/marketplace/internal/app/domain/documents"
	"github.com/tractorbazar/marketplace/internal/app/domain/interests"
	"github.com/tractorbazar/marketplace/internal/app/domain/notifications"
	"github.com/tractorbazar/marketplace/internal/app/domain/portal"
	"github.com/tractorbazar/marketplace/internal/app/domain/roles"
	"github.com/tractorbazar/marketplace/internal/app/domain/vehicles"
	appmiddleware "github.com/tractorbazar/marketplace/internal/app/middleware"
	"github.com/tractorbazar/marketplace/internal/app/models"
	"github.com/tractorbazar/marketplace/internal/pkg/config"
	"github.com/tractorbazar/marketplace/internal/pkg/realtime"
	"github.com/tractorbazar/marketplace/internal/pkg/storage"
)

// Dependencies are the process-wide collaborators the route tree hangs off.
type Dependencies struct {
	Config *config.Config
	DBPool *pgxpool.Pool
	Redis  *redis.Client
	Store  *storage.ObjectStore
	Hub    *realtime.Hub
	Logger *zap.Logger
}

type AppHandlers struct {
	Auth          *auth.AuthHandlers
	Portal        *portal.PortalHandlers
	Roles         *roles.RoleHandlers
	Vehicles      *vehicles.VehicleHandlers
	Documents     *documents.DocumentHandlers
	Interests     *interests.InterestHandlers
	Agreements    *agreements.AgreementHandlers
	Notifications *notifications.NotificationHandlers
	Catalog       *catalog.CatalogHandlers
	Company       *company.CompanyHandlers

	guard *appmiddleware.Guard
}

// Setup wires repositories, services and handlers, then mounts the route tree.
func Setup(r *gin.Engine, deps Dependencies) error {
	handlers, err := setupDependencies(deps)
	if err != nil {
		return err
	}
	setupRouter(r, handlers)
	return nil
}

func setupDependencies(deps Dependencies) (*AppHandlers, error) {
	log := deps.Logger
	cfg := deps.Config

	// Repositories.
	authRepo := auth.NewPostgresAuthRepo(deps.DBPool, log)
	rolesRepo := roles.NewPostgresRolesRepo(deps.DBPool, log)
	vehiclesRepo := vehicles.NewPostgresVehiclesRepo(deps.DBPool, log)
	documentsRepo := documents.NewPostgresDocumentsRepo(deps.DBPool, log)
	interestsRepo := interests.NewPostgresInterestsRepo(deps.DBPool, log)
	agreementsRepo := agreements.NewPostgresAgreementsRepo(deps.DBPool, log)
	notificationsRepo := notifications.NewPostgresNotificationsRepo(deps.DBPool, log)
	catalogRepo := catalog.NewPostgresCatalogRepo(deps.DBPool, log)
	companyRepo := company.NewPostgresCompanyRepo(deps.DBPool, log)
	searchRecorder := vehicles.NewPostgresSearchRecorder(deps.DBPool, log)

	// Services.
	otpStore := auth.NewOTPStore(deps.Redis, cfg.OTP, log)
	authService := auth.NewAuthService(authRepo, otpStore, auth.LogSender{Logger: log}, cfg, log)
	sessionStore := auth.NewSessionStore(authService, log)
	roleService := roles.NewRoleService(rolesRepo, log)
	notificationService := notifications.NewNotificationService(notificationsRepo, deps.Hub, log)
	catalogService := catalog.NewCatalogService(catalogRepo, log)
	companyService := company.NewCompanyService(companyRepo, log)

	names, err := catalogService.Names(context.Background())
	if err != nil {
		// The matcher just tags recognized makes; start without it.
		log.Warn("Catalog names unavailable, search matching disabled at startup", zap.Error(err))
		names = nil
	}
	matcher := vehicles.NewKeywordMatcher(names)

	vehicleService := vehicles.NewVehicleService(vehiclesRepo, searchRecorder, matcher, deps.Hub, notificationService, log)
	documentService := documents.NewDocumentService(documentsRepo, deps.Store, vehicleService, log)
	interestService := interests.NewInterestService(interestsRepo, vehicleService, notificationService, log)
	agreementService := agreements.NewAgreementService(agreementsRepo, vehicleService, deps.Store, deps.Hub, notificationService, log)

	return &AppHandlers{
		Auth:          auth.NewAuthHandlers(authService, sessionStore, cfg.IsProduction(), log),
		Portal:        portal.NewPortalHandlers(roleService, log),
		Roles:         roles.NewRoleHandlers(roleService, log),
		Vehicles:      vehicles.NewVehicleHandlers(vehicleService, log),
		Documents:     documents.NewDocumentHandlers(documentService, log),
		Interests:     interests.NewInterestHandlers(interestService, log),
		Agreements:    agreements.NewAgreementHandlers(agreementService, log),
		Notifications: notifications.NewNotificationHandlers(notificationService, deps.Hub, sessionStore, log),
		Catalog:       catalog.NewCatalogHandlers(catalogService, log),
		Company:       company.NewCompanyHandlers(companyService, log),
		guard:         appmiddleware.NewGuard(sessionStore, roleService, log),
	}, nil
}

func setupRouter(r *gin.Engine, h *AppHandlers) {
	// Public surface.
	r.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/vehicles")
	})
	r.GET("/vehicles", h.Vehicles.Browse)
	r.GET("/vehicles/search", h.Vehicles.Search)
	r.GET("/vehicles/:id", h.Vehicles.GetVehicle)
	r.GET("/vehicles/:id/documents", h.Documents.ListDocuments)

	r.GET("/catalog/makes", h.Catalog.Makes)
	r.GET("/catalog/makes/:makeId/models", h.Catalog.Models)

	companyGroup := r.Group("/company")
	{
		companyGroup.GET("/about", h.Company.About)
		companyGroup.GET("/leadership", h.Company.Leadership)
		companyGroup.GET("/awards", h.Company.Awards)
		companyGroup.GET("/branches", h.Company.Branches)
	}

	r.POST("/lang", appmiddleware.SetLanguageHandler)

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/otp/request", h.Auth.RequestOTP)
		authGroup.POST("/otp/verify", h.Auth.VerifyOTP)
		authGroup.POST("/refresh", h.Auth.Refresh)
		authGroup.POST("/logout", h.Auth.Logout)
	}

	// Signed-in surface: any session, roles not yet required.
	signedIn := r.Group("/", h.guard.RequireSession())
	{
		signedIn.GET("/dashboard", h.Portal.Dashboard)
		signedIn.GET("/portal-select", h.Portal.ListPortals)
		signedIn.POST("/portal-select/role", h.Portal.RequestRole)
		signedIn.POST("/portal-select/bootstrap-admin", h.Portal.RequestAdminBootstrap)

		signedIn.GET("/notifications", h.Notifications.List)
		signedIn.GET("/notifications/unread", h.Notifications.UnreadCount)
		signedIn.POST("/notifications/:id/read", h.Notifications.MarkRead)
		signedIn.POST("/notifications/read-all", h.Notifications.MarkAllRead)

		signedIn.GET("/realtime/:table", h.Notifications.Stream)
	}

	buyer := r.Group("/buyer-portal", h.guard.RequireRole(models.RoleBuyer))
	{
		buyer.GET("", h.Vehicles.Browse)
		buyer.GET("/interests", h.Interests.MyInterests)
		buyer.POST("/vehicles/:id/interest", h.Interests.Express)
		buyer.DELETE("/vehicles/:id/interest", h.Interests.Withdraw)
		buyer.POST("/vehicles/:id/cc", h.Documents.UploadCC)
		buyer.GET("/agreements", h.Agreements.MyAgreements)
		buyer.GET("/agreements/:id", h.Agreements.Get)
		buyer.POST("/agreements/:id/sign", h.Agreements.Sign)
	}

	seller := r.Group("/seller-portal", h.guard.RequireRole(models.RoleSeller))
	{
		seller.GET("", h.Vehicles.MyListings)
		seller.POST("/vehicles", h.Vehicles.CreateListing)
		seller.PUT("/vehicles/:id", h.Vehicles.UpdateListing)
		seller.POST("/vehicles/:id/sold", h.Vehicles.MarkSold)
		seller.POST("/vehicles/:id/documents", h.Documents.UploadDocument)
		seller.GET("/vehicles/:id/interests", h.Interests.VehicleInterests)
		seller.GET("/agreements", h.Agreements.MyAgreements)
		seller.GET("/agreements/:id", h.Agreements.Get)
		seller.POST("/agreements", h.Agreements.Draft)
		seller.POST("/agreements/:id/sign", h.Agreements.Sign)
	}

	admin := r.Group("/admin", h.guard.RequireRole(models.RoleAdmin))
	{
		admin.GET("", h.Vehicles.PendingModeration)
		admin.GET("/moderation", h.Vehicles.PendingModeration)
		admin.POST("/moderation/:id/approve", h.Vehicles.Approve)
		admin.POST("/moderation/:id/reject", h.Vehicles.Reject)

		admin.GET("/users", h.Roles.ListUsers)
		admin.POST("/users/:id/roles", h.Roles.GrantRole)
		admin.DELETE("/users/:id/roles", h.Roles.RevokeRole)
		admin.DELETE("/users/:id", h.Roles.DeleteUser)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "page not found"})
	})
}
