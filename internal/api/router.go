package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/famledger/famledger/internal/access"
	"github.com/famledger/famledger/internal/common"
	"github.com/famledger/famledger/internal/config"
	"github.com/famledger/famledger/internal/events"
	"github.com/famledger/famledger/internal/handlers"
	"github.com/famledger/famledger/internal/kv"
	"github.com/famledger/famledger/internal/middleware"
	"github.com/famledger/famledger/internal/models"
	"github.com/famledger/famledger/internal/services"
	"github.com/famledger/famledger/internal/websocket"
	"github.com/famledger/famledger/web"
)

// SetupRouter configures all routes and returns the router together
// with the WebSocket hub. The caller owns the hub's Run loop.
func SetupRouter(db *gorm.DB, kvStore kv.Store, cfg *config.Config) (*mux.Router, *websocket.Hub) {
	// Create a new router
	router := mux.NewRouter()

	// Add health check endpoint
	router.HandleFunc("/api/health", HealthHandler).Methods("GET")

	// Create services
	bus := events.NewBus()
	resolver := access.NewResolver(cfg.Admin.Identifier)
	authService := services.NewAuthService(db, kvStore, bus)
	userService := services.NewUserService(db, bus)
	familyService := services.NewFamilyMemberService(db, bus)
	categoryService := services.NewCategoryService(db, bus)
	transactionService := services.NewTransactionService(db, bus)
	backupService := services.NewBackupService(db, bus)
	settingsService := services.NewSettingsService(kvStore)

	// The hub pushes a fresh snapshot of these topics to subscribers
	// after every change event
	wsHub := websocket.NewHub(bus, resolver, userService)
	wsHub.RegisterSnapshot(models.TopicTransactions, func(id access.Identity) (interface{}, error) {
		return transactionService.GetTransactions(id.UserID, models.TransactionFilter{})
	})
	wsHub.RegisterSnapshot(models.TopicCategories, func(id access.Identity) (interface{}, error) {
		return categoryService.GetCategories(id.UserID)
	})
	wsHub.RegisterSnapshot(models.TopicMembers, func(id access.Identity) (interface{}, error) {
		return familyService.GetFamilyMembers(id.UserID)
	})
	wsHub.RegisterSnapshot(models.TopicUsers, func(access.Identity) (interface{}, error) {
		return userService.GetUsers()
	})
	wsHub.RegisterSnapshot(models.TopicProfile, func(id access.Identity) (interface{}, error) {
		// The profile snapshot carries the resolved access state so
		// clients learn about approval changes without polling.
		resp := models.SessionResponse{AccessState: string(resolver.ResolveFresh(&id, userService))}
		user, err := userService.GetUserByID(id.UserID)
		if err == nil {
			resp.User = &user
		} else if !errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		return resp, nil
	})

	// Create handlers using services
	authHandler := handlers.NewAuthHandler(authService, userService, categoryService, resolver, cfg.JWT.SecretKey)
	userHandler := handlers.NewUserHandler(userService)
	familyHandler := handlers.NewFamilyMemberHandler(familyService)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	transactionHandler := handlers.NewTransactionHandler(transactionService)
	dashboardHandler := handlers.NewDashboardHandler(transactionService, categoryService, familyService)
	backupHandler := handlers.NewBackupHandler(backupService)
	settingsHandler := handlers.NewSettingsHandler(settingsService)

	// Add public endpoints directly to the root router (no authentication required)
	router.HandleFunc("/api/auth/signup", authHandler.Signup).Methods("POST")
	router.HandleFunc("/api/auth/login", authHandler.Login).Methods("POST")

	// WebSocket route; the token arrives as a query parameter
	tokenAuth := middleware.AuthMiddleware(cfg.JWT.SecretKey, authService)
	router.Handle("/ws", tokenAuth(http.HandlerFunc(wsHub.HandleWebSocket)))

	// Create the API router for authenticated endpoints
	apiRouter := router.PathPrefix("/api").Subrouter()

	// Create a subrouter for authenticated endpoints
	authRouter := apiRouter.PathPrefix("").Subrouter()
	authRouter.Use(tokenAuth)
	authHandler.RegisterAuthenticatedRoutes(authRouter)

	// Data endpoints additionally require an allowed access state
	dataRouter := authRouter.PathPrefix("").Subrouter()
	dataRouter.Use(middleware.AccessMiddleware(resolver, userService))
	transactionHandler.RegisterRoutes(dataRouter)
	categoryHandler.RegisterRoutes(dataRouter)
	familyHandler.RegisterRoutes(dataRouter)
	dashboardHandler.RegisterRoutes(dataRouter)
	backupHandler.RegisterRoutes(dataRouter)
	settingsHandler.RegisterRoutes(dataRouter)

	// Account review endpoints are restricted to the administrator
	adminRouter := authRouter.PathPrefix("/admin").Subrouter()
	adminRouter.Use(middleware.AdminMiddleware(resolver))
	userHandler.RegisterRoutes(adminRouter)
	adminRouter.Handle("/routes", PrintRoutesHandler(router)).Methods("GET")

	// Serve static files from the embedded bundle
	staticFiles := http.FileServer(web.GetFileSystem())
	router.PathPrefix("/static/").Handler(staticFiles)

	// Catch-all handler for serving the SPA
	router.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// For API requests, let the router handle them
		if strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
			return
		}

		// For all other requests, serve the index.html file
		r.URL.Path = "/"
		staticFiles.ServeHTTP(w, r)
	})

	return router, wsHub
}
