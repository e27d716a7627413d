package api

import (
	"database/sql"
	"net/http"

	"github.com/rs/cors"

	"github.com/erazemk/odpad/internal/lifecycle"
	"github.com/erazemk/odpad/internal/model"
	"github.com/erazemk/odpad/internal/notify"
)

// Options configures the router's collaborators. Zero values are usable:
// events go to the item_events table and notifications to the log.
type Options struct {
	Audit          notify.Recorder
	Notifier       notify.Notifier
	AllowedOrigins []string
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, jwtSecret string, opts Options) http.Handler {
	if opts.Audit == nil {
		opts.Audit = notify.StoreRecorder{DB: db}
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.LogNotifier{}
	}

	items := &lifecycle.ItemManager{DB: db, Audit: opts.Audit}
	pickups := &lifecycle.PickupManager{DB: db, Audit: opts.Audit, Notify: opts.Notifier}

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	usersHandler := &UsersHandler{DB: db}
	itemsHandler := &ItemsHandler{Items: items, Pickups: pickups}
	pickupsHandler := &PickupsHandler{Pickups: pickups}
	directoryHandler := &DirectoryHandler{DB: db, Pickups: pickups}
	reportsHandler := &ReportsHandler{DB: db}

	mux := http.NewServeMux()
	authMW := AuthMiddleware(jwtSecret, db)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireVendor := RequireRole(model.RoleVendor)
	requireReporter := RequireRole(model.RoleStudent, model.RoleCoordinator, model.RoleAdmin)
	requireCollector := RequireRole(model.RoleVendor, model.RoleAdmin)

	// Public.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/signup", authHandler.Signup)
	mux.HandleFunc("GET /api/departments", directoryHandler.ListDepartments)
	mux.HandleFunc("GET /api/campaigns", directoryHandler.ListCampaigns)
	mux.HandleFunc("POST /api/predict-price", reportsHandler.PredictPrice)
	mux.HandleFunc("GET /api/health", reportsHandler.Health)

	// Session.
	mux.Handle("GET /api/auth/session", authMW(http.HandlerFunc(authHandler.Session)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))

	// Users (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("PUT /api/users/{id}/password", authMW(requireAdmin(http.HandlerFunc(usersHandler.ResetPassword))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))

	// Items: read (all roles), report (reporters), change (admin; vendors may collect).
	mux.Handle("GET /api/items", authMW(http.HandlerFunc(itemsHandler.List)))
	mux.Handle("POST /api/items", authMW(requireReporter(http.HandlerFunc(itemsHandler.Create))))
	mux.Handle("GET /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Get)))
	mux.Handle("PATCH /api/items/{id}", authMW(requireCollector(http.HandlerFunc(itemsHandler.Update))))
	mux.Handle("GET /api/items/{id}/events", authMW(http.HandlerFunc(itemsHandler.ListEvents)))
	mux.Handle("POST /api/items/{id}/events", authMW(http.HandlerFunc(itemsHandler.RecordEvent)))
	mux.Handle("PUT /api/items/{id}/image", authMW(requireReporter(http.HandlerFunc(itemsHandler.UploadImage))))
	mux.Handle("GET /api/items/{id}/image", authMW(http.HandlerFunc(itemsHandler.GetImage)))
	mux.Handle("POST /api/items/{id}/collect", authMW(requireCollector(http.HandlerFunc(itemsHandler.Collect))))

	// Pickups.
	mux.Handle("POST /api/pickups", authMW(requireAdmin(http.HandlerFunc(pickupsHandler.Schedule))))
	mux.Handle("GET /api/admin/pickups", authMW(requireAdmin(http.HandlerFunc(pickupsHandler.ListAll))))
	mux.Handle("GET /api/vendor/pickups", authMW(requireVendor(http.HandlerFunc(pickupsHandler.ListForVendor))))
	mux.Handle("POST /api/vendor/pickup-response", authMW(requireVendor(http.HandlerFunc(pickupsHandler.Respond))))

	// Directory.
	mux.Handle("POST /api/departments", authMW(requireAdmin(http.HandlerFunc(directoryHandler.CreateDepartment))))
	mux.Handle("POST /api/campaigns", authMW(requireAdmin(http.HandlerFunc(directoryHandler.CreateCampaign))))
	mux.Handle("GET /api/vendors", authMW(requireAdmin(http.HandlerFunc(directoryHandler.ListVendors))))
	mux.Handle("POST /api/vendors", authMW(requireAdmin(http.HandlerFunc(directoryHandler.CreateVendor))))
	mux.Handle("PUT /api/vendors/{id}/availability", authMW(requireCollector(http.HandlerFunc(directoryHandler.SetAvailability))))

	// Reports (admin only).
	mux.Handle("GET /api/reports/summary", authMW(requireAdmin(http.HandlerFunc(reportsHandler.Summary))))
	mux.Handle("GET /api/analytics/{kind}", authMW(requireAdmin(http.HandlerFunc(reportsHandler.Analytics))))

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	})
	return RecoverMiddleware(c.Handler(mux))
}
