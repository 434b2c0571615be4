package app

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"bsm-backend/internal/auth"
	"bsm-backend/internal/config"
	"bsm-backend/internal/database"
	"bsm-backend/internal/health"
	"bsm-backend/internal/imports"
	"bsm-backend/internal/middleware"
	"bsm-backend/internal/records"
	"bsm-backend/internal/statistics"
)

// CreateApp builds the Fiber app with all global middleware and routes.
func CreateApp(cfg *config.Config) (*fiber.App, error) {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          middleware.ErrorHandler,
		BodyLimit:             32 * 1024 * 1024, // spreadsheet uploads
	})

	// CORS (before session)
	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: cfg.AllowedOrigins,
	}))

	// Session (Redis)
	sessionCfg := middleware.SessionConfig{
		RedisURL:     cfg.RedisURL,
		IsProduction: cfg.IsProduction(),
	}
	sessionHandler, rdb, err := middleware.Session(sessionCfg)
	if err != nil {
		return nil, err
	}
	app.Use(sessionHandler)

	// Tracing + route logger
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())

	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		db, err = database.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := database.AutoMigrate(db); err != nil {
			return nil, err
		}
		if cfg.AdminUsername != "" && cfg.AdminPassword != "" {
			if err := auth.EnsureUser(db, cfg.AdminUsername, cfg.AdminPassword); err != nil {
				log.Error().Err(err).Msg("admin user seeding failed")
			}
		}
	}

	// --- Routes (no auth) ---
	healthHandlers := &health.Handlers{DB: db, Rdb: rdb}
	app.Get("/health/json", healthHandlers.JSON)

	authHandlers := &auth.Handlers{DB: db, Rdb: rdb, Config: sessionCfg}
	authGroup := app.Group("/api/v1/auth")
	authGroup.Post("/login", authHandlers.Login)
	authGroup.Delete("/logout", authHandlers.Logout)
	authGroup.Get("/profile", middleware.RequireAuth(), authHandlers.Profile)

	// --- Protected modules ---
	if db != nil {
		store := &records.Service{DB: db}
		recordHandlers := &records.Handlers{Service: store}

		importService := &imports.Service{DB: db, Store: store}
		importHandlers := &imports.Handlers{Service: importService}

		statsService := &statistics.Service{DB: db}
		statsHandlers := &statistics.Handlers{Service: statsService, Store: store}

		dataGroup := app.Group("/api/v1/data", middleware.RequireAuth())
		dataGroup.Post("/import", importHandlers.Import)
		dataGroup.Get("/export", importHandlers.Export)
		dataGroup.Get("/periods", recordHandlers.ListPeriods)
		dataGroup.Get("/slicers", statsHandlers.Slicers)
		dataGroup.Get("/distinct/:field", recordHandlers.DistinctValues)
		dataGroup.Get("/", recordHandlers.ListRecords)
		dataGroup.Put("/:id", recordHandlers.UpdateRecord)
		dataGroup.Delete("/:id", recordHandlers.DeleteRecord)
		dataGroup.Get("/:id/history", recordHandlers.History)

		analysisGroup := app.Group("/api/v1/analysis", middleware.RequireAuth())
		analysisGroup.Get("/summary", statsHandlers.Summary)
		analysisGroup.Get("/compare", statsHandlers.Compare)
	}

	return app, nil
}
