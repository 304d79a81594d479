package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gobikevn/bikerental-backend/internal/database"
	"github.com/gobikevn/bikerental-backend/internal/handlers"
	"github.com/gobikevn/bikerental-backend/internal/middleware"
	"github.com/gobikevn/bikerental-backend/internal/services"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	db, err := database.InitDB()
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Get underlying SQL DB instance
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get database instance: %v", err)
	}

	// Configure connection pool
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// Initialize Redis (optional - caching and pub/sub degrade gracefully)
	if err := services.InitRedis(); err != nil {
		log.Printf("Redis initialization warning: %v", err)
	}

	// Initialize Storage (S3 or local fallback)
	if err := services.InitStorage(); err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	// Initialize WebSocket hub
	hub := services.NewHub()
	go hub.Run()

	rentalService := services.NewRentalService(db, hub)
	reportService := services.NewReportService(db)

	// Periodically repair station bike counts that drifted from the bikes
	// table
	scheduler := cron.New()
	if _, err := scheduler.AddFunc("*/5 * * * *", func() {
		if err := services.ReconcileStationAvailability(context.Background(), db); err != nil {
			log.Printf("Station reconciliation failed: %v", err)
		}
	}); err != nil {
		log.Fatalf("Failed to schedule reconciliation job: %v", err)
	}
	scheduler.Start()

	// Initialize router
	r := gin.Default()

	// Configure CORS
	config := cors.DefaultConfig()
	config.AllowOrigins = []string{"*"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	r.Use(cors.New(config))

	// Serve locally stored images
	r.Static("/uploads", "./uploads")

	// Routes
	api := r.Group("/api")
	{
		// Public routes
		auth := api.Group("/auth")
		{
			auth.POST("/register", handlers.Register(db))
			auth.POST("/login", handlers.Login(db))
			auth.POST("/forgot-password", handlers.ForgotPassword(db))
			auth.POST("/verify-otp", handlers.VerifyOTP(db))
			auth.POST("/reset-password", handlers.ResetPassword(db))
		}

		api.GET("/bikes", handlers.ListBikes(db))
		api.GET("/bikes/types", handlers.BikeTypes())
		api.GET("/bikes/:id", handlers.GetBike(db))
		api.GET("/stations", handlers.ListStations(db))
		api.GET("/stations/nearby", handlers.NearbyStations(db))
		api.GET("/stations/:id", handlers.GetStation(db))
		api.GET("/services", handlers.ListCatalogServices(db))

		// WebSocket connection
		api.GET("/ws", middleware.AuthMiddleware(), handlers.WebSocketHandler(hub))

		// Protected routes
		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware())
		{
			users := protected.Group("/users")
			{
				users.GET("/profile", handlers.GetProfile(db))
				users.PUT("/profile", handlers.UpdateProfile(db))
				users.PUT("/password", handlers.ChangePassword(db))
				users.POST("/avatar", handlers.UploadAvatar(db))
			}

			rentals := protected.Group("/rentals")
			{
				rentals.POST("", handlers.CreateRental(rentalService))
				rentals.GET("/active", handlers.MyActiveRentals(db))
				rentals.GET("/history", handlers.MyRentalHistory(db))
				rentals.POST("/:id/return", handlers.RequestReturn(rentalService))
				rentals.POST("/:id/cancel", handlers.CancelRental(rentalService))
			}

			// Admin routes
			admin := protected.Group("/admin")
			admin.Use(middleware.AdminOnly())
			{
				admin.GET("/customers", handlers.ListCustomers(db))
				admin.GET("/customers/:id", handlers.GetCustomer(db))
				admin.PUT("/customers/:id", handlers.UpdateCustomer(db))
				admin.DELETE("/customers/:id", handlers.DeleteCustomer(db))

				admin.POST("/bikes", handlers.CreateBike(db, hub))
				admin.PUT("/bikes/:id", handlers.UpdateBike(db, hub))
				admin.DELETE("/bikes/:id", handlers.DeleteBike(db, hub))

				admin.POST("/stations", handlers.CreateStation(db, hub))
				admin.PUT("/stations/:id", handlers.UpdateStation(db, hub))
				admin.DELETE("/stations/:id", handlers.DeleteStation(db, hub))

				admin.POST("/services", handlers.CreateCatalogService(db, hub))
				admin.PUT("/services/:id", handlers.UpdateCatalogService(db, hub))
				admin.DELETE("/services/:id", handlers.DeleteCatalogService(db, hub))

				admin.GET("/rentals", handlers.ListRentals(db))
				admin.POST("/rentals", handlers.CreateRentalForUser(rentalService))
				admin.PATCH("/rentals/:id", handlers.UpdateRental(rentalService))
				admin.POST("/rentals/:id/confirm-return", handlers.ConfirmReturn(rentalService))

				reports := admin.Group("/reports")
				{
					reports.GET("/revenue", handlers.Revenue(reportService))
					reports.GET("/revenue/bikes", handlers.RevenueByBike(reportService))
					reports.GET("/revenue/stations", handlers.RevenueByStation(reportService))
					reports.GET("/top-customers", handlers.TopCustomers(reportService))
					reports.GET("/dashboard", handlers.Dashboard(reportService))
				}
			}
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	if err := r.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
