// main.go
package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hamzawaheed/patient-registry/config"
	"github.com/hamzawaheed/patient-registry/endpoint"
	"github.com/hamzawaheed/patient-registry/middleware"
	"github.com/hamzawaheed/patient-registry/model"
	"github.com/hamzawaheed/patient-registry/util"
)

func main() {
	// Load the configuration
	cfg := config.LoadConfig()

	db, err := config.ConnectDatabase()
	if err != nil {
		log.Fatalf("Error connecting to database: %v", err)
	}
	if err := db.AutoMigrate(
		&model.User{},
		&model.Session{},
		&model.Patient{},
		&model.Profile{},
		&model.AuditLog{},
	); err != nil {
		log.Fatalf("Error migrating schema: %v", err)
	}
	util.SetAuditLoggerDB(db)

	if _, err := config.ConnectRedis(); err != nil {
		log.Printf("Redis unavailable, session caching disabled: %v", err)
	}

	// Set Gin mode from config
	gin.SetMode(cfg.GinMode)

	router := gin.Default()
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.DatabaseMiddleware(db))
	router.Use(middleware.EndpointCallLogger())

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": fmt.Sprintf("Welcome to %s!", cfg.AppName),
		})
	})

	router.POST("/user", endpoint.CreateUser)
	router.POST("/login", middleware.RateLimiter(middleware.RateLimitConfig{Limit: 5, Window: 15 * time.Minute}), endpoint.Login)
	router.GET("/token/validate", endpoint.ValidateToken)

	authed := router.Group("/", middleware.ValidateLoginToken())
	authed.DELETE("/logout", endpoint.Logout)

	authed.GET("/patient", endpoint.ListPatients)
	authed.POST("/patient", endpoint.CreatePatient)
	authed.GET("/patient/:id", endpoint.GetPatientInfo)
	authed.PATCH("/patient/:id", endpoint.UpdatePatient)
	authed.DELETE("/patient/:id", endpoint.DeletePatient)

	authed.GET("/profile", endpoint.GetProfile)
	authed.PUT("/profile", endpoint.SaveProfile)

	// Start server on specified port
	address := fmt.Sprintf(":%d", cfg.AppPort)
	if err := router.Run(address); err != nil {
		log.Fatalf("error starting server: %v", err)
	}
}
