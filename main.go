package main

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/mjozefiak/polcare/api"
	"github.com/mjozefiak/polcare/config"
	"github.com/mjozefiak/polcare/database"
	"github.com/mjozefiak/polcare/middleware"
	"github.com/mjozefiak/polcare/repository"
	"github.com/mjozefiak/polcare/services"
)

func main() {
	// Load application configuration
	config.LoadConfig()

	// Initialize database connection and reference data
	db, err := database.Init()
	if err != nil {
		log.Fatalf("FATAL: [Main] Failed to initialize database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("FATAL: [Main] Failed to auto-migrate database: %v", err)
	}
	if err := database.SeedReferenceData(db); err != nil {
		log.Fatalf("FATAL: [Main] Failed to seed reference data: %v", err)
	}

	// Initialize Repositories
	pharmacyRepo := repository.NewPharmacyRepository(db)
	doctorRepo := repository.NewDoctorRepository(db)
	log.Println("INFO: [Main] Repositories initialized.")

	// Initialize Services
	store := services.NewChatStore()
	completions := services.NewCompletionClient(config.AppConfig.LLM)
	interpreter := services.NewResponseInterpreter()
	dispatcher := services.NewTriageDispatcher(store, pharmacyRepo, config.AppConfig.Chat)
	conversation := services.NewConversationService(store, completions, interpreter, dispatcher, config.AppConfig.Chat)
	log.Println("INFO: [Main] Services initialized.")

	// Greet the user once the session starts with an empty transcript.
	conversation.StartSession()

	// Initialize API Handler with all dependencies
	apiHandler := api.NewAPIHandler(store, conversation, pharmacyRepo, doctorRepo)
	log.Println("INFO: [Main] API Handler initialized.")

	// Create Gin engine
	r := gin.Default()
	r.SetTrustedProxies(nil)

	// Register middlewares
	r.Use(middleware.Logger())
	r.Use(middleware.Cors())
	log.Println("INFO: [Main] Middlewares registered.")

	// Register routes
	registerRoutes(r, apiHandler)
	log.Println("INFO: [Main] Routes registered.")

	// Start the server
	serverPort := ":" + config.AppConfig.Server.Port
	if config.AppConfig.Server.Port == "" {
		log.Println("WARN: [Main] Server port not configured, using default :8080.")
		serverPort = ":8080"
	}
	log.Printf("INFO: [Main] Starting server on port %s", serverPort)
	if err := r.Run(serverPort); err != nil {
		log.Fatalf("FATAL: [Main] Server failed to start: %v", err)
	}
}

func registerRoutes(r *gin.Engine, handler *api.APIHandler) {
	apiGroup := r.Group("/api")
	{
		chatGroup := apiGroup.Group("/chat")
		{
			chatGroup.POST("", handler.ChatHandler)
			chatGroup.GET("/history", handler.ChatHistoryHandler)
			chatGroup.POST("/clear", handler.ClearChatHandler)
		}
		apiGroup.GET("/pharmacies", handler.PharmaciesHandler)
		apiGroup.GET("/doctors", handler.DoctorsHandler)
	}
}
