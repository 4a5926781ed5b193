package main

import (
	"log"
	"net/http"
	"time"

	"diagnosis-service/internal/config"
	"diagnosis-service/internal/db"
	"diagnosis-service/internal/event"
	"diagnosis-service/internal/handlers"
	"diagnosis-service/internal/repository"
	"diagnosis-service/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system env")
	}
	cfg := config.Load()

	db.InitMongo(cfg.MongoDB.URI, cfg.MongoDB.PoolSize, cfg.MongoDB.Timeout)
	defer db.Disconnect()

	// RabbitMQ event publisher
	var publisher *event.EventPublisher
	if cfg.RabbitMQ.URI != "" {
		var err error
		publisher, err = event.NewEventPublisher(cfg.RabbitMQ.URI, cfg.RabbitMQ.Exchange)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		defer publisher.Close()
	} else {
		log.Println("RabbitMQ not configured, diagnosis events will not be published")
	}

	database := db.Client.Database(cfg.MongoDB.Database)

	// Question bank
	questionRepo := repository.NewQuestionRepository(database)
	questionService := service.NewQuestionService(questionRepo)
	questionHandler := handlers.NewQuestionHandler(questionService)

	// Knowledge point catalog, owned by the knowledge service
	knowledgeRepo := repository.NewKnowledgePointRepository(database)

	// Diagnosis reports, sessions, responses and weakness points
	reportRepo := repository.NewReportRepository(database)
	sessionRepo := repository.NewSessionRepository(database)
	responseRepo := repository.NewResponseRepository(database)
	weaknessRepo := repository.NewWeaknessRepository(database)

	diagnosisService := service.NewDiagnosisService(
		reportRepo,
		sessionRepo,
		responseRepo,
		weaknessRepo,
		questionRepo,
		knowledgeRepo,
		publisher,
		cfg.Diagnosis.AdaptiveConfig(),
	)
	diagnosisHandler := handlers.NewDiagnosisHandler(diagnosisService)

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Content-Length", "Accept-Encoding", "X-CSRF-Token", "Authorization", "accept", "origin", "Cache-Control", "X-Requested-With", "X-User-ID"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", diagnosisHandler.HealthCheck)

	// Public routes - completed results and read-only session state
	publicDiagnosis := r.Group("/public/diagnosis")
	{
		publicDiagnosis.GET("/report/:id", diagnosisHandler.GetReport)
		publicDiagnosis.GET("/report/:id/heatmap", diagnosisHandler.GetHeatmap)
		publicDiagnosis.GET("/report/:id/weaknesses", diagnosisHandler.GetWeaknesses)
		publicDiagnosis.GET("/session/:id", diagnosisHandler.GetSession)
		publicDiagnosis.GET("/session/:id/status", diagnosisHandler.GetSessionStatus)
		publicDiagnosis.GET("/session/:id/pattern", diagnosisHandler.GetSessionPattern)
		publicDiagnosis.GET("/knowledge-points", diagnosisHandler.ListKnowledgePoints)
	}

	// Protected routes - everything that creates or mutates state
	protectedDiagnosis := r.Group("/protected/diagnosis", requireUser())
	{
		protectedDiagnosis.POST("/report", diagnosisHandler.CreateReport)
		protectedDiagnosis.GET("/reports", diagnosisHandler.ListReports)
		protectedDiagnosis.POST("/report/:id/session", diagnosisHandler.StartSession)
		protectedDiagnosis.POST("/report/:id/complete", diagnosisHandler.CompleteReport)
		protectedDiagnosis.DELETE("/report/:id", diagnosisHandler.DeleteReport)
		protectedDiagnosis.GET("/session/:id/next", diagnosisHandler.NextItem)
		protectedDiagnosis.POST("/session/:id/answer", diagnosisHandler.SubmitAnswer)
		protectedDiagnosis.POST("/session/:id/cancel", diagnosisHandler.CancelSession)
	}

	// Question bank administration
	protectedQuestion := r.Group("/protected/diagnosis/question", requireUser())
	{
		protectedQuestion.POST("/", questionHandler.CreateQuestion)
		protectedQuestion.GET("/", questionHandler.ListQuestions)
		protectedQuestion.GET("/pool-info", questionHandler.GetPoolInfo)
		protectedQuestion.GET("/:id", questionHandler.GetQuestion)
		protectedQuestion.PUT("/:id", questionHandler.UpdateQuestion)
		protectedQuestion.DELETE("/:id", questionHandler.DeleteQuestion)
		protectedQuestion.POST("/bulk", questionHandler.BulkImportQuestions)
	}

	r.Run(cfg.Server.Host + ":" + cfg.Server.Port)
}

// requireUser rejects requests missing the identity header set by the
// gateway
func requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("X-User-ID") == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
				"code":  "MISSING_USER_ID",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
