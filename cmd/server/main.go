package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campus-events/config"
	"campus-events/internal/cache"
	"campus-events/internal/database"
	"campus-events/internal/handler"
	"campus-events/internal/notifier"
	"campus-events/internal/queue"
	"campus-events/internal/repository"
	"campus-events/internal/service"
	"campus-events/internal/ticketing"
	"campus-events/internal/worker"
	"campus-events/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	_ "github.com/joho/godotenv/autoload"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	log := logger.WithComponent("main")
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}
	logger.SetLevel(cfg.Server.LogLevel)
	gin.SetMode(cfg.Server.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.InitDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}

	var rdb *redis.Client
	if cfg.Admission.LockBackend == "redis" || cfg.Notice.QueueBackend == "redis" {
		rdb, err = database.InitRedis(&cfg.Redis)
		if err != nil {
			log.Fatal("Failed to initialize redis", zap.Error(err))
		}
		defer rdb.Close()
	}

	txRunner := database.NewTxRunner(pool, cfg.Admission.MaxTxRetries)

	var lock cache.AdmissionLock
	if cfg.Admission.LockBackend == "redis" {
		lock = cache.NewRedisAdmissionLock(rdb, cfg.Admission.LockTTL, cfg.Admission.LockWait)
	} else {
		lock = cache.NewLocalAdmissionLock(cfg.Admission.LockWait)
	}

	var notices queue.NoticeQueue
	if cfg.Notice.QueueBackend == "redis" {
		notices, err = queue.NewRedisStreamNoticeQueue(ctx, rdb, "notice-worker-"+uuid.NewString(),
			&queue.RedisStreamNoticeQueueConfig{MaxAttempts: cfg.Notice.MaxAttempts})
		if err != nil {
			log.Fatal("Failed to initialize notice queue", zap.Error(err))
		}
	} else {
		notices = queue.NewNoticeQueue(cfg.Notice.QueueSize)
	}

	notifiers := []notifier.Notifier{notifier.NewLogNotifier()}
	if cfg.Notice.DiscordWebhookURL != "" {
		notifiers = append(notifiers, notifier.NewDiscordNotifier(cfg.Notice.DiscordWebhookURL, nil))
	}
	if cfg.Notice.AMQPURL != "" {
		amqpNotifier, err := notifier.NewAMQPNotifier(cfg.Notice.AMQPURL)
		if err != nil {
			log.Fatal("Failed to connect to AMQP broker", zap.Error(err))
		}
		defer amqpNotifier.Close()
		notifiers = append(notifiers, amqpNotifier)
	}

	noticeWorker := worker.NewNoticeWorker(notifier.NewMultiNotifier(notifiers...), notices)
	if err := noticeWorker.Start(ctx); err != nil {
		log.Fatal("Failed to start notice worker", zap.Error(err))
	}

	// repositories
	eventRepo := repository.NewEventRepository(pool)
	capacityRepo := repository.NewCapacityRepository(pool)
	participationRepo := repository.NewParticipationRepository(pool)
	paymentRepo := repository.NewPaymentRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	attendanceRepo := repository.NewAttendanceRepository(pool)
	userRepo := repository.NewUserRepository(pool)

	// services
	codec := ticketing.NewCodec(cfg.Ticket.SigningKey)
	ticketService := service.NewTicketService(txRunner, ticketRepo, participationRepo, codec)
	eventService := service.NewEventService(txRunner, eventRepo, capacityRepo, userRepo, notices)
	admissionService := service.NewAdmissionService(txRunner, lock, eventRepo, capacityRepo,
		participationRepo, paymentRepo, userRepo, ticketService)
	paymentService := service.NewPaymentService(txRunner, paymentRepo, participationRepo,
		eventRepo, capacityRepo, ticketService)
	attendanceService := service.NewAttendanceService(txRunner, attendanceRepo, eventRepo,
		participationRepo, ticketRepo, codec)

	router := gin.New()
	router.Use(gin.Recovery(), requestid.New())
	router.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.Server.AllowedOrigins,
		AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", handler.ActorHeader},
		ExposeHeaders: []string{"X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}))
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	handler.NewEventHandler(eventService).RegisterRoutes(router)
	handler.NewParticipationHandler(admissionService).RegisterRoutes(router)
	handler.NewPaymentHandler(paymentService).RegisterRoutes(router)
	handler.NewTicketHandler(ticketService).RegisterRoutes(router)
	handler.NewAttendanceHandler(attendanceService).RegisterRoutes(router)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}
	noticeWorker.Wait()
}
