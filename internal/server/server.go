package server

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"uninet.id/campuslink/internal/config"
	"uninet.id/campuslink/internal/entity"
	"uninet.id/campuslink/internal/middleware"
	"uninet.id/campuslink/pkg/storage"

	channelHttp "uninet.id/campuslink/internal/modules/channel/delivery/http"
	channelRepo "uninet.id/campuslink/internal/modules/channel/repository"
	channelService "uninet.id/campuslink/internal/modules/channel/service"

	friendshipHttp "uninet.id/campuslink/internal/modules/friendship/delivery/http"
	friendshipRepo "uninet.id/campuslink/internal/modules/friendship/repository"
	friendshipService "uninet.id/campuslink/internal/modules/friendship/service"

	moderationHttp "uninet.id/campuslink/internal/modules/moderation/delivery/http"
	moderationRepo "uninet.id/campuslink/internal/modules/moderation/repository"
	moderationService "uninet.id/campuslink/internal/modules/moderation/service"

	notiHttp "uninet.id/campuslink/internal/modules/notification/delivery/http"
	notifRepo "uninet.id/campuslink/internal/modules/notification/repository"
	notifService "uninet.id/campuslink/internal/modules/notification/service"

	repoHttp "uninet.id/campuslink/internal/modules/repository/delivery/http"
	repoRepo "uninet.id/campuslink/internal/modules/repository/repository"
	repoService "uninet.id/campuslink/internal/modules/repository/service"

	schedulerHttp "uninet.id/campuslink/internal/modules/scheduler/delivery/http"
	schedulerRepo "uninet.id/campuslink/internal/modules/scheduler/repository"
	schedulerService "uninet.id/campuslink/internal/modules/scheduler/service"

	searchService "uninet.id/campuslink/internal/modules/search/service"

	ticketHttp "uninet.id/campuslink/internal/modules/ticket/delivery/http"
	ticketRepo "uninet.id/campuslink/internal/modules/ticket/repository"
	ticketService "uninet.id/campuslink/internal/modules/ticket/service"

	userHttp "uninet.id/campuslink/internal/modules/user/delivery/http"
	userRepo "uninet.id/campuslink/internal/modules/user/repository"
	userService "uninet.id/campuslink/internal/modules/user/service"

	voteHttp "uninet.id/campuslink/internal/modules/vote/delivery/http"
	voteRepo "uninet.id/campuslink/internal/modules/vote/repository"
	voteService "uninet.id/campuslink/internal/modules/vote/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

type Server struct {
	engine      *gin.Engine
	cron        *cron.Cron
	db          *gorm.DB
	redisClient *redis.Client
}

func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) *Server {
	users := userRepo.NewUserRepository(db)

	fileStorage, err := storage.NewCloudinaryStorage()
	if err != nil {
		log.Printf("Cloudinary storage unavailable, uploads disabled: %v", err)
		fileStorage = nil
	}

	// Initialize Meilisearch
	meiliHost := cfg.MeiliSearchHost
	if !strings.HasPrefix(meiliHost, "http") {
		meiliHost = "http://" + meiliHost + ":7700"
	}
	meiliClient := meilisearch.New(meiliHost, meilisearch.WithAPIKey(cfg.MeiliMasterKey))
	userSearch := searchService.NewUserSearchService(meiliClient)

	// Notification module first: the ledgers publish through it.
	notificationRepository := notifRepo.NewNotificationRepository(db)
	notificationSvc := notifService.NewNotificationService(notificationRepository, redisClient)
	notificationHandler := notiHttp.NewNotificationHandler(notificationSvc, redisClient)

	friendships := friendshipRepo.NewFriendshipRepository(db)
	friendshipSvc := friendshipService.NewFriendshipService(friendships, users, notificationSvc)
	friendshipHandler := friendshipHttp.NewFriendshipHandler(friendshipSvc)

	moderations := moderationRepo.NewModerationRepository(db)
	moderationSvc := moderationService.NewModerationService(moderations, users, notificationSvc)
	moderationHandler := moderationHttp.NewModerationHandler(moderationSvc)

	userSvc := userService.NewUserService(users, userSearch, moderationSvc, friendshipSvc,
		cfg.JWTSecret, cfg.JWTTTLMinutes)
	userHandler := userHttp.NewUserHandler(userSvc)

	channels := channelRepo.NewChannelRepository(db)
	channelSvc := channelService.NewChannelService(channels, users)

	tickets := ticketRepo.NewTicketRepository(db)
	ticketSvc := ticketService.NewTicketService(tickets, channels, users, notificationSvc, cfg.StrictTicketFlow)
	ticketHandler := ticketHttp.NewTicketHandler(ticketSvc)

	votes := voteRepo.NewVoteRepository(db)
	voteSvc := voteService.NewVoteService(votes, redisClient, notificationSvc, cfg.EnableUnvote)
	voteHandler := voteHttp.NewVoteHandler(voteSvc)

	hub := channelHttp.NewHub()
	channelHandler := channelHttp.NewChannelHandler(channelSvc, voteSvc, users, hub)

	items := repoRepo.NewItemRepository(db)
	repositorySvc := repoService.NewRepositoryService(items, fileStorage, voteSvc)
	repositoryHandler := repoHttp.NewRepositoryHandler(repositorySvc, users)

	schedules := schedulerRepo.NewSchedulerRepository(db)
	schedulerSvc := schedulerService.NewSchedulerService(schedules, notificationSvc)
	schedulerHandler := schedulerHttp.NewSchedulerHandler(schedulerSvc)

	// Periodic sweeps: expired suspensions and due reminders.
	c := cron.New()
	spec := fmt.Sprintf("@every %s", cfg.SweepInterval)
	if _, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if n, err := moderationSvc.SweepExpired(ctx); err != nil {
			log.Printf("❌ Suspension sweep failed: %v", err)
		} else if n > 0 {
			log.Printf("✅ Suspension sweep reactivated %d account(s)", n)
		}

		if n, err := schedulerSvc.DueSweep(ctx); err != nil {
			log.Printf("❌ Reminder sweep failed: %v", err)
		} else if n > 0 {
			log.Printf("✅ Reminder sweep fired %d reminder(s)", n)
		}
	}); err != nil {
		log.Fatalf("failed to schedule sweeps: %v", err)
	}

	router := gin.New()
	setupCORS(router, cfg)
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	authMiddleware := middleware.NewAuthMiddleware(users)

	api := router.Group("/api")

	// Public routes (no auth required)
	auth := api.Group("/auth")
	{
		auth.POST("/register", userHandler.Register)
		auth.POST("/login", userHandler.Login)
	}

	// Protected routes (apply auth middleware explicitly)
	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		// Admin routes
		adminGroup := protected.Group("/admin")
		adminGroup.Use(authMiddleware.RequireAdmin())
		{
			adminGroup.GET("/users", moderationHandler.ListUsers)
			adminGroup.GET("/users/:id", moderationHandler.GetUser)
			adminGroup.POST("/users/:id/suspend", moderationHandler.SuspendUser)
			adminGroup.POST("/users/:id/ban", moderationHandler.BanUser)
			adminGroup.POST("/users/:id/reactivate", moderationHandler.ReactivateUser)
			adminGroup.POST("/users/:id/notify", moderationHandler.NotifyUser)

			adminGroup.GET("/tickets", ticketHandler.List)
			adminGroup.GET("/tickets/stats", ticketHandler.Stats)
			adminGroup.GET("/tickets/:id", ticketHandler.Get)
			adminGroup.POST("/tickets/:id/assign", ticketHandler.Assign)
			adminGroup.PUT("/tickets/:id/status", ticketHandler.SetStatus)
		}

		// Profile routes
		protected.GET("/users/me", userHandler.Me)
		protected.PUT("/users/me", userHandler.UpdateProfile)
		protected.GET("/users/search", userHandler.Search)

		// Friendship routes
		protected.POST("/friends/requests", friendshipHandler.SendRequest)
		protected.PUT("/friends/requests/:id/accept", friendshipHandler.AcceptRequest)
		protected.GET("/friends", friendshipHandler.ListFriends)
		protected.GET("/friends/requests/pending", friendshipHandler.ListPending)
		protected.GET("/friends/requests/sent", friendshipHandler.ListSent)
		protected.DELETE("/friends/:userId", friendshipHandler.Remove)

		// Ticket routes
		protected.POST("/tickets", ticketHandler.Create)
		protected.POST("/tickets/report", ticketHandler.ReportMessage)
		protected.GET("/tickets/me", ticketHandler.ListMine)
		protected.GET("/tickets/me/:id", ticketHandler.GetMine)

		// Channel routes
		protected.POST("/channels", channelHandler.Create)
		protected.GET("/channels", channelHandler.List)
		protected.GET("/channels/:id", channelHandler.Room)
		protected.GET("/channels/:id/ws", channelHandler.JoinRoom)
		protected.POST("/channels/:id/messages", channelHandler.PostMessage)
		protected.DELETE("/channels/:id", channelHandler.Delete)

		channelVotes := protected.Group("/channels/:id/votes", voteHttp.WithKind(entity.VotableChannel))
		{
			channelVotes.POST("", voteHandler.Cast)
			channelVotes.DELETE("", voteHandler.Retract)
			channelVotes.GET("", voteHandler.Counts)
		}

		// Course repository routes
		protected.POST("/repository", repositoryHandler.Upload)
		protected.GET("/repository", repositoryHandler.List)
		protected.GET("/repository/downloads", repositoryHandler.MyDownloads)
		protected.GET("/repository/:id", repositoryHandler.Get)
		protected.GET("/repository/:id/download", repositoryHandler.Download)
		protected.DELETE("/repository/:id", repositoryHandler.Delete)

		repositoryVotes := protected.Group("/repository/:id/votes", voteHttp.WithKind(entity.VotableRepository))
		{
			repositoryVotes.POST("", voteHandler.Cast)
			repositoryVotes.DELETE("", voteHandler.Retract)
			repositoryVotes.GET("", voteHandler.Counts)
		}

		// Scheduler routes
		protected.POST("/tasks", schedulerHandler.CreateTask)
		protected.GET("/tasks", schedulerHandler.ListTasks)
		protected.PUT("/tasks/:id", schedulerHandler.UpdateTask)
		protected.DELETE("/tasks/:id", schedulerHandler.DeleteTask)
		protected.POST("/tasks/:id/complete", schedulerHandler.MarkComplete)
		protected.GET("/tasks/:id/reminders", schedulerHandler.ListReminders)

		// Notification routes
		protected.GET("/notifications", notificationHandler.GetNotifications)
		protected.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		protected.PUT("/notifications/:id/read", notificationHandler.MarkAsRead)
		protected.PUT("/notifications/read-all", notificationHandler.MarkAllAsRead)
		protected.PUT("/notifications/:id/dismiss", notificationHandler.Dismiss)
		protected.GET("/notifications/ws", notificationHandler.HandleWebSocket)
	}

	return &Server{
		engine:      router,
		cron:        c,
		db:          db,
		redisClient: redisClient,
	}
}

func (s *Server) Run(addr string) error {
	s.cron.Start()
	defer s.cron.Stop()
	return s.engine.Run(addr)
}

func setupCORS(router *gin.Engine, cfg *config.Config) {
	origins := strings.Split(cfg.AllowedOrigins, ",")

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
