package main

import (
	"log"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"uninet.id/campuslink/internal/config"
	"uninet.id/campuslink/internal/entity"
	"uninet.id/campuslink/internal/server"
	"uninet.id/campuslink/pkg/database"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db := database.Connect()

	if err := migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	seedRoles(db)
	if cfg.AppEnv == "development" {
		seedAdminUser(db)
	}

	redisClient := connectRedis(cfg.RedisURL)

	srv := server.NewServer(cfg, db, redisClient)

	log.Printf("🚀 Server starting on port %s", cfg.Port)
	if err := srv.Run(":" + cfg.Port); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}

func connectRedis(redisURL string) *redis.Client {
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Printf("❌ Invalid REDIS_URL, realtime features disabled: %v", err)
		return nil
	}

	return redis.NewClient(opts)
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.Role{},
		&entity.User{},
		&entity.Friendship{},
		&entity.Channel{},
		&entity.Message{},
		&entity.Vote{},
		&entity.RepositoryItem{},
		&entity.DownloadHistory{},
		&entity.Ticket{},
		&entity.Task{},
		&entity.Reminder{},
		&entity.Notification{},
	)
}

func seedRoles(db *gorm.DB) {
	roles := []entity.Role{
		{Name: entity.RoleAdmin, Description: "Administrator"},
		{Name: entity.RoleStudent, Description: "Student"},
	}

	for _, role := range roles {
		var count int64
		db.Model(&entity.Role{}).Where("name = ?", role.Name).Count(&count)
		if count == 0 {
			if err := db.Create(&role).Error; err != nil {
				log.Printf("❌ Failed to seed role %s: %v", role.Name, err)
			} else {
				log.Printf("✅ Role %s seeded successfully", role.Name)
			}
		}
	}
}

// seedAdminUser creates a default admin account for local development only.
func seedAdminUser(db *gorm.DB) {
	var count int64
	db.Model(&entity.User{}).
		Joins("JOIN roles ON roles.id = users.role_id").
		Where("roles.name = ?", entity.RoleAdmin).
		Count(&count)
	if count > 0 {
		return
	}

	var adminRole entity.Role
	if err := db.Where("name = ?", entity.RoleAdmin).First(&adminRole).Error; err != nil {
		log.Printf("❌ Admin role not found, skipping admin seed: %v", err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("❌ Failed to hash admin password: %v", err)
		return
	}

	admin := entity.User{
		Username:     "admin",
		Email:        "admin@campuslink.test",
		PasswordHash: string(hash),
		Name:         "Administrator",
		RoleID:       &adminRole.ID,
	}
	if err := db.Create(&admin).Error; err != nil {
		log.Printf("❌ Failed to seed admin user: %v", err)
		return
	}

	log.Println("✅ Admin user seeded successfully (admin@campuslink.test / admin123)")
}
