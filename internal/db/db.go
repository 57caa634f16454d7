package db

import (
	"context"
	"log"

	"github.com/go-redis/redis/v8"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/famledger/famledger/internal/config"
	"github.com/famledger/famledger/internal/models"
)

// Connect establishes a connection to the database and prepares the
// schema.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.Database.URL), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	// Create the administrator account if none exists
	createDefaultAdmin(db, cfg.Admin)

	return db, nil
}

// Migrate creates or updates the schema for all persisted models.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.FamilyMember{},
		&models.Transaction{},
	)
}

// ConnectRedis establishes a connection to Redis
func ConnectRedis(config config.RedisConfig) (*redis.Client, error) {
	opt, err := redis.ParseURL(config.URL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)
	ctx := context.Background()

	// Test the connection
	_, err = client.Ping(ctx).Result()
	if err != nil {
		return nil, err
	}

	return client, nil
}

// createDefaultAdmin creates the administrator account if no users
// exist. The admin is approved with no expiry so access checks never
// lock the instance out.
func createDefaultAdmin(db *gorm.DB, admin config.AdminConfig) {
	var userCount int64
	db.Model(&models.User{}).Count(&userCount)
	if userCount == 0 {
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte(admin.Password), bcrypt.DefaultCost)
		db.Create(&models.User{
			Email:          admin.Identifier,
			Username:       "admin",
			HashedPassword: string(hashedPassword),
			Role:           "admin",
			Status:         models.StatusApproved,
		})
		log.Println("Created default admin user")
	}
}
