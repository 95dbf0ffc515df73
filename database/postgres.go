package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"splitledger/models"
)

// Connect opens the postgres database and migrates every table the service
// owns.
func Connect(dsn string, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	log.Info("✅ Database connected successfully")

	err = db.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.GroupMember{},
		&models.LedgerEvent{},
	)
	if err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	log.Info("✅ Database migrated successfully")
	return db, nil
}

// gormConfig turns driver errors into gorm's sentinel errors so duplicate
// keys surface as gorm.ErrDuplicatedKey.
func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	}
}
