package database

import (
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/istoking/illicitrp-site/internal/models"
)

var DB *gorm.DB

// Connect opens the game database (MySQL, QBCore schema) and migrates
// the CAD-owned tables. Game tables (players, player_vehicles, mdt_*)
// are owned by the game server and never migrated from here.
func Connect(dsn string) error {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	if err := db.AutoMigrate(
		&models.CADUser{},
		&models.CADPermission{},
		&models.AuditLog{},
	); err != nil {
		return err
	}

	DB = db
	return nil
}
