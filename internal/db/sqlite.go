package db

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// OpenMemory opens a private in-memory sqlite database with the full schema
// applied. Each call gets its own database; used by the test harnesses.
func OpenMemory() (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory db: %w", err)
	}
	if err := gdb.AutoMigrate(Models()...); err != nil {
		return nil, fmt.Errorf("migrate sqlite memory db: %w", err)
	}
	return gdb, nil
}
