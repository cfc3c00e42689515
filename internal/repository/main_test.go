package repository

import (
	"testing"
	"time"

	"blackdonut/internal/database"
	"blackdonut/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB returns a migrated in-memory sqlite database. A single
// connection keeps every statement on the same in-memory database.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return gormDB, mock
}

func seedPartner(t *testing.T, db *gorm.DB, email string) *models.FoodPartner {
	t.Helper()
	p := &models.FoodPartner{Name: "Donut Hut", ContactName: "Sam", Phone: "555", Address: "1 Main", Email: email, Password: "x"}
	require.NoError(t, db.Create(p).Error)
	return p
}

func seedUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	u := &models.User{FullName: "Ada", Email: email, Password: "x"}
	require.NoError(t, db.Create(u).Error)
	return u
}

func seedFood(t *testing.T, db *gorm.DB, partnerID uint, name string) *models.Food {
	t.Helper()
	f := &models.Food{Name: name, Description: "tasty", Video: "https://cdn.test/v.mp4", FoodPartnerID: partnerID}
	require.NoError(t, db.Create(f).Error)
	return f
}

func reloadFood(t *testing.T, db *gorm.DB, id uint) *models.Food {
	t.Helper()
	var f models.Food
	require.NoError(t, db.First(&f, id).Error)
	return &f
}

func at(minute int) time.Time {
	return time.Date(2026, 1, 1, 12, minute, 0, 0, time.UTC)
}
