package testutil

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/yuqie6/GitQuest/internal/schema"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenTestDB 打开内存 SQLite 并自动迁移所有表
func OpenTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	// :memory: 每个连接是独立的库，固定单连接
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(
		&schema.ActivitySnapshot{},
		&schema.StreakState{},
		&schema.Challenge{},
		&schema.XPEntry{},
		&schema.UserProgress{},
		&schema.CacheEntry{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS uniq_active_challenge
		ON challenges (user_id, type, target_metric) WHERE status = 'active'`).Error; err != nil {
		t.Fatalf("create partial index: %v", err)
	}

	return db
}

// FailInserts 让指定表的 INSERT 失败，用于模拟写入中途出错
func FailInserts(t *testing.T, db *gorm.DB, table string) {
	t.Helper()
	stmt := "CREATE TRIGGER fail_" + table + " BEFORE INSERT ON " + table +
		" BEGIN SELECT RAISE(ABORT, 'disk full'); END;"
	if err := db.Exec(stmt).Error; err != nil {
		t.Fatalf("create trigger: %v", err)
	}
}
