package repo

import (
	"SchemaDesk/internal/model"
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// DefaultSQLitePath используется, если строка подключения не задана.
const DefaultSQLitePath = "schemadesk.db"

// InitDB открывает БД по строке подключения и прогоняет миграции.
// postgres:// и postgresql:// (а также DSN вида "host=...") уходят в Postgres,
// всё остальное считается путём к файлу SQLite.
func InitDB(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(dialectorFor(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate создаёт или обновляет таблицы моделей.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.User{}, &model.Document{}, &model.Blob{}); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}

func dialectorFor(dsn string) gorm.Dialector {
	switch {
	case strings.HasPrefix(dsn, "postgres://"),
		strings.HasPrefix(dsn, "postgresql://"),
		strings.Contains(dsn, "host="):
		return postgres.Open(dsn)
	case dsn == "":
		dsn = DefaultSQLitePath
	}
	// modernc.org/sqlite регистрируется под именем "sqlite" и не требует cgo
	return gormsqlite.Dialector{DriverName: "sqlite", DSN: dsn}
}

func isPostgres(db *gorm.DB) bool {
	return db.Dialector.Name() == "postgres"
}
