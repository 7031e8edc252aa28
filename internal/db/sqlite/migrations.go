package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Row models used only by AutoMigrate. Column names match the wire format the
// mobile client has always used, so they stay camelCase rather than GORM's
// default snake_case.

type promptRow struct {
	UUID                          string `gorm:"column:uuid;primaryKey;type:text"`
	PromptText                    string `gorm:"column:promptText;type:text;index:idx_prompts_text;not null"`
	ResponseType                  string `gorm:"column:responseType;type:text;not null"`
	NotificationConfigDays        string `gorm:"column:notificationConfig_days;type:text;not null"`
	NotificationConfigStartTime   string `gorm:"column:notificationConfig_startTime;type:text;not null"`
	NotificationConfigEndTime     string `gorm:"column:notificationConfig_endTime;type:text;not null"`
	NotificationConfigCountPerDay int    `gorm:"column:notificationConfig_countPerDay;not null"`
}

func (promptRow) TableName() string { return "prompts" }

type promptResponseRow struct {
	PromptUUID        string `gorm:"column:promptUuid;type:text;index:idx_responses_prompt;not null"`
	Value             string `gorm:"column:value;type:text;not null"`
	TriggerTimestamp  int64  `gorm:"column:triggerTimestamp;not null"`
	ResponseTimestamp int64  `gorm:"column:responseTimestamp;not null"`
}

func (promptResponseRow) TableName() string { return "prompt_responses" }

// runMigrations runs all schema migrations using gormigrate over the raw
// connection. Runtime queries stay on database/sql; GORM is only the
// migration vehicle.
func runMigrations(sqlDB *sql.DB) error {
	db, err := gorm.Open(sqlite.Dialector{Conn: sqlDB}, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("open gorm: %w", err)
	}

	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		// Migration 001: prompts table
		{
			ID: "001_prompts",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&promptRow{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("prompts")
			},
		},

		// Migration 002: prompt_responses table (append-only, no primary key
		// beyond the implicit rowid)
		{
			ID: "002_prompt_responses",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&promptResponseRow{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("prompt_responses")
			},
		},
	})

	if err := m.Migrate(); err != nil {
		return fmt.Errorf("run gormigrate migrations: %w", err)
	}

	return nil
}
