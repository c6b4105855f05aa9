package analytics

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"meditriage/internal/apperror"
)

// Store persists and reads triage logs.
type Store interface {
	Create(ctx context.Context, log *TriageLog) error
	GetBySession(ctx context.Context, sessionID string) (*TriageLog, error)
}

// TriageLogDAO is the gorm-backed Store.
type TriageLogDAO struct {
	db *gorm.DB
}

// OpenGorm wraps an existing connection pool so the catalog and the
// analytics writer share one set of Postgres connections.
func OpenGorm(sqlDB *sql.DB) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm session: %w", err)
	}
	return db, nil
}

func NewTriageLogDAO(db *gorm.DB) *TriageLogDAO {
	return &TriageLogDAO{db: db}
}

func (dao *TriageLogDAO) Create(ctx context.Context, log *TriageLog) error {
	if err := dao.db.WithContext(ctx).Create(log).Error; err != nil {
		return fmt.Errorf("failed to insert triage log: %w", err)
	}
	return nil
}

// GetBySession returns the most recent log of a session.
func (dao *TriageLogDAO) GetBySession(ctx context.Context, sessionID string) (*TriageLog, error) {
	var log TriageLog
	result := dao.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Take(&log)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("triage log for session %s: %w", sessionID, apperror.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get triage log: %w", result.Error)
	}
	return &log, nil
}
