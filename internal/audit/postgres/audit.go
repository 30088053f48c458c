package postgres

import (
	"gorm.io/gorm"

	"github.com/frahmantamala/leave-management/internal/audit"
)

type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) audit.Repository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Create(entry *audit.AuditLog) error {
	return r.db.Create(entry).Error
}

func (r *AuditRepository) ListByEntity(entityType string, entityID int64) ([]*audit.AuditLog, error) {
	var entries []*audit.AuditLog
	err := r.db.
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("id ASC").
		Find(&entries).Error
	return entries, err
}
