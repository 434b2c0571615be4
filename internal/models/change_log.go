package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChangeLog is one field mutation on a BusinessRecord. Append-only: rows are
// never updated, and only deleted as a cascade when the owning record goes.
// Old/new values are stringified so the ledger survives schema type changes.
type ChangeLog struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	RecordID  uuid.UUID `gorm:"column:record_id;type:uuid;not null;index" json:"record_id"`
	FieldName string    `gorm:"column:field_name;size:50;not null" json:"field_name"`
	OldValue  *string   `gorm:"column:old_value;size:255" json:"old_value"`
	NewValue  *string   `gorm:"column:new_value;size:255" json:"new_value"`
	ChangedBy string    `gorm:"column:changed_by;size:100" json:"changed_by"`
	ChangedAt time.Time `gorm:"column:changed_at" json:"changed_at"`
}

func (ChangeLog) TableName() string {
	return "change_logs"
}

func (l *ChangeLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
