package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ImportLog records one period import: which file, which period, how many
// rows went in, and any row-level notes (as a JSON array of strings).
type ImportLog struct {
	ID            uuid.UUID      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	SnapshotYear  int            `gorm:"column:snapshot_year;not null" json:"snapshot_year"`
	SnapshotMonth int            `gorm:"column:snapshot_month;not null" json:"snapshot_month"`
	FileName      string         `gorm:"column:file_name;size:255" json:"file_name"`
	InsertedCount int            `gorm:"column:inserted_count;not null" json:"inserted_count"`
	RowNotes      datatypes.JSON `gorm:"column:row_notes" json:"row_notes"`
	CreatedAt     time.Time      `gorm:"column:created_at" json:"created_at"`
}

func (ImportLog) TableName() string {
	return "import_logs"
}

func (l *ImportLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
