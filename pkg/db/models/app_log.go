package models

import "time"

// AppLog is the persisted copy of a structured log line.
type AppLog struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Level     string    `gorm:"column:level"`
	Message   string    `gorm:"column:message"`
	Fields    []byte    `gorm:"column:fields;type:jsonb"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
