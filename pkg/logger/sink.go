package logger

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/shoply-app/shoply-backend/pkg/db/models"
)

// DBSink copies log lines into the app_logs table through a buffered
// channel and a single background worker. Write never blocks the caller:
// when the buffer is full the line is dropped.
type DBSink struct {
	db      *gorm.DB
	lines   chan []byte
	done    chan struct{}
	closeMu sync.Once
}

const sinkInsertTimeout = 5 * time.Second

func NewDBSink(db *gorm.DB, buffer int) *DBSink {
	if buffer <= 0 {
		buffer = 256
	}
	s := &DBSink{
		db:    db,
		lines: make(chan []byte, buffer),
		done:  make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *DBSink) Write(p []byte) (int, error) {
	line := make([]byte, len(p))
	copy(line, p)

	select {
	case s.lines <- line:
	default:
		// Buffer full. Losing a persisted copy is acceptable; stdout
		// still has the line.
	}
	return len(p), nil
}

// Close drains queued lines and stops the worker.
func (s *DBSink) Close() {
	s.closeMu.Do(func() {
		close(s.lines)
		<-s.done
	})
}

func (s *DBSink) run() {
	defer close(s.done)
	for line := range s.lines {
		s.persist(line)
	}
}

func (s *DBSink) persist(line []byte) {
	var envelope struct {
		Level   string `json:"level"`
		Message string `json:"message"`
	}
	// Lines are zerolog JSON; a parse failure still gets stored raw.
	_ = json.Unmarshal(line, &envelope)

	record := models.AppLog{
		Level:   envelope.Level,
		Message: envelope.Message,
		Fields:  line,
	}

	ctx, cancel := context.WithTimeout(context.Background(), sinkInsertTimeout)
	defer cancel()
	_ = s.db.WithContext(ctx).Create(&record).Error
}
