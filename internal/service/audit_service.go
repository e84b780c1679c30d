package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/member-auth-api/internal/models"
	"github.com/noah-isme/member-auth-api/pkg/jobs"
)

type auditRepository interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

// AuditConfig controls the asynchronous audit writer.
type AuditConfig struct {
	Enabled    bool
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
}

// AuditService writes session lifecycle events in the background.
type AuditService struct {
	queue  *jobs.Queue[models.AuditLog]
	logger *zap.Logger
}

// NewAuditService constructs an AuditService. A disabled service drops every
// entry.
func NewAuditService(repo auditRepository, cfg AuditConfig, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &AuditService{logger: logger}
	if !cfg.Enabled || repo == nil {
		return svc
	}

	handler := func(ctx context.Context, entry models.AuditLog) error {
		return repo.Create(ctx, &entry)
	}
	svc.queue = jobs.NewQueue[models.AuditLog]("audit", handler, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return svc
}

// Start launches the workers.
func (s *AuditService) Start(ctx context.Context) {
	if s == nil || s.queue == nil {
		return
	}
	s.queue.Start(ctx)
}

// Stop drains pending entries.
func (s *AuditService) Stop() {
	if s == nil || s.queue == nil {
		return
	}
	s.queue.Stop()
}

// Record enqueues an audit entry. Failures are logged and never returned.
func (s *AuditService) Record(entry models.AuditLog) {
	if s == nil || s.queue == nil {
		return
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if err := s.queue.Enqueue(entry); err != nil {
		s.logger.Warn("failed to enqueue audit log", zap.String("action", entry.Action), zap.String("username", entry.Username), zap.Error(err))
	}
}
