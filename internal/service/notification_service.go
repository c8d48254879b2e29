package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	apperrors "willtank/internal/errors"
	"willtank/internal/logger"
	"willtank/internal/model"
	"willtank/internal/repository"
)

const (
	notificationBatchSize     = 10
	notificationFlushInterval = time.Second
)

// Notifier queues notifications raised by server-side events.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, typ model.NotificationType, title, message string, data map[string]interface{})
}

// Dispatcher writes notifications asynchronously in batches.
type Dispatcher struct {
	repo     repository.NotificationRepository
	ch       chan model.Notification
	done     chan struct{}
	interval time.Duration

	mu     sync.RWMutex
	closed bool
}

// NewDispatcher creates a dispatcher. Call Start before use and Stop on shutdown.
func NewDispatcher(repo repository.NotificationRepository) *Dispatcher {
	return &Dispatcher{
		repo:     repo,
		ch:       make(chan model.Notification, 100),
		done:     make(chan struct{}),
		interval: notificationFlushInterval,
	}
}

// Start launches the worker goroutine.
func (d *Dispatcher) Start(ctx context.Context) {
	go d.run(ctx)
}

// Stop closes the queue and waits for the final flush.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.ch)
	d.mu.Unlock()
	<-d.done
}

func (d *Dispatcher) Notify(ctx context.Context, userID uuid.UUID, typ model.NotificationType, title, message string, data map[string]interface{}) {
	n := model.Notification{
		ID:      uuid.New(),
		UserID:  userID,
		Type:    typ,
		Title:   title,
		Message: message,
	}
	if len(data) > 0 {
		if raw, err := json.Marshal(data); err == nil {
			n.Data = datatypes.JSON(raw)
		}
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.write(ctx, []model.Notification{n})
		return
	}

	select {
	case d.ch <- n:
	default:
		// Queue full, write synchronously.
		d.write(ctx, []model.Notification{n})
	}
}

func (d *Dispatcher) run(ctx context.Context) {
	defer close(d.done)

	batch := make([]model.Notification, 0, notificationBatchSize)
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case n, ok := <-d.ch:
			if !ok {
				d.write(context.WithoutCancel(ctx), batch)
				return
			}
			batch = append(batch, n)
			if len(batch) >= notificationBatchSize {
				d.write(ctx, batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				d.write(ctx, batch)
				batch = batch[:0]
			}
		case <-ctx.Done():
			d.write(context.WithoutCancel(ctx), batch)
			return
		}
	}
}

func (d *Dispatcher) write(ctx context.Context, batch []model.Notification) {
	if len(batch) == 0 {
		return
	}
	if err := d.repo.CreateBatch(ctx, batch); err != nil {
		logger.FromContext(ctx).Error("write notifications", "count", len(batch), "error", err)
	}
}

// NotificationService exposes a user's notification inbox.
type NotificationService interface {
	List(ctx context.Context, userID uuid.UUID) ([]model.Notification, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type notificationService struct {
	repo repository.NotificationRepository
}

// NewNotificationService creates a NotificationService.
func NewNotificationService(repo repository.NotificationRepository) NotificationService {
	return &notificationService{repo: repo}
}

func (s *notificationService) List(ctx context.Context, userID uuid.UUID) ([]model.Notification, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *notificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *notificationService) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	return notificationErr(s.repo.MarkRead(ctx, id, userID))
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllRead(ctx, userID)
}

func (s *notificationService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return notificationErr(s.repo.Delete(ctx, id, userID))
}

func notificationErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrNotificationNotFound
	}
	return err
}
