package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"willtank/internal/cache"
	apperrors "willtank/internal/errors"
	"willtank/internal/logger"
	"willtank/internal/model"
	"willtank/internal/progress"
	"willtank/internal/repository"
	"willtank/internal/storage"
)

const (
	defaultWillTitle = "My Will"
	progressCacheTTL = 30 * 24 * time.Hour
)

// CreateWillInput holds the fields accepted when starting a will.
type CreateWillInput struct {
	Title      string
	TemplateID *string
}

// UpdateWillInput is a partial update; nil fields are left unchanged.
type UpdateWillInput struct {
	Title       *string
	Content     *string
	ContactInfo datatypes.JSON
	Status      *model.WillStatus
	VideoURL    *string
}

func (in UpdateWillInput) touchesContent() bool {
	return in.Title != nil || in.Content != nil || in.ContactInfo != nil || in.VideoURL != nil
}

// WillService manages wills and their wizard progress.
type WillService interface {
	Create(ctx context.Context, userID uuid.UUID, in CreateWillInput) (*model.Will, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*model.Will, error)
	List(ctx context.Context, userID uuid.UUID) ([]model.Will, error)
	Update(ctx context.Context, userID, id uuid.UUID, in UpdateWillInput) (*model.Will, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	Lock(ctx context.Context, userID, id uuid.UUID) (*model.Will, error)
	Unlock(ctx context.Context, userID, id uuid.UUID) (*model.Will, error)

	Progress(ctx context.Context, userID, id uuid.UUID) (progress.Position, error)
	SetProgress(ctx context.Context, userID, id uuid.UUID, step progress.Step) (*model.Will, error)
	Advance(ctx context.Context, userID, id uuid.UUID) (*model.Will, error)
	Back(ctx context.Context, userID, id uuid.UUID) (*model.Will, error)
	Resume(ctx context.Context, userID uuid.UUID, willID string) (progress.Position, error)
}

type willService struct {
	wills    repository.WillRepository
	docs     repository.DocumentRepository
	store    storage.Storage
	cache    *cache.Client
	notifier Notifier
}

// NewWillService creates a WillService.
func NewWillService(
	wills repository.WillRepository,
	docs repository.DocumentRepository,
	store storage.Storage,
	cache *cache.Client,
	notifier Notifier,
) WillService {
	return &willService{
		wills:    wills,
		docs:     docs,
		store:    store,
		cache:    cache,
		notifier: notifier,
	}
}

// allowedTransitions lists status changes reachable through Update.
// Leaving locked goes through Unlock only.
var allowedTransitions = map[model.WillStatus][]model.WillStatus{
	model.WillDraft:     {model.WillCompleted, model.WillLocked},
	model.WillCompleted: {model.WillLocked, model.WillDraft},
}

func canTransition(from, to model.WillStatus) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func progressCacheKey(willID uuid.UUID) string {
	return "progress:" + willID.String()
}

type cachedProgress struct {
	UserID uuid.UUID     `json:"userId"`
	Step   progress.Step `json:"step"`
}

func (s *willService) Create(ctx context.Context, userID uuid.UUID, in CreateWillInput) (*model.Will, error) {
	title := strings.TrimSpace(in.Title)
	step := progress.StepTemplate

	var templateID *string
	if in.TemplateID != nil && strings.TrimSpace(*in.TemplateID) != "" {
		tpl, ok := FindTemplate(strings.TrimSpace(*in.TemplateID))
		if !ok {
			return nil, apperrors.ErrTemplateNotFound
		}
		id := tpl.ID
		templateID = &id
		step = progress.StepAIChat
		if title == "" {
			title = tpl.Name
		}
	}
	if title == "" {
		title = defaultWillTitle
	}

	will := &model.Will{
		ID:           uuid.New(),
		UserID:       userID,
		Title:        title,
		Status:       model.WillDraft,
		TemplateID:   templateID,
		ProgressStep: step,
	}
	if err := s.wills.Create(ctx, will); err != nil {
		return nil, fmt.Errorf("create will: %w", err)
	}
	s.cacheProgress(ctx, will)
	return will, nil
}

func (s *willService) Get(ctx context.Context, userID, id uuid.UUID) (*model.Will, error) {
	will, err := s.wills.FindByIDForUser(ctx, id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrWillNotFound
		}
		return nil, err
	}
	return will, nil
}

func (s *willService) List(ctx context.Context, userID uuid.UUID) ([]model.Will, error) {
	return s.wills.ListByUser(ctx, userID)
}

func (s *willService) Update(ctx context.Context, userID, id uuid.UUID, in UpdateWillInput) (*model.Will, error) {
	will, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if will.IsLocked() && in.touchesContent() {
		return nil, apperrors.ErrWillLocked
	}

	if in.Title != nil {
		if t := strings.TrimSpace(*in.Title); t != "" {
			will.Title = t
		}
	}
	if in.Content != nil {
		will.Content = *in.Content
	}
	if in.ContactInfo != nil {
		will.ContactInfo = in.ContactInfo
	}
	if in.VideoURL != nil {
		if *in.VideoURL == "" {
			will.VideoURL = nil
		} else {
			v := *in.VideoURL
			will.VideoURL = &v
		}
	}

	completed := false
	if in.Status != nil && *in.Status != will.Status {
		if !canTransition(will.Status, *in.Status) {
			return nil, apperrors.ErrInvalidStatusTransition
		}
		if *in.Status == model.WillCompleted {
			if !will.HasContent() {
				return nil, apperrors.ErrEmptyWillContent
			}
			will.ProgressStep = progress.StepCompletion
			completed = true
		}
		// a re-opened will resumes at final review
		if *in.Status == model.WillDraft && will.ProgressStep.Terminal() {
			will.ProgressStep = progress.StepFinalReview
		}
		will.Status = *in.Status
	}

	if err := s.wills.Update(ctx, will); err != nil {
		return nil, fmt.Errorf("update will: %w", err)
	}
	s.cacheProgress(ctx, will)
	if completed {
		s.notifyCompleted(ctx, will)
	}
	return will, nil
}

// Delete removes the will, its child records and the stored files.
func (s *willService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	will, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	if will.IsLocked() {
		return apperrors.ErrWillLocked
	}

	docs, err := s.docs.ListByWill(ctx, will.ID)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}

	if err := s.wills.DeleteCascade(ctx, will.ID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrWillNotFound
		}
		return fmt.Errorf("delete will: %w", err)
	}

	log := logger.FromContext(ctx)
	keys := make([]string, 0, len(docs)+1)
	for _, d := range docs {
		keys = append(keys, d.FilePath)
	}
	if will.HasVideo() {
		keys = append(keys, *will.VideoURL)
	}
	for _, key := range keys {
		if err := s.store.Delete(ctx, key); err != nil {
			log.Warn("delete stored file", "key", key, "error", err)
		}
	}
	_ = s.cache.Delete(ctx, progressCacheKey(will.ID))
	return nil
}

func (s *willService) Lock(ctx context.Context, userID, id uuid.UUID) (*model.Will, error) {
	will, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if will.IsLocked() {
		return will, nil
	}

	will.Status = model.WillLocked
	if err := s.wills.Update(ctx, will); err != nil {
		return nil, fmt.Errorf("lock will: %w", err)
	}
	return will, nil
}

// Unlock returns a locked will to completed, or to draft when it has no content.
func (s *willService) Unlock(ctx context.Context, userID, id uuid.UUID) (*model.Will, error) {
	will, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !will.IsLocked() {
		return nil, apperrors.ErrInvalidStatusTransition
	}

	will.Status = model.WillDraft
	if will.HasContent() {
		will.Status = model.WillCompleted
	}
	if err := s.wills.Update(ctx, will); err != nil {
		return nil, fmt.Errorf("unlock will: %w", err)
	}
	return will, nil
}

func (s *willService) Progress(ctx context.Context, userID, id uuid.UUID) (progress.Position, error) {
	will, err := s.Get(ctx, userID, id)
	if err != nil {
		return progress.Position{}, err
	}
	return progress.Resume(will.ID.String(), will.ProgressStep, true), nil
}

func (s *willService) SetProgress(ctx context.Context, userID, id uuid.UUID, step progress.Step) (*model.Will, error) {
	if !step.Valid() {
		return nil, apperrors.ErrInvalidStep
	}
	will, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return s.moveTo(ctx, will, step)
}

// Advance moves to the next step. At completion it is a no-op.
func (s *willService) Advance(ctx context.Context, userID, id uuid.UUID) (*model.Will, error) {
	will, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	next, ok := progress.Next(will.ProgressStep)
	if !ok && will.ProgressStep.Terminal() {
		return will, nil
	}
	return s.moveTo(ctx, will, next)
}

func (s *willService) Back(ctx context.Context, userID, id uuid.UUID) (*model.Will, error) {
	will, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	prev, ok := progress.Previous(will.ProgressStep)
	if !ok && will.ProgressStep == prev {
		return will, nil
	}
	return s.moveTo(ctx, will, prev)
}

// Resume finds where the user should land. A missing or unknown will id
// restarts the wizard; the cached step is used when the database is unreachable.
func (s *willService) Resume(ctx context.Context, userID uuid.UUID, willID string) (progress.Position, error) {
	willID = strings.TrimSpace(willID)
	if willID == "" {
		return progress.Resume("", "", false), nil
	}
	id, err := uuid.Parse(willID)
	if err != nil {
		return progress.Resume(willID, "", false), nil
	}

	will, err := s.wills.FindByIDForUser(ctx, id, userID)
	switch {
	case err == nil:
		return progress.Resume(will.ID.String(), will.ProgressStep, true), nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return progress.Resume(willID, "", false), nil
	}

	if data, _ := s.cache.Get(ctx, progressCacheKey(id)); data != nil {
		var cached cachedProgress
		if jsonErr := json.Unmarshal(data, &cached); jsonErr == nil && cached.UserID == userID {
			logger.FromContext(ctx).Warn("resuming from cached progress", "will_id", id, "error", err)
			return progress.Resume(id.String(), cached.Step, true), nil
		}
	}
	return progress.Position{}, fmt.Errorf("load will: %w", err)
}

func (s *willService) moveTo(ctx context.Context, will *model.Will, step progress.Step) (*model.Will, error) {
	if will.IsLocked() {
		return nil, apperrors.ErrWillLocked
	}

	completed := false
	if step == progress.StepCompletion {
		if !will.HasContent() {
			return nil, apperrors.ErrEmptyWillContent
		}
		if will.Status == model.WillDraft {
			will.Status = model.WillCompleted
			completed = true
		}
	}
	will.ProgressStep = step

	if err := s.wills.Update(ctx, will); err != nil {
		return nil, fmt.Errorf("save progress: %w", err)
	}
	s.cacheProgress(ctx, will)
	if completed {
		s.notifyCompleted(ctx, will)
	}
	return will, nil
}

func (s *willService) cacheProgress(ctx context.Context, will *model.Will) {
	payload, err := json.Marshal(cachedProgress{UserID: will.UserID, Step: will.ProgressStep})
	if err != nil {
		return
	}
	_ = s.cache.Set(ctx, progressCacheKey(will.ID), payload, progressCacheTTL)
}

func (s *willService) notifyCompleted(ctx context.Context, will *model.Will) {
	s.notifier.Notify(ctx, will.UserID, model.NotificationSuccess,
		"Will completed",
		fmt.Sprintf("Your will %q is complete. You can now download your document package.", will.Title),
		map[string]interface{}{"willId": will.ID.String()},
	)
}
