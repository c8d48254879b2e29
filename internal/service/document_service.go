package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "willtank/internal/errors"
	"willtank/internal/logger"
	"willtank/internal/model"
	"willtank/internal/repository"
	"willtank/internal/storage"
)

const (
	sniffLen          = 3072
	downloadURLExpiry = 15 * time.Minute
)

// UploadInput is a file received from a client.
type UploadInput struct {
	FileName string
	Size     int64
	Reader   io.Reader
}

// Download is either a presigned URL or an open stream.
type Download struct {
	Document *model.WillDocument
	URL      string
	Body     io.ReadCloser
}

// DocumentService manages will attachments and the video testimony.
type DocumentService interface {
	List(ctx context.Context, userID, willID uuid.UUID) ([]model.WillDocument, error)
	Upload(ctx context.Context, userID, willID uuid.UUID, in UploadInput) (*model.WillDocument, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	Download(ctx context.Context, userID, id uuid.UUID) (*Download, error)
	UploadVideo(ctx context.Context, userID, willID uuid.UUID, in UploadInput) (*model.Will, error)
}

type documentService struct {
	wills    repository.WillRepository
	docs     repository.DocumentRepository
	store    storage.Storage
	notifier Notifier
	maxBytes int64
	allowed  []string
}

// NewDocumentService creates a DocumentService with an upload size cap and MIME allow-list.
func NewDocumentService(
	wills repository.WillRepository,
	docs repository.DocumentRepository,
	store storage.Storage,
	notifier Notifier,
	maxBytes int64,
	allowed []string,
) DocumentService {
	return &documentService{
		wills:    wills,
		docs:     docs,
		store:    store,
		notifier: notifier,
		maxBytes: maxBytes,
		allowed:  allowed,
	}
}

func (s *documentService) will(ctx context.Context, userID, willID uuid.UUID) (*model.Will, error) {
	will, err := s.wills.FindByIDForUser(ctx, willID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrWillNotFound
		}
		return nil, err
	}
	return will, nil
}

func (s *documentService) List(ctx context.Context, userID, willID uuid.UUID) ([]model.WillDocument, error) {
	if _, err := s.will(ctx, userID, willID); err != nil {
		return nil, err
	}
	return s.docs.ListByWill(ctx, willID)
}

func (s *documentService) Upload(ctx context.Context, userID, willID uuid.UUID, in UploadInput) (*model.WillDocument, error) {
	will, err := s.will(ctx, userID, willID)
	if err != nil {
		return nil, err
	}
	if will.IsLocked() {
		return nil, apperrors.ErrWillLocked
	}

	body, mime, err := s.inspect(in, func(string) bool { return true })
	if err != nil {
		return nil, err
	}

	name := storage.SanitizeName(in.FileName)
	key := storage.DocumentKey(userID, willID, name)
	counter := &countingReader{r: body, max: s.maxBytes}
	if err := s.store.Save(ctx, key, counter, mime); err != nil {
		if errors.Is(err, apperrors.ErrFileTooLarge) || counter.exceeded() {
			_ = s.store.Delete(ctx, key)
			return nil, apperrors.ErrFileTooLarge
		}
		return nil, fmt.Errorf("store document: %w", err)
	}

	doc := &model.WillDocument{
		ID:       uuid.New(),
		WillID:   willID,
		UserID:   userID,
		FileName: name,
		MimeType: mime,
		Size:     counter.n,
		FilePath: key,
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		_ = s.store.Delete(ctx, key)
		return nil, fmt.Errorf("create document: %w", err)
	}

	s.notifier.Notify(ctx, userID, model.NotificationInfo, "Document uploaded",
		fmt.Sprintf("%s was added to %q.", doc.FileName, will.Title),
		map[string]interface{}{"willId": willID.String(), "documentId": doc.ID.String()})
	return doc, nil
}

func (s *documentService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	doc, err := s.find(ctx, userID, id)
	if err != nil {
		return err
	}
	will, err := s.will(ctx, userID, doc.WillID)
	if err != nil {
		return err
	}
	if will.IsLocked() {
		return apperrors.ErrWillLocked
	}

	if err := s.docs.Delete(ctx, doc.ID); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if err := s.store.Delete(ctx, doc.FilePath); err != nil {
		logger.FromContext(ctx).Warn("delete stored document", "key", doc.FilePath, "error", err)
	}
	return nil
}

// Download prefers a presigned URL and streams from storage otherwise.
func (s *documentService) Download(ctx context.Context, userID, id uuid.UUID) (*Download, error) {
	doc, err := s.find(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	url, err := s.store.SignedURL(ctx, doc.FilePath, downloadURLExpiry)
	if err != nil {
		return nil, fmt.Errorf("sign url: %w", err)
	}
	if url != "" {
		return &Download{Document: doc, URL: url}, nil
	}

	body, err := s.store.Get(ctx, doc.FilePath)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperrors.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("open document: %w", err)
	}
	return &Download{Document: doc, Body: body}, nil
}

// UploadVideo stores the testimony and replaces any previous one.
func (s *documentService) UploadVideo(ctx context.Context, userID, willID uuid.UUID, in UploadInput) (*model.Will, error) {
	will, err := s.will(ctx, userID, willID)
	if err != nil {
		return nil, err
	}
	if will.IsLocked() {
		return nil, apperrors.ErrWillLocked
	}

	body, mime, err := s.inspect(in, func(m string) bool { return strings.HasPrefix(m, "video/") })
	if err != nil {
		return nil, err
	}

	key := storage.VideoKey(userID, willID, storage.SanitizeName(in.FileName))
	counter := &countingReader{r: body, max: s.maxBytes}
	if err := s.store.Save(ctx, key, counter, mime); err != nil {
		if errors.Is(err, apperrors.ErrFileTooLarge) || counter.exceeded() {
			_ = s.store.Delete(ctx, key)
			return nil, apperrors.ErrFileTooLarge
		}
		return nil, fmt.Errorf("store video: %w", err)
	}

	var previous string
	if will.HasVideo() {
		previous = *will.VideoURL
	}
	will.VideoURL = &key
	if err := s.wills.Update(ctx, will); err != nil {
		_ = s.store.Delete(ctx, key)
		return nil, fmt.Errorf("update will: %w", err)
	}
	if previous != "" && previous != key {
		if err := s.store.Delete(ctx, previous); err != nil {
			logger.FromContext(ctx).Warn("delete previous video", "key", previous, "error", err)
		}
	}
	return will, nil
}

func (s *documentService) find(ctx context.Context, userID, id uuid.UUID) (*model.WillDocument, error) {
	doc, err := s.docs.FindByIDForUser(ctx, id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrDocumentNotFound
		}
		return nil, err
	}
	return doc, nil
}

// inspect enforces the declared size limit and sniffs the content type from
// the leading bytes. The returned reader replays those bytes.
func (s *documentService) inspect(in UploadInput, accept func(string) bool) (io.Reader, string, error) {
	if s.maxBytes > 0 && in.Size > s.maxBytes {
		return nil, "", apperrors.ErrFileTooLarge
	}
	if in.Reader == nil {
		return nil, "", apperrors.ErrUnsupportedFileType
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(in.Reader, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, "", fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]

	mime, ok := s.match(mimetype.Detect(head))
	if !ok || !accept(mime) {
		return nil, "", apperrors.ErrUnsupportedFileType
	}
	return io.MultiReader(bytes.NewReader(head), in.Reader), mime, nil
}

// match walks the detected type and its parents looking for an allowed type.
func (s *documentService) match(detected *mimetype.MIME) (string, bool) {
	for m := detected; m != nil; m = m.Parent() {
		for _, allowed := range s.allowed {
			if m.Is(allowed) {
				return allowed, true
			}
		}
	}
	return detected.String(), false
}

type countingReader struct {
	r   io.Reader
	n   int64
	max int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	if c.max > 0 && c.n > c.max {
		return n, apperrors.ErrFileTooLarge
	}
	return n, err
}

func (c *countingReader) exceeded() bool {
	return c.max > 0 && c.n > c.max
}
