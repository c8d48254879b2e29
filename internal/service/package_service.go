package service

import (
	"context"
	"io"

	"github.com/google/uuid"

	"willtank/internal/archive"
	"willtank/internal/repository"
	"willtank/internal/storage"
)

// PackageService builds the downloadable will package.
type PackageService interface {
	Build(ctx context.Context, userID, willID uuid.UUID) (*archive.Package, error)
}

type packageService struct {
	wills   repository.WillRepository
	docs    repository.DocumentRepository
	store   storage.Storage
	builder *archive.Builder
}

// NewPackageService creates a PackageService.
func NewPackageService(wills repository.WillRepository, docs repository.DocumentRepository, store storage.Storage, builder *archive.Builder) PackageService {
	return &packageService{wills: wills, docs: docs, store: store, builder: builder}
}

// Build returns the ZIP package, or the plain text tier when the archive
// cannot be assembled. Only a missing will is an error.
func (s *packageService) Build(ctx context.Context, userID, willID uuid.UUID) (*archive.Package, error) {
	will, err := ownedWill(ctx, s.wills, userID, willID, false)
	if err != nil {
		return nil, err
	}

	in := archive.Input{
		Title:    will.Title,
		Content:  will.Content,
		HasVideo: will.HasVideo(),
	}
	if will.HasVideo() {
		in.VideoRef = *will.VideoURL
	}

	docs, err := s.docs.ListByWill(ctx, will.ID)
	if err != nil {
		return archive.Fallback(in), nil
	}
	for _, d := range docs {
		in.Documents = append(in.Documents, archive.Document{FileName: d.FileName, Key: d.FilePath, MimeType: d.MimeType})
	}

	fetch := archive.FetcherFunc(func(ctx context.Context, doc archive.Document) (io.ReadCloser, error) {
		return s.store.Get(ctx, doc.Key)
	})
	return s.builder.Assemble(ctx, in, fetch), nil
}
