package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"willtank/internal/progress"
	"willtank/internal/repository"
)

// ChecklistItem is one trust score criterion.
type ChecklistItem struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Done  bool   `json:"done"`
}

// DashboardSummary aggregates a user's estate plan status.
type DashboardSummary struct {
	Counts     repository.SummaryCounts `json:"counts"`
	TrustScore int                      `json:"trustScore"`
	Checklist  []ChecklistItem          `json:"checklist"`
	Resume     *progress.Position       `json:"resume,omitempty"`
}

// DashboardService computes the dashboard summary.
type DashboardService interface {
	Summary(ctx context.Context, userID uuid.UUID) (*DashboardSummary, error)
}

type dashboardService struct {
	summary repository.SummaryRepository
	wills   repository.WillRepository
}

// NewDashboardService creates a DashboardService.
func NewDashboardService(summary repository.SummaryRepository, wills repository.WillRepository) DashboardService {
	return &dashboardService{summary: summary, wills: wills}
}

func (s *dashboardService) Summary(ctx context.Context, userID uuid.UUID) (*DashboardSummary, error) {
	counts, err := s.summary.Counts(ctx, userID)
	if err != nil {
		return nil, err
	}

	checklist := Checklist(*counts)
	out := &DashboardSummary{
		Counts:     *counts,
		TrustScore: TrustScore(checklist),
		Checklist:  checklist,
	}

	draft, err := s.wills.FindLatestDraft(ctx, userID)
	switch {
	case err == nil:
		pos := progress.Resume(draft.ID.String(), draft.ProgressStep, true)
		out.Resume = &pos
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}
	return out, nil
}

// Checklist evaluates the trust score criteria.
func Checklist(c repository.SummaryCounts) []ChecklistItem {
	return []ChecklistItem{
		{Key: "will_created", Label: "Create a will", Done: c.Wills > 0},
		{Key: "will_completed", Label: "Complete a will", Done: c.CompletedWills > 0},
		{Key: "document_uploaded", Label: "Upload a supporting document", Done: c.Documents > 0},
		{Key: "video_recorded", Label: "Record a video testimony", Done: c.Videos > 0},
		{Key: "beneficiary_added", Label: "Name a beneficiary", Done: c.Beneficiaries > 0},
		{Key: "two_factor_enabled", Label: "Enable two-factor authentication", Done: c.TwoFactorEnabled},
	}
}

// TrustScore is the rounded percentage of checklist items done.
func TrustScore(items []ChecklistItem) int {
	if len(items) == 0 {
		return 0
	}
	done := 0
	for _, it := range items {
		if it.Done {
			done++
		}
	}
	return (done*100 + len(items)/2) / len(items)
}
