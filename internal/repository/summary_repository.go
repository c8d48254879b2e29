package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// SummaryCounts aggregates what a user has stored for the dashboard.
type SummaryCounts struct {
	Wills            int  `db:"wills" json:"wills"`
	CompletedWills   int  `db:"completed_wills" json:"completedWills"`
	Documents        int  `db:"documents" json:"documents"`
	Beneficiaries    int  `db:"beneficiaries" json:"beneficiaries"`
	Assets           int  `db:"assets" json:"assets"`
	Videos           int  `db:"videos" json:"videos"`
	TwoFactorEnabled bool `db:"two_factor_enabled" json:"twoFactorEnabled"`
}

// SummaryRepository runs read-only reporting queries.
type SummaryRepository interface {
	Counts(ctx context.Context, userID uuid.UUID) (*SummaryCounts, error)
}

type summaryRepository struct {
	db          *sqlx.DB
	placeholder sq.PlaceholderFormat
}

// NewSummaryRepository wraps an sqlx handle. driverName selects the
// placeholder style ("postgres"/"pgx" use $n, everything else ?).
func NewSummaryRepository(db *sqlx.DB, driverName string) SummaryRepository {
	var ph sq.PlaceholderFormat = sq.Question
	if driverName == "postgres" || driverName == "pgx" {
		ph = sq.Dollar
	}
	return &summaryRepository{db: db, placeholder: ph}
}

func countOwned(table string, userID string, extra ...sq.Sqlizer) sq.SelectBuilder {
	where := sq.And{sq.Eq{"user_id": userID}}
	where = append(where, extra...)
	return sq.Select("COUNT(*)").From(table).Where(where)
}

func countByWillOwner(table string, userID string) sq.SelectBuilder {
	return sq.Select("COUNT(*)").
		From(table + " t").
		Join("wills w ON w.id = t.will_id").
		Where(sq.Eq{"w.user_id": userID})
}

// SummaryQuery builds the single statement behind Counts.
func SummaryQuery(userID uuid.UUID, ph sq.PlaceholderFormat) (string, []interface{}, error) {
	id := userID.String()
	twoFactorSQL, twoFactorArgs, err := sq.Select("two_factor_enabled").From("users").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return "", nil, err
	}

	return sq.Select().
		Column(sq.Alias(countOwned("wills", id), "wills")).
		Column(sq.Alias(countOwned("wills", id, sq.Eq{"status": "completed"}), "completed_wills")).
		Column(sq.Alias(countOwned("will_documents", id), "documents")).
		Column(sq.Alias(countByWillOwner("beneficiaries", id), "beneficiaries")).
		Column(sq.Alias(countByWillOwner("assets", id), "assets")).
		Column(sq.Alias(countOwned("wills", id, sq.NotEq{"video_url": nil}, sq.NotEq{"video_url": ""}), "videos")).
		Column(sq.Expr("COALESCE(("+twoFactorSQL+"), FALSE) AS two_factor_enabled", twoFactorArgs...)).
		PlaceholderFormat(ph).
		ToSql()
}

func (r *summaryRepository) Counts(ctx context.Context, userID uuid.UUID) (*SummaryCounts, error) {
	query, args, err := SummaryQuery(userID, r.placeholder)
	if err != nil {
		return nil, fmt.Errorf("build summary query: %w", err)
	}

	var out SummaryCounts
	if err := r.db.GetContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("query summary: %w", err)
	}
	return &out, nil
}
