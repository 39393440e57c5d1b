package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"vigil/internal/integrity"
	"vigil/internal/integrity/store"
	"vigil/pkg/platform/sentinel"
)

const reportColumns = `id, anonymous_token, category, description, evidence_log,
	system_generated, status, assigned_to_id, resolution, created_at, updated_at`

// Store implements store.Store against the integrity_reports table.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, report *integrity.Report) error {
	query := `
		INSERT INTO integrity_reports (` + reportColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.ExecContext(ctx, query,
		report.ID, report.AnonymousToken, report.Category, report.Description,
		report.EvidenceLog, report.SystemGenerated, report.Status,
		report.AssignedToID, report.Resolution, report.CreatedAt, report.UpdatedAt,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert integrity report: %w", err)
	}
	return nil
}

func (s *Store) FindByID(ctx context.Context, id uuid.UUID) (*integrity.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM integrity_reports WHERE id = $1`
	return s.scanOne(s.db.QueryRowContext(ctx, query, id))
}

func (s *Store) FindByToken(ctx context.Context, token string) (*integrity.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM integrity_reports WHERE anonymous_token = $1`
	return s.scanOne(s.db.QueryRowContext(ctx, query, token))
}

func (s *Store) List(ctx context.Context, filter store.Filter) ([]*integrity.Report, error) {
	var clauses []string
	var args []any
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		clauses = append(clauses, fmt.Sprintf("category = $%d", len(args)))
	}
	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}

	query := `SELECT ` + reportColumns + ` FROM integrity_reports` + where + ` ORDER BY created_at ASC`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list integrity reports: %w", err)
	}
	defer rows.Close()

	var reports []*integrity.Report
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, rows.Err()
}

func (s *Store) Update(ctx context.Context, report *integrity.Report) error {
	query := `
		UPDATE integrity_reports
		SET status = $2, assigned_to_id = $3, resolution = $4, updated_at = $5
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query,
		report.ID, report.Status, report.AssignedToID, report.Resolution, report.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update integrity report: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update integrity report: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanOne(row rowScanner) (*integrity.Report, error) {
	report, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	return report, err
}

func scanReport(row rowScanner) (*integrity.Report, error) {
	var r integrity.Report
	err := row.Scan(&r.ID, &r.AnonymousToken, &r.Category, &r.Description,
		&r.EvidenceLog, &r.SystemGenerated, &r.Status, &r.AssignedToID,
		&r.Resolution, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
