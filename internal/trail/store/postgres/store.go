package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"vigil/internal/trail"
)

// Store implements trail.Store against the platform's audit_trail table.
// Reads never lock rows; the table is append-only.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Append(ctx context.Context, event trail.Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	query := `
		INSERT INTO audit_trail (id, actor_id, action, entity_type, entity_id, details, success, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	details := []byte(event.Details)
	if details == nil {
		details = []byte("{}")
	}
	_, err := s.db.ExecContext(ctx, query,
		event.ID, event.ActorID, event.Action, event.EntityType,
		event.EntityID, details, event.Success, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert trail event: %w", err)
	}
	return nil
}

func (s *Store) Query(ctx context.Context, filter trail.Filter) ([]trail.Event, error) {
	where, args := buildWhere(filter)
	query := `
		SELECT id, actor_id, action, entity_type, entity_id, details, success, created_at
		FROM audit_trail
	` + where + ` ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query trail: %w", err)
	}
	defer rows.Close()

	var events []trail.Event
	for rows.Next() {
		var e trail.Event
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.EntityType,
			&e.EntityID, (*[]byte)(&e.Details), &e.Success, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan trail event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (s *Store) CountByActor(ctx context.Context, filter trail.Filter, threshold int) ([]trail.ActorCount, error) {
	where, args := buildWhere(filter)
	if where == "" {
		where = " WHERE actor_id IS NOT NULL"
	} else {
		where += " AND actor_id IS NOT NULL"
	}
	args = append(args, threshold)
	query := fmt.Sprintf(`
		SELECT actor_id, COUNT(*) AS n
		FROM audit_trail
		%s
		GROUP BY actor_id
		HAVING COUNT(*) > $%d
	`, where, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("count trail by actor: %w", err)
	}
	defer rows.Close()

	var counts []trail.ActorCount
	for rows.Next() {
		var c trail.ActorCount
		if err := rows.Scan(&c.ActorID, &c.Count); err != nil {
			return nil, fmt.Errorf("scan actor count: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

func buildWhere(f trail.Filter) (string, []any) {
	var clauses []string
	var args []any

	add := func(clause string, arg any) {
		args = append(args, arg)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if f.ActorID != "" {
		add("actor_id = $%d", f.ActorID)
	}
	if len(f.Actions) > 0 {
		add("action = ANY($%d)", pq.Array(f.Actions))
	}
	if f.EntityType != "" {
		add("entity_type = $%d", f.EntityType)
	}
	if !f.From.IsZero() {
		add("created_at >= $%d", f.From)
	}
	if !f.To.IsZero() {
		add("created_at < $%d", f.To)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
