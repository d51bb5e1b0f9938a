package audit

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/anishk6674/kanchan-chilled/internal/db"
)

// Store defines the database operations required for auditing.
type Store interface {
	Insert(ctx context.Context, l Log) error
	List(ctx context.Context, f Filter) ([]Log, error)
}

// PGStore is the Postgres-backed Store.
type PGStore struct {
	DB db.DBTX
}

// Insert implements Store.
func (s PGStore) Insert(ctx context.Context, l Log) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO audit_logs (actor_kind, action, resource_type, resource_id, method, path, route, status, ip, user_agent, request_id, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		string(l.ActorKind), l.Action, l.ResourceType, l.ResourceID, l.Method, l.Path, l.Route, l.Status,
		l.IP, l.UserAgent, l.RequestID, nullJSON(l.Metadata))
	return db.Classify(err)
}

// List implements Store, newest first.
func (s PGStore) List(ctx context.Context, f Filter) ([]Log, error) {
	var (
		where []string
		args  []any
	)
	if f.ResourceType != "" {
		args = append(args, f.ResourceType)
		where = append(where, fmt.Sprintf("resource_type = $%d", len(args)))
	}
	if f.ResourceID != "" {
		args = append(args, f.ResourceID)
		where = append(where, fmt.Sprintf("resource_id = $%d", len(args)))
	}
	query := `SELECT id, actor_kind, action, resource_type, resource_id, method, path, route, status, ip, user_agent, request_id, metadata, created_at FROM audit_logs`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, f.Limit, f.Offset)
	query += fmt.Sprintf(" ORDER BY id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, db.Classify(err)
	}
	logs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Log, error) {
		var (
			l    Log
			kind string
			meta []byte
		)
		err := row.Scan(&l.ID, &kind, &l.Action, &l.ResourceType, &l.ResourceID, &l.Method, &l.Path, &l.Route,
			&l.Status, &l.IP, &l.UserAgent, &l.RequestID, &meta, &l.CreatedAt)
		l.ActorKind = ActorKind(kind)
		l.Metadata = meta
		return l, err
	})
	return logs, db.Classify(err)
}

func nullJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return raw
}
