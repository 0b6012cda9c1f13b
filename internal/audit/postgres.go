package audit

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS audit_log (
	id            uuid PRIMARY KEY,
	action        text NOT NULL,
	source        text,
	query         text,
	rows_affected integer NOT NULL DEFAULT 0,
	error         text,
	ip_address    inet,
	user_agent    text,
	created_at    timestamptz NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS audit_log_created_at_idx ON audit_log (created_at DESC);
`

// querier is the subset of *pgxpool.Pool used by PGStore.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PGStore writes entries to the audit_log table.
type PGStore struct {
	db querier
}

// NewPGStore returns a store backed by pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{db: pool}
}

// Connect opens a pool for databaseURL and verifies it with a ping.
func Connect(ctx context.Context, databaseURL string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// EnsureSchema creates the audit_log table if it does not exist.
func (s *PGStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create audit schema: %w", err)
	}
	return nil
}

// Record implements Store.
func (s *PGStore) Record(ctx context.Context, e Entry) error {
	e = prepare(ctx, e)

	_, err := s.db.Exec(ctx,
		`INSERT INTO audit_log (id, action, source, query, rows_affected, error, ip_address, user_agent, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		toPgUUID(e.ID), string(e.Action), toPgText(e.Source), toPgText(e.Query), e.Rows,
		toPgText(e.Error), parseIP(e.IPAddress), toPgText(e.UserAgent),
		pgtype.Timestamptz{Time: e.CreatedAt, Valid: true},
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// Recent implements Store.
func (s *PGStore) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, action, source, query, rows_affected, error, ip_address, user_agent, created_at
		 FROM audit_log ORDER BY created_at DESC LIMIT $1`, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}
	return entries, nil
}

// Prune implements Pruner.
func (s *PGStore) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM audit_log WHERE created_at < $1`,
		pgtype.Timestamptz{Time: cutoff, Valid: true})
	if err != nil {
		return 0, fmt.Errorf("prune audit log: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanEntry(rows pgx.Rows) (Entry, error) {
	var (
		id        pgtype.UUID
		action    string
		source    pgtype.Text
		query     pgtype.Text
		affected  int32
		errText   pgtype.Text
		ipAddress *netip.Addr
		userAgent pgtype.Text
		createdAt pgtype.Timestamptz
	)
	if err := rows.Scan(&id, &action, &source, &query, &affected, &errText, &ipAddress, &userAgent, &createdAt); err != nil {
		return Entry{}, fmt.Errorf("scan audit entry: %w", err)
	}

	e := Entry{
		ID:        pgUUIDToString(id),
		Action:    Action(action),
		Source:    source.String,
		Query:     query.String,
		Rows:      int(affected),
		Error:     errText.String,
		UserAgent: userAgent.String,
		CreatedAt: createdAt.Time,
	}
	if ipAddress != nil {
		e.IPAddress = ipAddress.String()
	}
	return e, nil
}

// parseIP strips a port and returns nil for anything that is not an address.
func parseIP(s string) *netip.Addr {
	if s == "" {
		return nil
	}
	host := s
	if h, _, err := net.SplitHostPort(s); err == nil {
		host = h
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return nil
	}
	return &addr
}

func toPgText(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

func toPgUUID(s string) pgtype.UUID {
	parsed, err := uuid.Parse(s)
	if err != nil {
		return pgtype.UUID{}
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}
}

func pgUUIDToString(u pgtype.UUID) string {
	if !u.Valid {
		return ""
	}
	return uuid.UUID(u.Bytes).String()
}
