package store

import (
	"context"
	"os"

	"github.com/rcliao/agent-chat/internal/model"
)

// Stats holds database statistics.
type Stats struct {
	Driver        string                 `json:"driver"`
	Location      string                 `json:"location"`
	SizeBytes     int64                  `json:"size_bytes"`
	Conversations int                    `json:"conversations"`
	Messages      int                    `json:"messages"`
	Parts         map[model.PartKind]int `json:"parts"`
}

// collectStats fills the row counts shared by every backend.
func collectStats(ctx context.Context, q queryFunc, st *Stats) (*Stats, error) {
	count := func(query string, dst *int) error {
		return q(ctx, query, nil, func(s scanner) error { return s.Scan(dst) })
	}
	if err := count(`SELECT COUNT(*) FROM conversations`, &st.Conversations); err != nil {
		return nil, err
	}
	if err := count(`SELECT COUNT(*) FROM messages`, &st.Messages); err != nil {
		return nil, err
	}

	parts, err := countRows(ctx, q)
	if err != nil {
		return nil, err
	}
	st.Parts = parts
	return st, nil
}

// Stats returns database statistics.
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{Driver: "sqlite", Location: s.path}

	// DB file size
	if info, err := os.Stat(s.path); err == nil {
		st.SizeBytes = info.Size()
	}

	return collectStats(ctx, s.query, st)
}

// Stats returns database statistics.
func (p *PostgresStore) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{Driver: "postgres", Location: p.pool.Config().ConnConfig.Database}

	if err := p.pool.QueryRow(ctx, `SELECT pg_database_size(current_database())`).Scan(&st.SizeBytes); err != nil {
		return nil, err
	}

	return collectStats(ctx, p.query, st)
}
