package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/rcliao/agent-chat/internal/model"
)

// SearchParams holds parameters for searching stored text.
type SearchParams struct {
	ConversationID string // optional filter
	Query          string
	Limit          int
}

// SearchResult is one text or reasoning part whose text matched.
type SearchResult struct {
	PartID         string         `json:"part_id"`
	MessageID      string         `json:"message_id"`
	ConversationID string         `json:"conversation_id"`
	Kind           model.PartKind `json:"kind"`
	Text           string         `json:"text"`
}

// likeEscaper makes the query a literal substring pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// searchParts finds text and reasoning parts containing the query,
// case-insensitively, newest first.
func searchParts(ctx context.Context, q queryFunc, ph placeholder, p SearchParams) ([]SearchResult, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 20
	}
	pattern := "%" + likeEscaper.Replace(p.Query) + "%"

	var args []any
	next := func(v any) string {
		args = append(args, v)
		return ph(len(args))
	}

	branch := func(t table) string {
		return fmt.Sprintf(`SELECT id, message_id, conversation_id, '%s' AS kind, text FROM %s WHERE LOWER(text) LIKE LOWER(%s) ESCAPE '\'`,
			t.kind, t.name, next(pattern))
	}
	sql := fmt.Sprintf("SELECT id, message_id, conversation_id, kind, text FROM (%s UNION ALL %s) hits",
		branch(textTable), branch(reasoningTable))
	if p.ConversationID != "" {
		sql += " WHERE conversation_id = " + next(p.ConversationID)
	}
	sql += " ORDER BY id DESC LIMIT " + next(limit)

	var results []SearchResult
	err := q(ctx, sql, args, func(s scanner) error {
		var r SearchResult
		var kind string
		if err := s.Scan(&r.PartID, &r.MessageID, &r.ConversationID, &kind, &r.Text); err != nil {
			return err
		}
		r.Kind = model.PartKind(kind)
		results = append(results, r)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", p.Query, err)
	}
	return results, nil
}

// Search finds text and reasoning parts whose content matches the query substring.
func (s *SQLiteStore) Search(ctx context.Context, p SearchParams) ([]SearchResult, error) {
	return searchParts(ctx, s.query, questionMark, p)
}

// Search finds text and reasoning parts whose content matches the query substring.
func (p *PostgresStore) Search(ctx context.Context, params SearchParams) ([]SearchResult, error) {
	return searchParts(ctx, p.query, dollar, params)
}
