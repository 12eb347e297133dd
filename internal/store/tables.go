package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/rcliao/agent-chat/internal/model"
)

// scanner abstracts *sql.Rows and pgx.Rows for shared scan helpers.
type scanner interface {
	Scan(dest ...any) error
}

// placeholder renders the n-th (1-based) bind parameter.
type placeholder func(n int) string

func questionMark(int) string { return "?" }

func dollar(n int) string { return "$" + strconv.Itoa(n) }

// queryFunc runs a query and calls each for every result row.
type queryFunc func(ctx context.Context, query string, args []any, each func(scanner) error) error

// table describes one part table. The first three columns are always
// id, message_id, conversation_id.
type table struct {
	kind    model.PartKind
	name    string
	columns []string
}

var (
	textTable = table{model.KindText, "message_texts",
		[]string{"id", "message_id", "conversation_id", "text", "provider_metadata"}}
	reasoningTable = table{model.KindReasoning, "message_reasoning",
		[]string{"id", "message_id", "conversation_id", "text", "provider_metadata"}}
	toolTable = table{model.KindTool, "message_tools",
		[]string{"id", "message_id", "conversation_id", "tool_call_id", "tool", "state", "input", "output", "error_text", "call_provider_metadata"}}
	sourceURLTable = table{model.KindSourceURL, "message_source_urls",
		[]string{"id", "message_id", "conversation_id", "source_id", "url", "title", "provider_metadata"}}
	dataTable = table{model.KindData, "message_data",
		[]string{"id", "message_id", "conversation_id", "data_type", "data"}}
	fileTable = table{model.KindFile, "message_files",
		[]string{"id", "message_id", "conversation_id", "media_type", "url", "filename", "provider_metadata"}}
	sourceDocumentTable = table{model.KindSourceDocument, "message_source_documents",
		[]string{"id", "message_id", "conversation_id", "source_id", "media_type", "title", "filename", "provider_metadata"}}
)

// partTables lists every part table in model.StoredKinds order.
var partTables = []table{
	textTable,
	reasoningTable,
	toolTable,
	sourceURLTable,
	dataTable,
	fileTable,
	sourceDocumentTable,
}

func (t table) selectByConversation(ph placeholder) string {
	return fmt.Sprintf("SELECT %s FROM %s WHERE conversation_id = %s",
		strings.Join(t.columns, ", "), t.name, ph(1))
}

// statement is a query plus its bind arguments.
type statement struct {
	query string
	args  []any
}

// insert builds one multi-row INSERT for n rows.
func (t table) insert(ph placeholder, n int, rowArgs func(i int) []any) statement {
	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ", t.name, strings.Join(t.columns, ", "))

	args := make([]any, 0, n*len(t.columns))
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for c := range t.columns {
			if c > 0 {
				b.WriteString(", ")
			}
			b.WriteString(ph(len(args) + c + 1))
		}
		b.WriteByte(')')
		args = append(args, rowArgs(i)...)
	}
	return statement{query: b.String(), args: args}
}

// partInserts returns one INSERT per non-empty kind batch.
func partInserts(ph placeholder, rows *model.PartRows) []statement {
	if rows == nil {
		return nil
	}
	var out []statement
	if n := len(rows.Texts); n > 0 {
		out = append(out, textTable.insert(ph, n, func(i int) []any {
			r := rows.Texts[i]
			return []any{r.ID, r.MessageID, r.ConversationID, r.Text, nullJSON(r.ProviderMetadata)}
		}))
	}
	if n := len(rows.Reasoning); n > 0 {
		out = append(out, reasoningTable.insert(ph, n, func(i int) []any {
			r := rows.Reasoning[i]
			return []any{r.ID, r.MessageID, r.ConversationID, r.Text, nullJSON(r.ProviderMetadata)}
		}))
	}
	if n := len(rows.Tools); n > 0 {
		out = append(out, toolTable.insert(ph, n, func(i int) []any {
			r := rows.Tools[i]
			return []any{r.ID, r.MessageID, r.ConversationID, r.ToolCallID, r.Tool, string(r.State),
				nullJSON(r.Input), nullJSON(r.Output), nullIfEmpty(r.ErrorText), nullJSON(r.CallProviderMetadata)}
		}))
	}
	if n := len(rows.SourceURLs); n > 0 {
		out = append(out, sourceURLTable.insert(ph, n, func(i int) []any {
			r := rows.SourceURLs[i]
			return []any{r.ID, r.MessageID, r.ConversationID, r.SourceID, r.URL, nullIfEmpty(r.Title), nullJSON(r.ProviderMetadata)}
		}))
	}
	if n := len(rows.Data); n > 0 {
		out = append(out, dataTable.insert(ph, n, func(i int) []any {
			r := rows.Data[i]
			return []any{r.ID, r.MessageID, r.ConversationID, string(r.Name), nullJSON(r.Data)}
		}))
	}
	if n := len(rows.Files); n > 0 {
		out = append(out, fileTable.insert(ph, n, func(i int) []any {
			r := rows.Files[i]
			return []any{r.ID, r.MessageID, r.ConversationID, r.MediaType, r.URL, nullIfEmpty(r.Filename), nullJSON(r.ProviderMetadata)}
		}))
	}
	if n := len(rows.SourceDocuments); n > 0 {
		out = append(out, sourceDocumentTable.insert(ph, n, func(i int) []any {
			r := rows.SourceDocuments[i]
			return []any{r.ID, r.MessageID, r.ConversationID, r.SourceID, r.MediaType, r.Title,
				nullIfEmpty(r.Filename), nullJSON(r.ProviderMetadata)}
		}))
	}
	return out
}

// readConversation fans out the message query and one query per part table
// and waits for all of them. The first failure cancels the rest.
func readConversation(
	ctx context.Context,
	q queryFunc,
	ph placeholder,
	id string,
	readMessages func(ctx context.Context) ([]model.MessageRow, error),
) ([]model.MessageRow, *model.PartRows, error) {
	g, ctx := errgroup.WithContext(ctx)

	var messages []model.MessageRow
	rows := &model.PartRows{}

	g.Go(func() error {
		var err error
		messages, err = readMessages(ctx)
		return err
	})
	g.Go(func() error { return collect(ctx, q, ph, textTable, id, scanText, &rows.Texts) })
	g.Go(func() error { return collect(ctx, q, ph, reasoningTable, id, scanReasoning, &rows.Reasoning) })
	g.Go(func() error { return collect(ctx, q, ph, toolTable, id, scanTool, &rows.Tools) })
	g.Go(func() error { return collect(ctx, q, ph, sourceURLTable, id, scanSourceURL, &rows.SourceURLs) })
	g.Go(func() error { return collect(ctx, q, ph, dataTable, id, scanData, &rows.Data) })
	g.Go(func() error { return collect(ctx, q, ph, fileTable, id, scanFile, &rows.Files) })
	g.Go(func() error { return collect(ctx, q, ph, sourceDocumentTable, id, scanSourceDocument, &rows.SourceDocuments) })

	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("read conversation %s: %w", id, err)
	}
	return messages, rows, nil
}

func collect[T any](ctx context.Context, q queryFunc, ph placeholder, t table, id string, scan func(scanner) (T, error), dst *[]T) error {
	err := q(ctx, t.selectByConversation(ph), []any{id}, func(s scanner) error {
		v, err := scan(s)
		if err != nil {
			return err
		}
		*dst = append(*dst, v)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", t.name, err)
	}
	return nil
}

// countRows returns the row count of every part table.
func countRows(ctx context.Context, q queryFunc) (map[model.PartKind]int, error) {
	out := make(map[model.PartKind]int, len(partTables))
	for _, t := range partTables {
		var n int
		err := q(ctx, "SELECT COUNT(*) FROM "+t.name, nil, func(s scanner) error {
			return s.Scan(&n)
		})
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", t.name, err)
		}
		out[t.kind] = n
	}
	return out, nil
}

func scanText(s scanner) (model.TextRow, error) {
	var r model.TextRow
	var meta []byte
	err := s.Scan(&r.ID, &r.MessageID, &r.ConversationID, &r.Text, &meta)
	r.ProviderMetadata = rawJSON(meta)
	return r, err
}

func scanReasoning(s scanner) (model.ReasoningRow, error) {
	var r model.ReasoningRow
	var meta []byte
	err := s.Scan(&r.ID, &r.MessageID, &r.ConversationID, &r.Text, &meta)
	r.ProviderMetadata = rawJSON(meta)
	return r, err
}

func scanTool(s scanner) (model.ToolRow, error) {
	var r model.ToolRow
	var state string
	var input, output, meta []byte
	var errorText sql.NullString
	err := s.Scan(&r.ID, &r.MessageID, &r.ConversationID, &r.ToolCallID, &r.Tool, &state,
		&input, &output, &errorText, &meta)
	r.State = model.ToolState(state)
	r.Input = rawJSON(input)
	r.Output = rawJSON(output)
	r.ErrorText = errorText.String
	r.CallProviderMetadata = rawJSON(meta)
	return r, err
}

func scanSourceURL(s scanner) (model.SourceURLRow, error) {
	var r model.SourceURLRow
	var title sql.NullString
	var meta []byte
	err := s.Scan(&r.ID, &r.MessageID, &r.ConversationID, &r.SourceID, &r.URL, &title, &meta)
	r.Title = title.String
	r.ProviderMetadata = rawJSON(meta)
	return r, err
}

func scanData(s scanner) (model.DataRow, error) {
	var r model.DataRow
	var name string
	var data []byte
	err := s.Scan(&r.ID, &r.MessageID, &r.ConversationID, &name, &data)
	r.Name = model.DataName(name)
	r.Data = rawJSON(data)
	return r, err
}

func scanFile(s scanner) (model.FileRow, error) {
	var r model.FileRow
	var filename sql.NullString
	var meta []byte
	err := s.Scan(&r.ID, &r.MessageID, &r.ConversationID, &r.MediaType, &r.URL, &filename, &meta)
	r.Filename = filename.String
	r.ProviderMetadata = rawJSON(meta)
	return r, err
}

func scanSourceDocument(s scanner) (model.SourceDocumentRow, error) {
	var r model.SourceDocumentRow
	var filename sql.NullString
	var meta []byte
	err := s.Scan(&r.ID, &r.MessageID, &r.ConversationID, &r.SourceID, &r.MediaType, &r.Title, &filename, &meta)
	r.Filename = filename.String
	r.ProviderMetadata = rawJSON(meta)
	return r, err
}

// nullIfEmpty returns nil for empty strings (for nullable text columns).
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// nullJSON stores absent JSON as SQL NULL and anything else as its text.
func nullJSON(m json.RawMessage) any {
	if len(m) == 0 {
		return nil
	}
	return string(m)
}

func rawJSON(b []byte) json.RawMessage {
	if len(b) == 0 {
		return nil
	}
	return json.RawMessage(b)
}
