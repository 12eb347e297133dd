package store

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rcliao/agent-chat/internal/ids"
	"github.com/rcliao/agent-chat/internal/model"
	"github.com/rcliao/agent-chat/internal/parts"
)

// runStoreTests exercises behaviour every backend must share. Conversation
// IDs are random so the suite can run against a shared database.
func runStoreTests(t *testing.T, s Store) {
	t.Run("EnsureConversationIdempotent", func(t *testing.T) { testEnsureIdempotent(t, s) })
	t.Run("EnsureConversationRace", func(t *testing.T) { testEnsureRace(t, s) })
	t.Run("WriteAndReadConversation", func(t *testing.T) { testWriteRead(t, s) })
	t.Run("WriteMessageAtomic", func(t *testing.T) { testWriteAtomic(t, s) })
	t.Run("WriteMessageUnknownConversation", func(t *testing.T) { testWriteOrphan(t, s) })
	t.Run("ListConversations", func(t *testing.T) { testList(t, s) })
	t.Run("DeleteConversation", func(t *testing.T) { testDelete(t, s) })
	t.Run("Stats", func(t *testing.T) { testStats(t, s) })
}

func newConversationID() string {
	return uuid.Must(uuid.NewV7()).String()
}

func everyKindParts() []model.Part {
	return []model.Part{
		model.StepStartPart{},
		model.ReasoningPart{Text: "Counting.", ProviderMetadata: json.RawMessage(`{"openai": {"reasoningId": "r1"}}`)},
		model.ToolPart{
			Tool:       "countCharacters",
			ToolCallID: "call_1",
			State:      model.StateOutputAvailable,
			Input:      json.RawMessage(`{"text":"Hello world"}`),
			Output:     json.RawMessage(`{"characterCount":11}`),
		},
		model.DataPart{Name: model.DataProgress, Data: json.RawMessage(`{"text":"drafting"}`)},
		model.TextPart{Text: "Hello world has 11 characters."},
		model.SourceURLPart{SourceID: "s1", URL: "https://example.com"},
		model.FilePart{MediaType: "text/plain", URL: "data:text/plain;base64,aGk=", Filename: "hi.txt"},
		model.SourceDocumentPart{SourceID: "d1", MediaType: "application/pdf", Title: "Guide"},
		model.ToolPart{Tool: "countCharacters", ToolCallID: "call_2", State: model.StateOutputError, ErrorText: "boom"},
	}
}

func writeTurn(t *testing.T, s Store, gen *ids.Generator, convID string, role model.Role, ps []model.Part) model.MessageRow {
	t.Helper()
	ctx := context.Background()

	msg := model.MessageRow{ID: gen.Next(), ConversationID: convID, Role: role, CreatedAt: time.Now()}
	d := parts.NewDecomposer(gen, model.NewToolRegistry(model.DefaultTools...))
	rows, err := d.Decompose(convID, msg.ID, ps)
	if err != nil {
		t.Fatalf("decompose: %v", err)
	}
	if _, err := s.EnsureConversation(ctx, convID); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if err := s.WriteMessage(ctx, msg, rows); err != nil {
		t.Fatalf("write message: %v", err)
	}
	return msg
}

// jsonEqual compares two values by their JSON encoding, ignoring
// whitespace and key order the database may have normalized.
func jsonEqual(t *testing.T, want, got any) bool {
	t.Helper()
	decode := func(v any) any {
		b, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		var out any
		if err := json.Unmarshal(b, &out); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		return out
	}
	return reflect.DeepEqual(decode(want), decode(got))
}

func testEnsureIdempotent(t *testing.T, s Store) {
	ctx := context.Background()
	id := newConversationID()

	created, err := s.EnsureConversation(ctx, id)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if !created {
		t.Error("expected first ensure to create")
	}

	created, err = s.EnsureConversation(ctx, id)
	if err != nil {
		t.Fatalf("second ensure: %v", err)
	}
	if created {
		t.Error("expected second ensure to find existing conversation")
	}

	c, err := s.GetConversation(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if c.ID != id || c.CreatedAt.IsZero() {
		t.Errorf("unexpected conversation %+v", c)
	}
}

func testEnsureRace(t *testing.T, s Store) {
	ctx := context.Background()
	id := newConversationID()

	const n = 8
	var wg sync.WaitGroup
	results := make(chan bool, n)
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			created, err := s.EnsureConversation(ctx, id)
			if err != nil {
				errs <- err
				return
			}
			results <- created
		}()
	}
	wg.Wait()
	close(results)
	close(errs)

	for err := range errs {
		t.Errorf("ensure: %v", err)
	}
	winners := 0
	for created := range results {
		if created {
			winners++
		}
	}
	if winners != 1 {
		t.Errorf("expected exactly one creator, got %d", winners)
	}
}

func testWriteRead(t *testing.T, s Store) {
	ctx := context.Background()
	gen := ids.New()
	convID := newConversationID()

	user := writeTurn(t, s, gen, convID, model.RoleUser, []model.Part{model.TextPart{Text: "How long is Hello world?"}})
	assistant := writeTurn(t, s, gen, convID, model.RoleAssistant, everyKindParts())

	msgs, rows, err := s.ReadConversation(ctx, convID)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if got := rows.Counts()[model.KindTool]; got != 2 {
		t.Errorf("expected 2 tool rows, got %d", got)
	}

	got := parts.Reassemble(msgs, rows)
	if got[0].ID != user.ID || got[1].ID != assistant.ID {
		t.Fatalf("messages out of order: %s, %s", got[0].ID, got[1].ID)
	}
	if got[0].Role != model.RoleUser || got[1].Role != model.RoleAssistant {
		t.Errorf("roles not restored: %s, %s", got[0].Role, got[1].Role)
	}
	if !jsonEqual(t, model.Parts(everyKindParts()), got[1].Parts) {
		b, _ := json.Marshal(got[1].Parts)
		t.Errorf("assistant parts not restored, got %s", b)
	}
}

func testWriteAtomic(t *testing.T, s Store) {
	ctx := context.Background()
	gen := ids.New()
	convID := newConversationID()
	if _, err := s.EnsureConversation(ctx, convID); err != nil {
		t.Fatalf("ensure: %v", err)
	}

	msg := model.MessageRow{ID: gen.Next(), ConversationID: convID, Role: model.RoleAssistant, CreatedAt: time.Now()}
	dup := model.PartRow{ID: gen.Next(), MessageID: msg.ID, ConversationID: convID}
	rows := &model.PartRows{
		Reasoning: []model.ReasoningRow{{PartRow: model.PartRow{ID: gen.Next(), MessageID: msg.ID, ConversationID: convID}, Text: "ok"}},
		Texts:     []model.TextRow{{PartRow: dup, Text: "a"}, {PartRow: dup, Text: "b"}},
	}

	if err := s.WriteMessage(ctx, msg, rows); err == nil {
		t.Fatal("expected duplicate part id to fail")
	}

	msgs, got, err := s.ReadConversation(ctx, convID)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(msgs) != 0 || !got.Empty() {
		t.Errorf("expected nothing written, got %d messages and %v", len(msgs), got.Counts())
	}
}

func testWriteOrphan(t *testing.T, s Store) {
	gen := ids.New()
	msg := model.MessageRow{ID: gen.Next(), ConversationID: newConversationID(), Role: model.RoleUser, CreatedAt: time.Now()}
	if err := s.WriteMessage(context.Background(), msg, nil); err == nil {
		t.Error("expected write without conversation to fail")
	}
}

func testList(t *testing.T, s Store) {
	ctx := context.Background()
	gen := ids.New()
	older := newConversationID()
	writeTurn(t, s, gen, older, model.RoleUser, []model.Part{model.TextPart{Text: "one"}})
	time.Sleep(2 * time.Millisecond)
	newer := newConversationID()
	writeTurn(t, s, gen, newer, model.RoleUser, []model.Part{model.TextPart{Text: "two"}})
	writeTurn(t, s, gen, newer, model.RoleAssistant, []model.Part{model.TextPart{Text: "three"}})

	list, err := s.ListConversations(ctx, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 conversations, got %d", len(list))
	}
	if list[0].ID != newer || list[1].ID != older {
		t.Errorf("expected newest first, got %s, %s", list[0].ID, list[1].ID)
	}
	if list[0].Messages != 2 || list[1].Messages != 1 {
		t.Errorf("unexpected message counts %d, %d", list[0].Messages, list[1].Messages)
	}
}

func testDelete(t *testing.T, s Store) {
	ctx := context.Background()
	gen := ids.New()
	convID := newConversationID()
	writeTurn(t, s, gen, convID, model.RoleAssistant, everyKindParts())

	if err := s.DeleteConversation(ctx, convID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	msgs, rows, err := s.ReadConversation(ctx, convID)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(msgs) != 0 || !rows.Empty() {
		t.Errorf("expected cascade delete, got %d messages and %v", len(msgs), rows.Counts())
	}

	if _, err := s.GetConversation(ctx, convID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.DeleteConversation(ctx, convID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func testStats(t *testing.T, s Store) {
	ctx := context.Background()
	gen := ids.New()
	writeTurn(t, s, gen, newConversationID(), model.RoleAssistant, everyKindParts())

	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.Conversations < 1 || st.Messages < 1 {
		t.Errorf("expected counts, got %+v", st)
	}
	for _, k := range model.StoredKinds {
		if st.Parts[k] < 1 {
			t.Errorf("expected at least one %s row, got %d", k, st.Parts[k])
		}
	}
}
