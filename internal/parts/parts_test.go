package parts

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/agent-chat/internal/ids"
	"github.com/rcliao/agent-chat/internal/model"
)

// seqIDs hands out zero-padded counters, which sort like ULIDs.
type seqIDs struct{ n int }

func (s *seqIDs) Next() string {
	s.n++
	return fmt.Sprintf("%026d", s.n)
}

func tools() *model.ToolRegistry {
	return model.NewToolRegistry(model.DefaultTools...)
}

func everyKind() []model.Part {
	return []model.Part{
		model.StepStartPart{},
		model.ReasoningPart{Text: "Let me count.", ProviderMetadata: json.RawMessage(`{"openai":{"reasoningId":"r1"}}`)},
		model.ToolPart{
			Tool:       "countCharacters",
			ToolCallID: "call_1",
			State:      model.StateOutputAvailable,
			Input:      json.RawMessage(`{"text":"Hello world"}`),
			Output:     json.RawMessage(`{"characterCount":11,"remainingCharacters":269,"isWithinLimit":true,"status":"11/280 characters (269 remaining)"}`),
		},
		model.DataPart{Name: model.DataProgress, Data: json.RawMessage(`{"text":"drafting"}`)},
		model.TextPart{Text: "Here is a draft."},
		model.SourceURLPart{SourceID: "src-1", URL: "https://example.com/post", Title: "Example"},
		model.FilePart{MediaType: "image/png", URL: "https://example.com/a.png", Filename: "a.png"},
		model.SourceDocumentPart{SourceID: "doc-1", MediaType: "application/pdf", Title: "Style guide", Filename: "guide.pdf"},
		model.ToolPart{
			Tool:       "countCharacters",
			ToolCallID: "call_2",
			State:      model.StateOutputError,
			Input:      json.RawMessage(`{"text":""}`),
			ErrorText:  "text is empty",
		},
		model.TextPart{Text: "Done."},
	}
}

func TestDecomposeRoutesByKind(t *testing.T) {
	d := NewDecomposer(&seqIDs{}, tools())

	rows, err := d.Decompose("c1", "m1", everyKind())
	require.NoError(t, err)

	counts := rows.Counts()
	assert.Equal(t, 2, counts[model.KindText])
	assert.Equal(t, 1, counts[model.KindReasoning])
	assert.Equal(t, 2, counts[model.KindTool])
	assert.Equal(t, 1, counts[model.KindSourceURL])
	assert.Equal(t, 1, counts[model.KindData])
	assert.Equal(t, 1, counts[model.KindFile])
	assert.Equal(t, 1, counts[model.KindSourceDocument])

	for _, r := range rows.Texts {
		assert.Equal(t, "c1", r.ConversationID)
		assert.Equal(t, "m1", r.MessageID)
	}
	// Step start consumes no ID; reasoning is the first stored part.
	assert.Equal(t, fmt.Sprintf("%026d", 1), rows.Reasoning[0].ID)
	assert.Empty(t, rows.Tools[1].Output)
	assert.Equal(t, "text is empty", rows.Tools[1].ErrorText)
}

func TestDecomposeDropRules(t *testing.T) {
	d := NewDecomposer(&seqIDs{}, tools())

	rows, err := d.Decompose("c1", "m1", []model.Part{
		model.StepStartPart{},
		model.TextPart{Text: ""},
		model.TextPart{Text: "   \n\t"},
		model.ReasoningPart{Text: " "},
		model.ToolPart{Tool: "countCharacters", ToolCallID: "a", State: model.StateInputStreaming},
		model.ToolPart{Tool: "countCharacters", ToolCallID: "b", State: model.StateInputAvailable},
		model.ToolPart{Tool: "countCharacters", ToolCallID: "c", State: model.StateOutputDenied},
		model.DataPart{Name: "weather", Data: json.RawMessage(`{}`)},
	})
	require.NoError(t, err)
	assert.True(t, rows.Empty(), "expected no rows, got %+v", rows.Counts())
}

func TestDecomposeUnknownToolIsFatal(t *testing.T) {
	d := NewDecomposer(&seqIDs{}, tools())

	rows, err := d.Decompose("c1", "m1", []model.Part{
		model.TextPart{Text: "before"},
		model.ToolPart{Tool: "deleteEverything", ToolCallID: "x", State: model.StateOutputAvailable},
	})
	require.ErrorIs(t, err, ErrUnknownTool)
	assert.Nil(t, rows)
	assert.Contains(t, err.Error(), "countCharacters")
}

func TestDecomposeUnknownToolFatalEvenWhenPending(t *testing.T) {
	d := NewDecomposer(&seqIDs{}, tools())

	_, err := d.Decompose("c1", "m1", []model.Part{
		model.ToolPart{Tool: "deleteEverything", ToolCallID: "x", State: model.StateInputStreaming},
	})
	require.ErrorIs(t, err, ErrUnknownTool)
}

func TestDecomposeFreshIDsOnReplay(t *testing.T) {
	d := NewDecomposer(ids.New(), tools())
	input := []model.Part{model.TextPart{Text: "a"}, model.TextPart{Text: "b"}}

	first, err := d.Decompose("c1", "m1", input)
	require.NoError(t, err)
	second, err := d.Decompose("c1", "m1", input)
	require.NoError(t, err)

	assert.Less(t, first.Texts[1].ID, second.Texts[0].ID)
}

func TestRoundTrip(t *testing.T) {
	d := NewDecomposer(ids.New(), tools())
	input := everyKind()

	rows, err := d.Decompose("c1", "m1", input)
	require.NoError(t, err)

	got := Reassemble([]model.MessageRow{{ID: "m1", ConversationID: "c1", Role: model.RoleAssistant}}, rows)
	require.Len(t, got, 1)
	assert.Equal(t, model.Parts(input), got[0].Parts)
	assert.Equal(t, model.RoleAssistant, got[0].Role)
}

func TestRoundTripRegardlessOfRowOrder(t *testing.T) {
	d := NewDecomposer(ids.New(), tools())
	input := everyKind()

	rows, err := d.Decompose("c1", "m1", input)
	require.NoError(t, err)

	// Stores return rows unsorted.
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	rng.Shuffle(len(rows.Texts), func(i, j int) { rows.Texts[i], rows.Texts[j] = rows.Texts[j], rows.Texts[i] })
	rng.Shuffle(len(rows.Tools), func(i, j int) { rows.Tools[i], rows.Tools[j] = rows.Tools[j], rows.Tools[i] })

	got := Reassemble([]model.MessageRow{{ID: "m1", ConversationID: "c1", Role: model.RoleAssistant}}, rows)
	require.Len(t, got, 1)
	assert.Equal(t, model.Parts(input), got[0].Parts)
}

func TestReassembleSingleText(t *testing.T) {
	d := NewDecomposer(ids.New(), tools())
	rows, err := d.Decompose("c1", "m1", []model.Part{model.TextPart{Text: "Hi"}})
	require.NoError(t, err)

	got := Reassemble([]model.MessageRow{{ID: "m1", ConversationID: "c1", Role: model.RoleUser}}, rows)
	require.Len(t, got, 1)
	assert.Equal(t, model.Parts{model.StepStartPart{}, model.TextPart{Text: "Hi"}}, got[0].Parts)
}

func TestReassemblePendingToolLeavesOnlyBoundary(t *testing.T) {
	d := NewDecomposer(ids.New(), tools())
	rows, err := d.Decompose("c1", "m1", []model.Part{
		model.ToolPart{Tool: "countCharacters", ToolCallID: "a", State: model.StateInputStreaming, Input: json.RawMessage(`{"text":"Hel"}`)},
	})
	require.NoError(t, err)

	got := Reassemble([]model.MessageRow{{ID: "m1", ConversationID: "c1", Role: model.RoleAssistant}}, rows)
	require.Len(t, got, 1)
	assert.Equal(t, model.Parts{model.StepStartPart{}}, got[0].Parts)
}

func TestReassembleOrdersMessagesAndGroupsParts(t *testing.T) {
	gen := ids.New()
	d := NewDecomposer(gen, tools())

	m1, m2 := gen.Next(), gen.Next()
	r1, err := d.Decompose("c1", m1, []model.Part{model.TextPart{Text: "question"}})
	require.NoError(t, err)
	r2, err := d.Decompose("c1", m2, []model.Part{
		model.ReasoningPart{Text: "thinking"},
		model.TextPart{Text: "answer"},
	})
	require.NoError(t, err)

	all := &model.PartRows{
		Texts:     append(r2.Texts, r1.Texts...),
		Reasoning: r2.Reasoning,
	}
	got := Reassemble([]model.MessageRow{
		{ID: m2, ConversationID: "c1", Role: model.RoleAssistant},
		{ID: m1, ConversationID: "c1", Role: model.RoleUser},
	}, all)

	require.Len(t, got, 2)
	assert.Equal(t, m1, got[0].ID)
	assert.Equal(t, model.Parts{model.StepStartPart{}, model.TextPart{Text: "question"}}, got[0].Parts)
	assert.Equal(t, m2, got[1].ID)
	assert.Equal(t, model.Parts{
		model.StepStartPart{},
		model.ReasoningPart{Text: "thinking"},
		model.TextPart{Text: "answer"},
	}, got[1].Parts)
}

func TestReassembleSkipsUnrecognizedRows(t *testing.T) {
	row := func(id string) model.PartRow { return model.PartRow{ID: id, MessageID: "m1", ConversationID: "c1"} }
	rows := &model.PartRows{
		Data: []model.DataRow{
			{PartRow: row("01"), Name: "weather", Data: json.RawMessage(`{}`)},
			{PartRow: row("02"), Name: model.DataProgress, Data: json.RawMessage(`{"text":"ok"}`)},
		},
		Tools: []model.ToolRow{
			{PartRow: row("03"), Tool: "countCharacters", State: model.StateInputAvailable},
			{PartRow: row("04"), Tool: "countCharacters", State: model.StateOutputError},
		},
		Texts: []model.TextRow{{PartRow: model.PartRow{ID: "05", MessageID: "orphan"}, Text: "lost"}},
	}

	got := Reassemble([]model.MessageRow{{ID: "m1", ConversationID: "c1", Role: model.RoleAssistant}}, rows)
	require.Len(t, got, 1)
	assert.Equal(t, model.Parts{
		model.StepStartPart{},
		model.DataPart{Name: model.DataProgress, Data: json.RawMessage(`{"text":"ok"}`)},
		model.ToolPart{Tool: "countCharacters", State: model.StateOutputError, ErrorText: DefaultToolError},
	}, got[0].Parts)
}

func TestReassembleEmpty(t *testing.T) {
	assert.Empty(t, Reassemble(nil, nil))

	got := Reassemble([]model.MessageRow{{ID: "m1", Role: model.RoleUser}}, nil)
	require.Len(t, got, 1)
	assert.Equal(t, model.Parts{model.StepStartPart{}}, got[0].Parts)
}
