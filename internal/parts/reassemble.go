package parts

import (
	"sort"

	"github.com/rcliao/agent-chat/internal/model"
)

// DefaultToolError is the error text given to a failed tool call that was
// stored without one.
const DefaultToolError = "Unknown error"

// ordered is a part tagged with the ID of the row it came from.
type ordered struct {
	id   string
	part model.Part
}

// Reassemble rebuilds messages from their stored rows. Rows are grouped by
// message and sorted by ID, which interleaves the kinds back into production
// order. Every message starts with one synthesized StepStartPart. Messages
// are returned in ascending ID order; rows for unknown messages are ignored.
func Reassemble(messages []model.MessageRow, rows *model.PartRows) []model.Message {
	if rows == nil {
		rows = &model.PartRows{}
	}

	groups := make(map[string][]ordered, len(messages))
	add := func(r model.PartRow, p model.Part) {
		groups[r.MessageID] = append(groups[r.MessageID], ordered{id: r.ID, part: p})
	}

	for _, r := range rows.Texts {
		add(r.PartRow, model.TextPart{Text: r.Text, ProviderMetadata: r.ProviderMetadata})
	}
	for _, r := range rows.Reasoning {
		add(r.PartRow, model.ReasoningPart{Text: r.Text, ProviderMetadata: r.ProviderMetadata})
	}
	for _, r := range rows.Tools {
		if p, ok := toolPart(r); ok {
			add(r.PartRow, p)
		}
	}
	for _, r := range rows.SourceURLs {
		add(r.PartRow, model.SourceURLPart{
			SourceID:         r.SourceID,
			URL:              r.URL,
			Title:            r.Title,
			ProviderMetadata: r.ProviderMetadata,
		})
	}
	for _, r := range rows.Data {
		if !r.Name.Recognized() {
			continue
		}
		add(r.PartRow, model.DataPart{Name: r.Name, Data: r.Data})
	}
	for _, r := range rows.Files {
		add(r.PartRow, model.FilePart{
			MediaType:        r.MediaType,
			URL:              r.URL,
			Filename:         r.Filename,
			ProviderMetadata: r.ProviderMetadata,
		})
	}
	for _, r := range rows.SourceDocuments {
		add(r.PartRow, model.SourceDocumentPart{
			SourceID:         r.SourceID,
			MediaType:        r.MediaType,
			Title:            r.Title,
			Filename:         r.Filename,
			ProviderMetadata: r.ProviderMetadata,
		})
	}

	sorted := make([]model.MessageRow, len(messages))
	copy(sorted, messages)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	out := make([]model.Message, 0, len(sorted))
	for _, m := range sorted {
		group := groups[m.ID]
		sort.Slice(group, func(i, j int) bool { return group[i].id < group[j].id })

		ps := make(model.Parts, 0, len(group)+1)
		ps = append(ps, model.StepStartPart{})
		for _, g := range group {
			ps = append(ps, g.part)
		}

		out = append(out, model.Message{
			ID:             m.ID,
			ConversationID: m.ConversationID,
			Role:           m.Role,
			CreatedAt:      m.CreatedAt,
			Parts:          ps,
		})
	}
	return out
}

// toolPart maps a stored tool row back to a part in the same terminal
// state. Rows in any other state are skipped.
func toolPart(r model.ToolRow) (model.ToolPart, bool) {
	p := model.ToolPart{
		Tool:                 r.Tool,
		ToolCallID:           r.ToolCallID,
		State:                r.State,
		Input:                r.Input,
		CallProviderMetadata: r.CallProviderMetadata,
	}
	switch r.State {
	case model.StateOutputAvailable:
		p.Output = r.Output
	case model.StateOutputError:
		p.ErrorText = r.ErrorText
		if p.ErrorText == "" {
			p.ErrorText = DefaultToolError
		}
	default:
		return model.ToolPart{}, false
	}
	return p, true
}
