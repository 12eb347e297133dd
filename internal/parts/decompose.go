// Package parts converts between a message's ordered part list and the
// per-kind rows it is stored as.
//
// Order across the seven part tables is carried only by the row IDs: every
// persisted part gets a fresh time-ordered ID in production order, so
// sorting the rows of one message by ID restores the order they were produced in.
package parts

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rcliao/agent-chat/internal/model"
)

// ErrUnknownTool means a tool part names a tool the registry does not know.
// It signals drift between the tool runtime and persistence and is never
// silently ignored.
var ErrUnknownTool = errors.New("unknown tool type")

// IDSource mints sortable identifiers.
type IDSource interface {
	Next() string
}

// Decomposer turns a message's parts into storage rows.
type Decomposer struct {
	ids   IDSource
	tools *model.ToolRegistry
}

// NewDecomposer returns a Decomposer that draws row IDs from ids and
// accepts only tool parts registered in tools.
func NewDecomposer(ids IDSource, tools *model.ToolRegistry) *Decomposer {
	return &Decomposer{ids: ids, tools: tools}
}

// Decompose routes each part into the row batch for its kind. Step
// boundaries, blank text and reasoning, unfinished tool calls, and
// unrecognized data parts produce no row. On error no rows are returned.
func (d *Decomposer) Decompose(conversationID, messageID string, parts []model.Part) (*model.PartRows, error) {
	rows := &model.PartRows{}

	for i, p := range parts {
		switch v := p.(type) {
		case model.StepStartPart:
			continue

		case model.TextPart:
			if strings.TrimSpace(v.Text) == "" {
				continue
			}
			rows.Texts = append(rows.Texts, model.TextRow{
				PartRow:          d.row(conversationID, messageID),
				Text:             v.Text,
				ProviderMetadata: v.ProviderMetadata,
			})

		case model.ReasoningPart:
			if strings.TrimSpace(v.Text) == "" {
				continue
			}
			rows.Reasoning = append(rows.Reasoning, model.ReasoningRow{
				PartRow:          d.row(conversationID, messageID),
				Text:             v.Text,
				ProviderMetadata: v.ProviderMetadata,
			})

		case model.ToolPart:
			if !d.tools.Has(v.Tool) {
				return nil, fmt.Errorf("part %d: %w: %q (valid: %s)",
					i, ErrUnknownTool, v.Tool, strings.Join(d.tools.Names(), ", "))
			}
			if !v.State.Terminal() {
				continue
			}
			row := model.ToolRow{
				PartRow:              d.row(conversationID, messageID),
				ToolCallID:           v.ToolCallID,
				Tool:                 v.Tool,
				State:                v.State,
				Input:                v.Input,
				CallProviderMetadata: v.CallProviderMetadata,
			}
			if v.State == model.StateOutputAvailable {
				row.Output = v.Output
			} else {
				row.ErrorText = v.ErrorText
			}
			rows.Tools = append(rows.Tools, row)

		case model.SourceURLPart:
			rows.SourceURLs = append(rows.SourceURLs, model.SourceURLRow{
				PartRow:          d.row(conversationID, messageID),
				SourceID:         v.SourceID,
				URL:              v.URL,
				Title:            v.Title,
				ProviderMetadata: v.ProviderMetadata,
			})

		case model.DataPart:
			if !v.Name.Recognized() {
				continue
			}
			rows.Data = append(rows.Data, model.DataRow{
				PartRow: d.row(conversationID, messageID),
				Name:    v.Name,
				Data:    v.Data,
			})

		case model.FilePart:
			rows.Files = append(rows.Files, model.FileRow{
				PartRow:          d.row(conversationID, messageID),
				MediaType:        v.MediaType,
				URL:              v.URL,
				Filename:         v.Filename,
				ProviderMetadata: v.ProviderMetadata,
			})

		case model.SourceDocumentPart:
			rows.SourceDocuments = append(rows.SourceDocuments, model.SourceDocumentRow{
				PartRow:          d.row(conversationID, messageID),
				SourceID:         v.SourceID,
				MediaType:        v.MediaType,
				Title:            v.Title,
				Filename:         v.Filename,
				ProviderMetadata: v.ProviderMetadata,
			})

		default:
			return nil, fmt.Errorf("part %d: %w: %T", i, model.ErrUnknownPartType, p)
		}
	}

	return rows, nil
}

func (d *Decomposer) row(conversationID, messageID string) model.PartRow {
	return model.PartRow{
		ID:             d.ids.Next(),
		MessageID:      messageID,
		ConversationID: conversationID,
	}
}
