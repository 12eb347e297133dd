package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownPartType is returned when decoding a part whose type tag is not
// part of the UI message format.
var ErrUnknownPartType = errors.New("unknown part type")

const (
	toolTypePrefix = "tool-"
	dataTypePrefix = "data-"
)

// Parts is an ordered part list that encodes to the browser client's UI
// message format, where every part is an object tagged by "type".
type Parts []Part

// wirePart is the union of all fields a tagged part object can carry.
type wirePart struct {
	Type                 string          `json:"type"`
	Text                 string          `json:"text,omitempty"`
	ToolCallID           string          `json:"toolCallId,omitempty"`
	State                string          `json:"state,omitempty"`
	Input                json.RawMessage `json:"input,omitempty"`
	Output               json.RawMessage `json:"output,omitempty"`
	ErrorText            string          `json:"errorText,omitempty"`
	CallProviderMetadata json.RawMessage `json:"callProviderMetadata,omitempty"`
	SourceID             string          `json:"sourceId,omitempty"`
	URL                  string          `json:"url,omitempty"`
	Title                string          `json:"title,omitempty"`
	MediaType            string          `json:"mediaType,omitempty"`
	Filename             string          `json:"filename,omitempty"`
	Data                 json.RawMessage `json:"data,omitempty"`
	ProviderMetadata     json.RawMessage `json:"providerMetadata,omitempty"`
}

func (ps Parts) MarshalJSON() ([]byte, error) {
	out := make([]wirePart, 0, len(ps))
	for i, p := range ps {
		w, err := toWire(p)
		if err != nil {
			return nil, fmt.Errorf("part %d: %w", i, err)
		}
		out = append(out, w)
	}
	return json.Marshal(out)
}

func (ps *Parts) UnmarshalJSON(b []byte) error {
	var raw []wirePart
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(Parts, 0, len(raw))
	for i, w := range raw {
		p, err := fromWire(w)
		if err != nil {
			return fmt.Errorf("part %d: %w", i, err)
		}
		out = append(out, p)
	}
	*ps = out
	return nil
}

func toWire(p Part) (wirePart, error) {
	switch v := p.(type) {
	case StepStartPart:
		return wirePart{Type: string(KindStepStart)}, nil
	case TextPart:
		return wirePart{Type: string(KindText), Text: v.Text, ProviderMetadata: v.ProviderMetadata}, nil
	case ReasoningPart:
		return wirePart{Type: string(KindReasoning), Text: v.Text, ProviderMetadata: v.ProviderMetadata}, nil
	case ToolPart:
		return wirePart{
			Type:                 toolTypePrefix + v.Tool,
			ToolCallID:           v.ToolCallID,
			State:                string(v.State),
			Input:                v.Input,
			Output:               v.Output,
			ErrorText:            v.ErrorText,
			CallProviderMetadata: v.CallProviderMetadata,
		}, nil
	case SourceURLPart:
		return wirePart{
			Type:             string(KindSourceURL),
			SourceID:         v.SourceID,
			URL:              v.URL,
			Title:            v.Title,
			ProviderMetadata: v.ProviderMetadata,
		}, nil
	case DataPart:
		return wirePart{Type: dataTypePrefix + string(v.Name), Data: v.Data}, nil
	case FilePart:
		return wirePart{
			Type:             string(KindFile),
			MediaType:        v.MediaType,
			URL:              v.URL,
			Filename:         v.Filename,
			ProviderMetadata: v.ProviderMetadata,
		}, nil
	case SourceDocumentPart:
		return wirePart{
			Type:             string(KindSourceDocument),
			SourceID:         v.SourceID,
			MediaType:        v.MediaType,
			Title:            v.Title,
			Filename:         v.Filename,
			ProviderMetadata: v.ProviderMetadata,
		}, nil
	default:
		return wirePart{}, fmt.Errorf("%w: %T", ErrUnknownPartType, p)
	}
}

func fromWire(w wirePart) (Part, error) {
	switch {
	case w.Type == string(KindStepStart):
		return StepStartPart{}, nil
	case w.Type == string(KindText):
		return TextPart{Text: w.Text, ProviderMetadata: w.ProviderMetadata}, nil
	case w.Type == string(KindReasoning):
		return ReasoningPart{Text: w.Text, ProviderMetadata: w.ProviderMetadata}, nil
	case w.Type == string(KindSourceURL):
		return SourceURLPart{
			SourceID:         w.SourceID,
			URL:              w.URL,
			Title:            w.Title,
			ProviderMetadata: w.ProviderMetadata,
		}, nil
	case w.Type == string(KindFile):
		return FilePart{
			MediaType:        w.MediaType,
			URL:              w.URL,
			Filename:         w.Filename,
			ProviderMetadata: w.ProviderMetadata,
		}, nil
	case w.Type == string(KindSourceDocument):
		return SourceDocumentPart{
			SourceID:         w.SourceID,
			MediaType:        w.MediaType,
			Title:            w.Title,
			Filename:         w.Filename,
			ProviderMetadata: w.ProviderMetadata,
		}, nil
	case strings.HasPrefix(w.Type, toolTypePrefix) && len(w.Type) > len(toolTypePrefix):
		return ToolPart{
			Tool:                 strings.TrimPrefix(w.Type, toolTypePrefix),
			ToolCallID:           w.ToolCallID,
			State:                ToolState(w.State),
			Input:                w.Input,
			Output:               w.Output,
			ErrorText:            w.ErrorText,
			CallProviderMetadata: w.CallProviderMetadata,
		}, nil
	case strings.HasPrefix(w.Type, dataTypePrefix) && len(w.Type) > len(dataTypePrefix):
		return DataPart{Name: DataName(strings.TrimPrefix(w.Type, dataTypePrefix)), Data: w.Data}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPartType, w.Type)
	}
}
