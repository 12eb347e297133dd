package model

import (
	"encoding/json"
	"sort"
)

// PartKind names the storage family a part belongs to.
type PartKind string

const (
	KindStepStart      PartKind = "step-start"
	KindText           PartKind = "text"
	KindReasoning      PartKind = "reasoning"
	KindTool           PartKind = "tool"
	KindSourceURL      PartKind = "source-url"
	KindData           PartKind = "data"
	KindFile           PartKind = "file"
	KindSourceDocument PartKind = "source-document"
)

// StoredKinds lists the kinds that have their own table, in table order.
var StoredKinds = []PartKind{
	KindText,
	KindReasoning,
	KindTool,
	KindSourceURL,
	KindData,
	KindFile,
	KindSourceDocument,
}

// Part is one element of a message. The set of implementations is closed.
type Part interface {
	Kind() PartKind
	isPart()
}

// StepStartPart marks the beginning of a reasoning/tool-use step. It only
// exists in memory and is synthesized when a message is loaded.
type StepStartPart struct{}

// TextPart is a span of visible text.
type TextPart struct {
	Text             string
	ProviderMetadata json.RawMessage
}

// ReasoningPart is a span of model reasoning.
type ReasoningPart struct {
	Text             string
	ProviderMetadata json.RawMessage
}

// ToolPart is a tool invocation. Output is set for StateOutputAvailable,
// ErrorText for StateOutputError.
type ToolPart struct {
	Tool                 string
	ToolCallID           string
	State                ToolState
	Input                json.RawMessage
	Output               json.RawMessage
	ErrorText            string
	CallProviderMetadata json.RawMessage
}

// SourceURLPart cites a web source.
type SourceURLPart struct {
	SourceID         string
	URL              string
	Title            string
	ProviderMetadata json.RawMessage
}

// DataPart carries custom structured data streamed alongside the answer.
type DataPart struct {
	Name DataName
	Data json.RawMessage
}

// FilePart is a file attachment.
type FilePart struct {
	MediaType        string
	URL              string
	Filename         string
	ProviderMetadata json.RawMessage
}

// SourceDocumentPart cites a document source.
type SourceDocumentPart struct {
	SourceID         string
	MediaType        string
	Title            string
	Filename         string
	ProviderMetadata json.RawMessage
}

func (StepStartPart) Kind() PartKind      { return KindStepStart }
func (TextPart) Kind() PartKind           { return KindText }
func (ReasoningPart) Kind() PartKind      { return KindReasoning }
func (ToolPart) Kind() PartKind           { return KindTool }
func (SourceURLPart) Kind() PartKind      { return KindSourceURL }
func (DataPart) Kind() PartKind           { return KindData }
func (FilePart) Kind() PartKind           { return KindFile }
func (SourceDocumentPart) Kind() PartKind { return KindSourceDocument }

func (StepStartPart) isPart()      {}
func (TextPart) isPart()           {}
func (ReasoningPart) isPart()      {}
func (ToolPart) isPart()           {}
func (SourceURLPart) isPart()      {}
func (DataPart) isPart()           {}
func (FilePart) isPart()           {}
func (SourceDocumentPart) isPart() {}

// ToolState is the lifecycle state of a tool invocation.
type ToolState string

const (
	StateInputStreaming  ToolState = "input-streaming"
	StateInputAvailable  ToolState = "input-available"
	StateOutputAvailable ToolState = "output-available"
	StateOutputError     ToolState = "output-error"
	StateOutputDenied    ToolState = "output-denied"
)

// Terminal reports whether the invocation has finished with a result that
// gets persisted.
func (s ToolState) Terminal() bool {
	return s == StateOutputAvailable || s == StateOutputError
}

// DataName identifies the shape of a DataPart.
type DataName string

// DataProgress is a status update ({"text": "..."}) during long operations.
const DataProgress DataName = "progress"

// Recognized reports whether n is a data shape that gets persisted.
func (n DataName) Recognized() bool {
	return n == DataProgress
}

// ToolRegistry is the allow-list of tool names known to the tool runtime.
// The zero value allows nothing.
type ToolRegistry struct {
	names map[string]struct{}
}

// DefaultTools are the tools the chat agent ships with.
var DefaultTools = []string{"countCharacters"}

// NewToolRegistry returns a registry allowing the given tool names.
func NewToolRegistry(names ...string) *ToolRegistry {
	r := &ToolRegistry{names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		if n != "" {
			r.names[n] = struct{}{}
		}
	}
	return r
}

// Has reports whether name is registered.
func (r *ToolRegistry) Has(name string) bool {
	if r == nil {
		return false
	}
	_, ok := r.names[name]
	return ok
}

// Names returns the registered tool names, sorted.
func (r *ToolRegistry) Names() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.names))
	for n := range r.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
