package model

import "encoding/json"

// PartRow holds the columns every part table shares. ID is a ULID minted
// when the message is decomposed; sorting rows of one message by ID yields
// the order the parts were produced in.
type PartRow struct {
	ID             string `json:"id"`
	MessageID      string `json:"message_id"`
	ConversationID string `json:"conversation_id"`
}

type TextRow struct {
	PartRow
	Text             string          `json:"text"`
	ProviderMetadata json.RawMessage `json:"provider_metadata,omitempty"`
}

type ReasoningRow struct {
	PartRow
	Text             string          `json:"text"`
	ProviderMetadata json.RawMessage `json:"provider_metadata,omitempty"`
}

type ToolRow struct {
	PartRow
	ToolCallID           string          `json:"tool_call_id"`
	Tool                 string          `json:"tool"`
	State                ToolState       `json:"state"`
	Input                json.RawMessage `json:"input,omitempty"`
	Output               json.RawMessage `json:"output,omitempty"`
	ErrorText            string          `json:"error_text,omitempty"`
	CallProviderMetadata json.RawMessage `json:"call_provider_metadata,omitempty"`
}

type SourceURLRow struct {
	PartRow
	SourceID         string          `json:"source_id"`
	URL              string          `json:"url"`
	Title            string          `json:"title,omitempty"`
	ProviderMetadata json.RawMessage `json:"provider_metadata,omitempty"`
}

type DataRow struct {
	PartRow
	Name DataName        `json:"data_type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type FileRow struct {
	PartRow
	MediaType        string          `json:"media_type"`
	URL              string          `json:"url"`
	Filename         string          `json:"filename,omitempty"`
	ProviderMetadata json.RawMessage `json:"provider_metadata,omitempty"`
}

type SourceDocumentRow struct {
	PartRow
	SourceID         string          `json:"source_id"`
	MediaType        string          `json:"media_type"`
	Title            string          `json:"title"`
	Filename         string          `json:"filename,omitempty"`
	ProviderMetadata json.RawMessage `json:"provider_metadata,omitempty"`
}

// PartRows groups storage rows by kind. It is both the output of
// decomposition (one message) and the result of a conversation read.
type PartRows struct {
	Texts           []TextRow           `json:"texts,omitempty"`
	Reasoning       []ReasoningRow      `json:"reasoning,omitempty"`
	Tools           []ToolRow           `json:"tools,omitempty"`
	SourceURLs      []SourceURLRow      `json:"source_urls,omitempty"`
	Data            []DataRow           `json:"data,omitempty"`
	Files           []FileRow           `json:"files,omitempty"`
	SourceDocuments []SourceDocumentRow `json:"source_documents,omitempty"`
}

// Counts returns the number of rows per stored kind.
func (r *PartRows) Counts() map[PartKind]int {
	if r == nil {
		return map[PartKind]int{}
	}
	return map[PartKind]int{
		KindText:           len(r.Texts),
		KindReasoning:      len(r.Reasoning),
		KindTool:           len(r.Tools),
		KindSourceURL:      len(r.SourceURLs),
		KindData:           len(r.Data),
		KindFile:           len(r.Files),
		KindSourceDocument: len(r.SourceDocuments),
	}
}

// Len returns the total number of rows.
func (r *PartRows) Len() int {
	n := 0
	for _, c := range r.Counts() {
		n += c
	}
	return n
}

// Empty reports whether there are no rows of any kind.
func (r *PartRows) Empty() bool {
	return r.Len() == 0
}
