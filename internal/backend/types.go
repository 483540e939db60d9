// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"context"

	"github.com/jeranaias/docdocgo-cli/internal/model"
)

// Endpoint suffixes appended to the normalized base URL.
const (
	ChatPath   = "/chat"
	IngestPath = "/ingest"
)

// Transport sends a prepared payload to the backend. Chat is used for
// plain-text submissions and Ingest when files are attached.
type Transport interface {
	Chat(ctx context.Context, payload *Payload) (*ChatResponse, error)
	Ingest(ctx context.Context, payload *Payload, files []Attachment) (*ChatResponse, error)
}

// BotSettings are passed through verbatim on every request.
type BotSettings struct {
	LLMModelName string  `json:"llm_model_name"`
	Temperature  float64 `json:"temperature"`
}

// WireMessage is a transcript entry as transmitted: no system role, no
// sources.
type WireMessage struct {
	Role    model.Role `json:"role"`
	Content string     `json:"content"`
}

// Payload holds every non-file request field. Optional fields are omitted
// from the encoded request when empty.
type Payload struct {
	Message             string            `json:"message"`
	APIKey              string            `json:"api_key"`
	OpenAIAPIKey        string            `json:"openai_api_key,omitempty"`
	ChatHistory         []WireMessage     `json:"chat_history"`
	CollectionName      string            `json:"collection_name"`
	AccessCodesCache    map[string]string `json:"access_codes_cache,omitempty"`
	ScheduledQueriesStr string            `json:"scheduled_queries_str,omitempty"`
	BotSettings         *BotSettings      `json:"bot_settings,omitempty"`
}

// ChatResponse is the reply shape shared by /chat and /ingest. JSON nulls
// decode to zero values; Sources stays nil when the backend sent null.
type ChatResponse struct {
	Content                  string              `json:"content"`
	CollectionName           string              `json:"collection_name"`
	UserFacingCollectionName string              `json:"user_facing_collection_name"`
	Sources                  []string            `json:"sources"`
	Instructions             []model.Instruction `json:"instructions"`
	ScheduledQueriesStr      string              `json:"scheduled_queries_str"`
}

// Collection returns the collection carried by the reply, if both names are
// present.
func (r *ChatResponse) Collection() (model.CollectionInfo, bool) {
	return model.CollectionFromReply(r.CollectionName, r.UserFacingCollectionName)
}

// Attachment is a file selected for upload.
type Attachment struct {
	Name string
	Data []byte
}
