// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"slices"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// FilesField is the form field name every attachment part is sent under.
const FilesField = "files"

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// EncodeJSON encodes the payload as the /chat request body.
func EncodeJSON(p *Payload) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("encode payload: nil payload")
	}
	body, err := json.Marshal(normalized(p))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return body, nil
}

// EncodeMultipart encodes the payload and files as the /ingest request body.
// Files come first as binary parts. Every other field follows as a form
// field holding its JSON encoding, strings included, so an empty string is
// sent as "" rather than as an empty field that strict parsers reject.
// It returns the body and its Content-Type header value.
func EncodeMultipart(p *Payload, files []Attachment) ([]byte, string, error) {
	if p == nil {
		return nil, "", fmt.Errorf("encode payload: nil payload")
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			quoteEscaper.Replace(FilesField), quoteEscaper.Replace(f.Name)))
		h.Set("Content-Type", mimetype.Detect(f.Data).String())

		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("create part for %s: %w", f.Name, err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, "", fmt.Errorf("write part for %s: %w", f.Name, err)
		}
	}

	fields, err := FormFields(p)
	if err != nil {
		return nil, "", err
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if err := w.WriteField(k, fields[k]); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", k, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// FormFields returns each payload field that would appear in the JSON body,
// keyed by its JSON name, with its JSON encoding as the value.
func FormFields(p *Payload) (map[string]string, error) {
	body, err := json.Marshal(normalized(p))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to split request fields: %w", err)
	}
	fields := make(map[string]string, len(raw))
	for k, v := range raw {
		fields[k] = string(v)
	}
	return fields, nil
}

// normalized guarantees chat_history encodes as [] rather than null.
func normalized(p *Payload) *Payload {
	if p.ChatHistory != nil {
		return p
	}
	cp := *p
	cp.ChatHistory = []WireMessage{}
	return &cp
}
