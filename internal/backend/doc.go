// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend provides the wire contract and HTTP client for a DocDocGo
// chat backend.
//
// The backend exposes two endpoints sharing one response shape:
//
//   - POST {base}/chat: JSON body, used when no files are attached
//   - POST {base}/ingest: multipart form, used when files are attached
//
// # Key Types
//
//   - Transport: The interface the session controller consumes
//   - Client: net/http implementation of Transport
//   - Payload: Request fields shared by both encoders
//   - ChatResponse: Parsed reply with sources, instructions and scheduled query
//   - HTTPError: Non-2xx failure carrying the server's message when available
//
// # Usage
//
//	client := backend.NewClient("http://localhost:5000/")
//	resp, err := client.Chat(ctx, &backend.Payload{
//	    Message:     "Hello",
//	    APIKey:      apiKey,
//	    ChatHistory: backend.EncodeHistory(nil),
//	})
//
// # Security
//
// API keys and access codes travel only in request bodies and are never
// logged; the client logs a SHA-256 fingerprint of the API key instead.
package backend
