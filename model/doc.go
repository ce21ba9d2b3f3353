// Package model defines the provider-agnostic text generation contract used
// to turn a fused context bundle into a reply.
//
// Core goals:
//   - Keep the request/response shapes minimal and transport independent
//     (system prompt in, completion text out)
//   - Let providers (OpenAI, Anthropic) implement the Backend interface so
//     higher layers remain decoupled from vendor SDKs
//   - Facilitate lightweight mocking for tests (MockBackend)
package model
