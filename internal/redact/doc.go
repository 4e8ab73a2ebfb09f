// Package redact removes secrets from commit diffs before they are written
// to a prompt or sent to any LLM provider.
//
// Detection uses regex heuristics covering common secret shapes: API keys,
// JWTs, private keys, AWS access key IDs and secret access keys, bearer
// tokens, database connection strings, and provider-specific tokens
// (Anthropic, OpenAI, xAI, Google, GitHub, Slack).
//
// Path-based redaction is also supported: files whose paths match configured
// doublestar patterns keep their header but have their body replaced with a
// [REDACTED] notice.
package redact
