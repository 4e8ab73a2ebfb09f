// Package providers streams LLM completions for an assembled prompt.
//
// OpenAI, xAI, Gemini, Anthropic and LM Studio are all reached through their
// OpenAI-compatible chat endpoints with the official openai-go SDK; Ollama
// uses its own API client. Every provider implements [Streamer].
//
// Rate-limit and server errors are retried with exponential back-off, but
// only until the first piece of text has reached the caller. Authentication
// errors are never retried; use [IsAuthError] to detect them.
//
// Use [New] to obtain a Streamer by provider name.
package providers
