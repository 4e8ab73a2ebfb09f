// Package cache provides a file-based cache for LLM responses.
//
// Entries are keyed by a SHA-256 hash of the provider name, model and the
// full assembled prompt, so any change to the selected commits, templates or
// token budget produces a new key. Each entry stores the response text with
// a creation timestamp and a TTL in seconds; expired entries miss on read and
// are deleted.
//
// The default directory is $XDG_CACHE_HOME/gitprompt (or the OS-appropriate
// equivalent). Prompts are redacted before they reach the cache.
package cache
