// Package config loads and merges gitprompt configuration from multiple sources.
//
// Precedence (highest to lowest):
//  1. CLI flags
//  2. Environment variables (GITPROMPT_PROVIDER, GITPROMPT_MAX_TOKENS, etc.),
//     then a .env file in the working directory
//  3. Config file ($XDG_CONFIG_HOME/gitprompt/config.json)
//  4. Built-in defaults
//
// API keys (OPENAI_API_KEY, XAI_API_KEY, GEMINI_API_KEY, ANTHROPIC_API_KEY)
// are read from the environment only and never saved.
//
// Use [Load] to obtain a merged [Config], [Save] to write one, and
// [SetField] to update a single key. [FilePathStore] remembers repository
// paths between runs.
package config
