// Package workflow runs the end-to-end operations behind the CLI: fetching
// commit records, building prompts from templates, streaming extractions to
// disk and sending prompts to a provider with response caching.
package workflow
