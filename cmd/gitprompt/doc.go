// Gitprompt turns git history into prompts for large language models.
//
// It extracts diffs for staged changes, recent history or selected commits,
// packs them into prompt templates within a token budget, and prints, saves
// or streams the result to an LLM provider.
//
// Usage:
//
//	gitprompt log --since 2024-01-01          # list the commits a query selects
//	gitprompt extract --limit 10              # save the last 10 commits as JSON
//	gitprompt extract --mode staged           # save the staged changes as JSON
//	gitprompt prompt code-review              # review prompt for staged changes
//	gitprompt prompt release-notes --save     # release notes prompt to a file
//	gitprompt prompt --hash abc1234 --exec ollama  # analyze a commit locally
//	gitprompt ask "Summarize this" < prompt.txt
//
// Configuration lives in $XDG_CONFIG_HOME/gitprompt/config.json; API keys are
// read from the environment or a .env file.
package main
