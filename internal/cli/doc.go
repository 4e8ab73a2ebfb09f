// Package cli wires together the Cobra command tree for the gitprompt binary.
//
// It defines the root command and all subcommands (log, extract, prompt, ask,
// templates, repos, config, models, cache, version), binds flags, reads
// configuration, invokes the workflow engine, and maps failures to exit
// codes: 0 success, 1 no matching data, 2 usage, 3 authentication, 4 runtime.
package cli
