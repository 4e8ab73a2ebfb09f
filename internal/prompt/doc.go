// Package prompt assembles system and user prompts around commit diffs.
//
// [Assembler.Assemble] fills the {DIFF_CONTENT} placeholder with as many
// diffs as the token budget allows and appends a notice when some had to be
// left out.
package prompt
