// Package output persists extracted commit records and assembled prompts.
//
// [SaveRecords] streams a record sequence into a JSON array on disk without
// holding the whole sequence in memory; an empty sequence still produces a
// valid "[]". [WritePrompt] and [SavePrompt] deliver prompt text to a writer or
// a file, and [WriteLog] renders a condensed listing for choosing commits.
//
// Files land under an output root in one folder per kind of extraction; see
// [FolderFor] and [ResolvePath].
package output
