// Package gitctx extracts diffs and commit metadata from a git repository.
//
// [Fetch] produces a lazy sequence of [CommitRecord] values for one of three
// modes: the staged changes as a single pseudo-commit, a filtered walk of
// history, or an explicit list of revisions. Every record carries a diff
// rendered by [Extractor], which labels each file as new, deleted or
// modified and never fails outright; unreadable entries become inline
// placeholders.
//
// Repository access goes through go-git, so no git binary is required.
package gitctx
