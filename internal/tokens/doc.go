// Package tokens estimates how many LLM tokens a piece of text occupies.
//
// Encodings come from tiktoken with BPE ranks embedded in the binary, so
// counting never touches the network.
package tokens
