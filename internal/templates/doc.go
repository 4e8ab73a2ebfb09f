// Package templates loads prompt templates.
//
// A template names which records to fetch (staged changes or the last N
// commits), carries the system and user prompt text, and says where the
// finished prompt should go. Templates ship built into the binary and can be
// added or overridden with JSON or YAML files in a templates directory.
package templates
