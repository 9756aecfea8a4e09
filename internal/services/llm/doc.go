// Package llm provides the chat-completions client used for script
// generation and feedback patch derivation.
package llm
