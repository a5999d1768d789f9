// Package secrets redacts credentials from captured text before it leaves
// the machine, e.g. in a prompt to an LLM provider.
package secrets
