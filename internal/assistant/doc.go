// Package assistant is the optional LLM collaborator used by the GTD and
// Eisenhower engines.
//
// Collaborator is the narrow contract the engines consume. NoOp is the
// manual-fallback default used when no provider is configured. Guarded wraps
// a Provider (OpenAI, Anthropic or Ollama) with a per-call timeout, a rate
// limiter and secret scrubbing, and turns every failure into an "unknown"
// answer so callers never see an error.
package assistant
