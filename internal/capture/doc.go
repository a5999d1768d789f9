// Package capture defines what enters the pipeline and what classification
// produces from it.
//
// An Item is an immutable record of something the user captured: free text
// from a chat message or email, or a structured manual entry. Classification
// turns it into a Processed item carrying a Nature, a Destination and an
// Extracted value whose concrete type depends on the nature.
package capture
