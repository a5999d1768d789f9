// Package classify turns capture items into processed items.
//
// A Chain holds Processors in a fixed order: task, event, reference, then a
// catch-all. The first processor whose CanProcess accepts an item produces
// the result. Structured manual entries are decided by their fields; free
// text by keyword families with precedence task > event > reference >
// project idea. Anything else is unclear and goes to review-later.
package classify
