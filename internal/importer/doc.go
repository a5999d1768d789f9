// Package importer converts external exports into tasks and projects.
//
// Importers validate their own input and produce a Result that already
// satisfies the task graph rules: every task is owned by at most one
// project and both sides of the link agree. Imported ids are prefixed with
// the source name, so importing the same export twice upserts instead of
// duplicating.
package importer
