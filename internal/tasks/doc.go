// Package tasks holds the GTD domain model: Tasks, Projects and the stores
// that own them.
//
// Task and Project reference each other in memory. The link helpers on
// Project keep both sides consistent: attaching a task to a project sets
// task.Project and appends to project.Tasks in one call, detaching it from
// any previous owner first.
package tasks
