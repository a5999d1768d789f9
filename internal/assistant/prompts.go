package assistant

import "fmt"

const clarifySystem = `You help a person practising Getting Things Done clarify inbox items.

Decide whether the item is actionable and whether it needs more than one step.
Respond ONLY with a JSON object:
{"actionable": true|false, "is_project": true|false, "outcome": "desired end state or empty", "rationale": "one sentence"}

If the item is worth keeping but not actionable now, say "someday" in the rationale.`

const nextActionSystem = `You help a person practising Getting Things Done keep projects moving.

Given a project, reply with the single next physical action that moves it forward.
Respond with the action text only, one line, no quotes and no list markers.`

const assessSystem = `You help a person prioritise tasks with the Eisenhower matrix.

Decide whether the task is urgent (time-sensitive) and whether it is important (contributes to long-term goals).
Respond ONLY with a JSON object:
{"urgent": true|false, "important": true|false, "rationale": "one sentence"}`

func clarifyPrompt(description string) string {
	return fmt.Sprintf("Inbox item:\n%s", description)
}

func nextActionPrompt(project, outcome string) string {
	if outcome == "" {
		return fmt.Sprintf("Project: %s", project)
	}
	return fmt.Sprintf("Project: %s\nDesired outcome: %s", project, outcome)
}

func assessPrompt(description string) string {
	return fmt.Sprintf("Task:\n%s", description)
}
