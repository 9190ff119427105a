package wizard

type ResultKind int

const (
	// KindPrompt asks the user for the next free-text input.
	KindPrompt ResultKind = iota
	// KindChoices asks the user to pick from a closed set.
	KindChoices
	// KindCompleted reports a terminal outcome: the session is gone.
	KindCompleted
	// KindRejected reports a refused input: the session did not move.
	KindRejected
)

// Choice is one selectable option. The ID travels back through
// SelectOption; the Label is what the user sees.
type Choice struct {
	Label string
	ID    string
}

// Result is the wizard's answer to one interaction. The front end renders
// it without knowing anything about steps.
type Result struct {
	Kind    ResultKind
	Text    string
	Choices []Choice
}

func Prompt(text string) Result {
	return Result{Kind: KindPrompt, Text: text}
}

func Choices(text string, choices []Choice) Result {
	return Result{Kind: KindChoices, Text: text, Choices: choices}
}

func Completed(text string) Result {
	return Result{Kind: KindCompleted, Text: text}
}

func Rejected(text string) Result {
	return Result{Kind: KindRejected, Text: text}
}
