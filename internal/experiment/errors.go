package experiment

import "fmt"

// InjectedFaultError is returned in place of a response when a fault
// injection fires.
type InjectedFaultError struct {
	Strategy     string
	Message      string
	InvocationID string
}

func (e *InjectedFaultError) Error() string {
	return fmt.Sprintf("%s (injected by %s)", e.Message, e.Strategy)
}
