package domain

type State int

const (
	StateLoggedOut State = iota
	StateHydrating
	StateActive
)

func (s State) String() string {
	switch s {
	case StateLoggedOut:
		return "logged_out"
	case StateHydrating:
		return "hydrating"
	case StateActive:
		return "active"
	default:
		return "unknown"
	}
}
