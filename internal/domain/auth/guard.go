package auth

import "context"

type Outcome string

const (
	OutcomeLoading  Outcome = "loading"
	OutcomeRedirect Outcome = "redirect"
	OutcomeRender   Outcome = "render"
)

type Decision struct {
	Outcome  Outcome `json:"outcome"`
	Redirect Intent  `json:"redirect,omitempty"`
}

// Evaluate decides whether a destination guarded by required may render for
// state. An empty requirement only demands an authenticated identity.
func Evaluate(state State, required Capability) Decision {
	if state.Resolving {
		return Decision{Outcome: OutcomeLoading}
	}
	if state.Identity == nil {
		return Decision{Outcome: OutcomeRedirect, Redirect: IntentLogin}
	}
	if required == "" {
		return Decision{Outcome: OutcomeRender}
	}
	if !state.Identity.Can(required) {
		return Decision{Outcome: OutcomeRedirect, Redirect: IntentHome}
	}
	return Decision{Outcome: OutcomeRender}
}

type StateSource interface {
	Snapshot() State
	Subscribe() (<-chan State, func())
}

type Guard struct {
	source StateSource
}

func NewGuard(source StateSource) *Guard {
	return &Guard{source: source}
}

func (g *Guard) Check(required Capability) Decision {
	return Evaluate(g.source.Snapshot(), required)
}

// Watch re-evaluates the requirement on every session change and emits each
// distinct decision, starting with the current one. The channel closes when
// ctx is done.
func (g *Guard) Watch(ctx context.Context, required Capability) <-chan Decision {
	states, unsubscribe := g.source.Subscribe()
	out := make(chan Decision, 1)

	go func() {
		defer close(out)
		defer unsubscribe()

		var last Decision
		first := true
		for {
			select {
			case <-ctx.Done():
				return
			case state, ok := <-states:
				if !ok {
					return
				}
				decision := Evaluate(state, required)
				if !first && decision == last {
					continue
				}
				first = false
				last = decision
				select {
				case out <- decision:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}
