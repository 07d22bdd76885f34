package tasksync

import (
	"context"

	"taskdeck/pkg/session"
	"taskdeck/pkg/utils"
)

// Follow keeps the store in step with the session states read from states
// until ctx ends or states is closed. Each new AUTHENTICATED state starts
// from an empty collection and loads the principal's tasks; ANONYMOUS
// empties the store. notify, if not nil, receives every handled state with
// the outcome of its load.
func (s *Store) Follow(ctx context.Context, states <-chan session.State, notify func(session.State, error)) {
	var seen uint64
	var followed bool

	for {
		select {
		case <-ctx.Done():
			return
		case st, ok := <-states:
			if !ok {
				return
			}
			if followed && st.Generation == seen {
				continue
			}
			followed = true
			seen = st.Generation

			var err error
			switch st.Status {
			case session.StatusAuthenticated:
				s.Reset()
				utils.Log("Loading tasks for %s", st.Principal.UID())
				err = s.Load(ctx)
			case session.StatusAnonymous:
				s.Reset()
			default:
				continue
			}
			if notify != nil {
				notify(st, err)
			}
		}
	}
}
