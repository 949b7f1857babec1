package connector

import (
	"context"

	"github.com/zero-day-ai/cti-sdk/state"
)

type stateKey struct{}

func withState(ctx context.Context, s state.State) context.Context {
	return context.WithValue(ctx, stateKey{}, s.Clone())
}

// StateFromContext returns the state saved by the previous run. It is the
// zero State on a first run or outside a connector run.
func StateFromContext(ctx context.Context) state.State {
	s, _ := ctx.Value(stateKey{}).(state.State)
	return s.Clone()
}
