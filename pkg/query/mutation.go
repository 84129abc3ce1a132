package query

import "context"

// Rollback restores the cache to its pre-mutation snapshot. Returned by
// OnMutate and invoked only when the mutation fails.
type Rollback func()

// Hooks attach the optimistic-update protocol to a mutation:
//
//  1. OnMutate runs before the network call: cancel in-flight fetches for
//     the affected keys, snapshot their current values, and apply the
//     speculative write (merge for updates, removal for deletes). It returns
//     the rollback that undoes the speculative write.
//  2. OnSuccess runs after a successful call, typically invalidating the
//     affected list groups so watchers refetch.
//  3. OnError runs after the rollback has been applied.
//  4. OnSettled runs last in both outcomes.
type Hooks[Req, Res any] struct {
	OnMutate  func(ctx context.Context, req Req) (Rollback, error)
	OnSuccess func(ctx context.Context, req Req, res Res)
	OnError   func(ctx context.Context, req Req, err error)
	OnSettled func(ctx context.Context, req Req)
}

// MutationFunc performs the remote write.
type MutationFunc[Req, Res any] func(ctx context.Context, req Req) (Res, error)

// Mutation runs a remote write under the snapshot / speculative-write /
// commit-or-rollback protocol.
type Mutation[Req, Res any] struct {
	fn    MutationFunc[Req, Res]
	hooks Hooks[Req, Res]
}

func NewMutation[Req, Res any](fn MutationFunc[Req, Res], hooks Hooks[Req, Res]) *Mutation[Req, Res] {
	return &Mutation[Req, Res]{fn: fn, hooks: hooks}
}

// Mutate executes the mutation. On failure the rollback from OnMutate runs
// before OnError, and the error is returned to the caller for surfacing.
func (m *Mutation[Req, Res]) Mutate(ctx context.Context, req Req) (Res, error) {
	var zero Res

	var rollback Rollback
	if m.hooks.OnMutate != nil {
		var err error
		rollback, err = m.hooks.OnMutate(ctx, req)
		if err != nil {
			return zero, err
		}
	}

	res, err := m.fn(ctx, req)
	if err != nil {
		if rollback != nil {
			rollback()
		}
		if m.hooks.OnError != nil {
			m.hooks.OnError(ctx, req, err)
		}
		if m.hooks.OnSettled != nil {
			m.hooks.OnSettled(ctx, req)
		}
		return zero, err
	}

	if m.hooks.OnSuccess != nil {
		m.hooks.OnSuccess(ctx, req, res)
	}
	if m.hooks.OnSettled != nil {
		m.hooks.OnSettled(ctx, req)
	}
	return res, nil
}
