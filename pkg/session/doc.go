// Package session keeps per-conversation state in memory.
//
// Invariants:
// - A Session's history is replaced wholesale, never merged.
// - History reads return copies; callers cannot mutate stored state.
// - The transport owns the lifecycle: it creates a session when a
//   conversation starts and deletes it when the conversation ends.
//
// Usage:
//
//	store := session.NewStore()
//	sess := store.Create(ctx)
//	sess.SetHistory(result.ToInputList())
//	_ = store.Delete(ctx, sess.ID())
package session
