// Package timer provides cancellable one-shot timers for the alarm scheduler.
//
// A Handle wraps one delayed action. Exactly one of "fire" and "cancel" wins
// for a given handle; once the action has started, Cancel has no effect on
// that run, so actions must re-validate the state they act on.
//
// A Slot holds at most one active Handle and always cancels the previous
// handle before installing a new one, so two timers are never both live.
// Clock abstracts wall time and timer creation so tests can drive timers
// deterministically with a FakeClock.
package timer
