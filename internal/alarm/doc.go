// Package alarm implements the alarm scheduler: a single one-shot wake timer
// driving a ring, snooze and re-ring cycle with a bounded snooze count.
//
// The transition table lives in a pure state machine (machine.go) that maps
// (state, event) to a new state plus effects. Scheduler wraps it with one
// mutex guarding both the state and the active timer slot, arms timers on a
// timer.Clock, and delivers outbound firing notifications in transition
// order without holding the lock.
//
// The scheduler does not persist anything. A fresh Scheduler is built from
// loaded Settings at startup.
package alarm
