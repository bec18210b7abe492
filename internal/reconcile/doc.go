// Package reconcile keeps each viewer's displayed task collection converged
// with the store.
//
// Every viewer owns a Poller. A poller periodically re-reads all tasks,
// rebuilds its View wholesale, and reports each re-rendered row to its
// observers with suppressed=true. The poller's Guard is in the reconciling
// phase for the whole rebuild, so status-selector callbacks fired as a side
// effect of re-rendering are dropped by Select instead of being written back
// or surfaced to users. Only Select calls made outside a rebuild reach the
// Commander and produce non-suppressed user events.
//
// NotifyObserver is the single bridge from observed events to the
// notifications service.
package reconcile
