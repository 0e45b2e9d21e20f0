// Package lifecycle keeps an object host process alive exactly as long as
// external callers hold object handles.
//
// A Server owns four pieces:
//
//   - LockCounter: the atomic count of outstanding handles
//   - ShutdownSignal: a single-fire stop notification for one run
//   - ReclaimScheduler: the periodic "reclaim unreachable objects" hook
//   - the registration tokens issued by a Gateway while the server runs
//
// Run registers the configured classes, announces readiness and then
// blocks on the ShutdownSignal. The signal fires when the decrement that
// moves the handle count from one to zero is observed, when
// RequestForcedStop is called, or when the Run context is cancelled.
// Teardown unregisters every class before Run returns, on every path.
//
// Reaching zero is a trigger, not a proof of quiescence: an acquire that
// races with the final release may land in a server that is already
// stopping. Stopping logs the outstanding count when that happens.
package lifecycle
