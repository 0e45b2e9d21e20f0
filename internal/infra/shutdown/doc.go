// Package shutdown bridges process signals to the server lifecycle and
// runs cleanup hooks once the server has stopped.
//
//   - Notify: first SIGINT/SIGTERM calls the stop function, repeats are ignored
//   - OnShutdown: register cleanup hooks (run in reverse order)
//   - Run: execute hooks under a timeout and join their errors
//
// Usage:
//
//	h := shutdown.NewHandler(10 * time.Second)
//	h.Notify(ctx, func() { srv.RequestForcedStop() })
//	h.OnShutdown(httpSrv.Shutdown)
//	err := srv.Run(ctx)
//	_ = h.Run()
package shutdown
