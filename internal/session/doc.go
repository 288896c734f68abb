// Package session owns the remote-control handles a scenario uses.
//
// A Manager holds at most one driver.Driver for one channel (web or
// mobile) and walks it through UNINITIALIZED, READY and CLOSED. A Set
// bundles one manager per channel and is owned by exactly one scenario
// worker, so no handle is ever shared between goroutines of different
// scenarios.
//
// Factories translate configuration into concrete drivers:
//
//	set := session.NewSet(cfg)
//	if err := set.Web.Init(ctx, ""); err != nil { ... }
//	defer set.QuitAll()
package session
