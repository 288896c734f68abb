// Package logging provides the subsystem-tagged structured logger used across
// boardcheck.
//
// It is a thin layer over log/slog. Every entry carries a subsystem attribute
// so that output from the REST client, the session managers and the runner can
// be told apart when scenarios run in parallel.
//
// # Usage
//
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//
//	logging.Info("TrelloClient", "Creating board %s", name)
//	logging.Debug("Session", "Driver %s ready", id)
//	logging.Warn("Capture", "No active session for %s", test)
//	logging.Error("Runner", err, "Scenario %s failed", scenario)
//
// Until Init is called the package logs nothing, which keeps unit tests quiet.
package logging
