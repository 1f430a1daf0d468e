// Package handlers contains reusable HTTP pieces shared by the ledger API:
// the composite health checker and the admin key middleware.
//
// # Health Checks
//
// Checks run in parallel, each under a timeout. Details never fail the
// status and carry diagnostics such as event bus counters:
//
//	checker := handlers.NewCompositeHealthChecker("0.1.0")
//	checker.AddCheck("database", handlers.NewPingCheck(store))
//	checker.AddDetail("events", func(context.Context) interface{} { return bus.Stats() })
//
// # Admin Keys
//
// Write endpoints accept X-Admin-Key or "Authorization: Bearer <key>". Keys
// are configured as bcrypt hashes; generate one with handlers.HashKey.
package handlers
