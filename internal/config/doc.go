// Package config loads gateway and domain service configuration.
//
// The gateway reads either a YAML file (with ${VAR} environment expansion)
// or the environment directly; domain services are environment-only. Missing
// domain targets and a missing shared secret do not fail startup, so a
// partially configured gateway still serves its catalog and health endpoints
// and reports the gap on the first call that needs it.
package config
