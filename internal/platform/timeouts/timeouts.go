// Package timeouts defines shared timeout constants used across the launcher.
package timeouts

import "time"

// SettingsCall caps one settings query made on behalf of a script.
const SettingsCall = 5 * time.Second

// TelemetryShutdown limits how long the launcher waits for pending spans
// to flush on exit.
const TelemetryShutdown = 5 * time.Second
