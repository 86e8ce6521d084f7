// Package timeouts defines shared timeout constants used across the process.
package timeouts

import "time"

// ReadHeader limits how long the HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long servers wait for in-flight work during graceful
// shutdown.
const Shutdown = 5 * time.Second

// FrameWrite caps a single outbound WebSocket frame write so one stalled peer
// cannot hold its writer lock forever.
const FrameWrite = 5 * time.Second

// OTelShutdown caps the flush of pending spans on exit.
const OTelShutdown = 5 * time.Second
