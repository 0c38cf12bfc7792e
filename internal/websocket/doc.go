// Package websocket pushes pipeline progress to dashboard clients.
//
// A Hub fans each broadcast out to every connected Client; Handler upgrades
// /ws requests. Messages are JSON envelopes:
//
//	{"type": "pipeline_progress", "data": {...}, "timestamp": "2025-03-01T12:00:00Z"}
package websocket
