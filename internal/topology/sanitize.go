// Package topology implements the two ways a crate's slot contents bind
// to the Sensor Tree: Static mode's fixed per-slot schema with
// search/rebind, and Dynamic mode's scan-only discovery.
package topology

import "strings"

// sanitizeName turns an SDR device-id string into a tree-safe key: ASCII
// decoded, spaces and dots rewritten to underscores.
func sanitizeName(raw []byte) string {
	s := string(raw)
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ".", "_")
	return s
}
