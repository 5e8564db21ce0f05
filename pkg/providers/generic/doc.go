// Package generic holds the shape probes that are not tied to one vendor:
// the error envelope recognized ahead of every text shape, and the last-resort
// content/text/output probe.
package generic
