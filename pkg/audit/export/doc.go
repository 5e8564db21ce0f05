// Package export writes audit records as JSON or CSV.
//
// JSON output is always an array, one object per record. CSV output has a
// fixed column order with latencies in milliseconds and times in RFC 3339.
package export
