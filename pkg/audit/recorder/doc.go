// Package recorder writes audit records asynchronously.
//
// Record queues a record and returns; a single worker goroutine stores
// queued records with a per-write timeout. When the queue stays full for
// longer than the write timeout the record is dropped and logged. Close
// drains the queue before returning.
package recorder
