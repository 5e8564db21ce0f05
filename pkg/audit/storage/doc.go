// Package storage provides audit storage backends.
//
// Backends:
//   - memory: process-local, lost on restart. The default, and what tests use.
//   - sqlite: a single database file. Two drivers are linked in and chosen
//     by audit.sqlite.driver: "sqlite" (modernc.org/sqlite, pure Go) and
//     "sqlite3" (github.com/mattn/go-sqlite3, needs cgo).
//
// Times are stored as Unix nanoseconds so both drivers read back exactly
// what was written.
//
// Use New to build the backend selected in configuration:
//
//	store, err := storage.New(cfg.Audit)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
package storage
