// Package database provides SQLite-based storage for phishscan.
//
// HistoryDB keeps an audit log of detection reports so analysts can review
// which URLs were checked, when, and by which stage they were decided. The
// log is append-only from the detector's point of view and is never read
// back when computing a verdict.
//
// The database is a single file opened through modernc.org/sqlite, a CGO-free
// driver, with WAL journaling enabled by default.
package database
