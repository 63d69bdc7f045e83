package scanner

import (
	"context"
	"database/sql"
)

// Advisory lock keys electing the scanner master (full scan + monitor) and
// the HTTP-only replica role (spec.md §5).
const (
	masterLockKey  = 198347
	replicaLockKey = 645633
)

// TryAcquireMaster attempts the process-wide advisory lock electing this
// process as the single scanner master. The lock is held for the lifetime
// of conn; callers must keep conn open for as long as mastership matters.
func TryAcquireMaster(ctx context.Context, conn *sql.Conn) (bool, error) {
	return tryAdvisoryLock(ctx, conn, masterLockKey)
}

// TryAcquireReplica attempts the HTTP-only replica advisory lock.
func TryAcquireReplica(ctx context.Context, conn *sql.Conn) (bool, error) {
	return tryAdvisoryLock(ctx, conn, replicaLockKey)
}

func tryAdvisoryLock(ctx context.Context, conn *sql.Conn, key int) (bool, error) {
	var acquired bool
	err := conn.QueryRowContext(ctx, "select pg_try_advisory_lock($1)", key).Scan(&acquired)
	return acquired, err
}
