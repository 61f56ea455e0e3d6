package batchwriter

import (
	"errors"
	"strings"
	"syscall"

	"github.com/lib/pq"
)

// postgresAdminShutdownCode is Postgres error code 57P01
// (admin_shutdown), raised when the server terminates a connection
// during a managed restart or failover.
const postgresAdminShutdownCode = "57P01"

var transientMessageSubstrings = []string{
	"connection terminated",
	"connection closed",
	"connection reset",
	"timeout acquiring a connection",
}

// isTransientError recognizes the failure classes spec §4.3.3 lists:
// OS-level connection errors, Postgres admin-shutdown, and a small set
// of message substrings for drivers that don't surface a typed error.
func isTransientError(err error) bool {
	if err == nil {
		return false
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == postgresAdminShutdownCode {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, syscall.ETIMEDOUT) ||
		errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, substr := range transientMessageSubstrings {
		if strings.Contains(msg, substr) {
			return true
		}
	}
	return false
}
