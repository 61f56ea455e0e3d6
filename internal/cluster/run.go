package cluster

import "os"

// IsWorker reports whether the current process was forked by a
// Primary (as opposed to being the primary itself, or a single-process
// dev run with Workers=1 bypassing the fork entirely).
func IsWorker() bool {
	return os.Getenv(WorkerEnvVar) != ""
}
