package supervisor

import (
	"os"
	"syscall"
)

// Signals sent to a follow process group on shutdown
var (
	sigterm os.Signal = syscall.SIGTERM
	sigkill os.Signal = syscall.SIGKILL
)
