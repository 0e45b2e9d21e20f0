package registry

import "os"

// currentPID is swapped in tests to simulate records left by another process.
var currentPID = os.Getpid
