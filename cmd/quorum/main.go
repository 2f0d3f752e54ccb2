package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/modelmux/quorum/internal/orchestration"
)

// Exit codes.
const (
	ExitSuccess             = 0 // round produced a selected response
	ExitError               = 1 // configuration or runtime error
	ExitOrchestrationFailed = 2 // every attempted provider errored
)

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// exitCode classifies an error from the command tree. A round where every
// provider failed gets its own code so scripts can tell provider outages
// apart from misuse.
func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var failed *orchestration.OrchestrationFailedError
	if errors.As(err, &failed) {
		return ExitOrchestrationFailed
	}
	return ExitError
}
