package main

import (
	"sync"

	"github.com/spf13/cobra"
)

// Long-running commands log structured lines; one-shot operator commands
// (users, validate) print plain text.
const annotationStructuredLog = "structured-log"

type commandExecutionContext struct {
	CommandPath       string
	UsesStructuredLog bool
}

var (
	commandCtxMu sync.Mutex
	commandCtx   commandExecutionContext
)

func setCommandExecutionContext(ctx commandExecutionContext) {
	commandCtxMu.Lock()
	defer commandCtxMu.Unlock()
	commandCtx = ctx
}

func resetCommandExecutionContext() {
	setCommandExecutionContext(commandExecutionContext{})
}

func currentCommandExecutionContext() commandExecutionContext {
	commandCtxMu.Lock()
	defer commandCtxMu.Unlock()
	return commandCtx
}

func commandUsesStructuredLogging(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[annotationStructuredLog] == "true" {
			return true
		}
		if c.Annotations[annotationStructuredLog] == "false" {
			return false
		}
	}
	return false
}
