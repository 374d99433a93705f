package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/temirov/dir2yaml/internal/cli"
	"github.com/temirov/dir2yaml/internal/utils"
)

// main is the entry point for the dir2yaml command.
func main() {
	loggerInstance, loggerInitializationError := utils.NewApplicationLogger()
	if loggerInitializationError != nil {
		panic(fmt.Errorf(utils.LoggerInitializationFailedMessageFormat, loggerInitializationError))
	}
	defer func() {
		_ = loggerInstance.Sync()
	}()
	if applicationExecutionError := cli.Execute(); applicationExecutionError != nil {
		loggerInstance.Fatal(utils.ApplicationExecutionFailedMessage, zap.Error(applicationExecutionError))
	}
}
