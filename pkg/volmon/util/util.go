// Package util holds miscellaneous filesystem and process helpers.
package util

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mitchellh/go-ps"
)

// FileExists checks if a file exists and is not a directory
func FileExists(filename string) bool {
	info, err := os.Stat(filename)
	if os.IsNotExist(err) {
		return false
	}

	return err == nil && !info.IsDir()
}

// EnsureDirExists creates the given directory path if it doesn't already exist
func EnsureDirExists(path string) error {
	if err := os.MkdirAll(path, os.ModePerm); err != nil {
		return fmt.Errorf("ensure directory exists (%s): %w", path, err)
	}

	return nil
}

// SetupCloseHandler creates a channel that receives SIGINT/SIGTERM
func SetupCloseHandler() chan os.Signal {
	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	return c
}

// CheckSingleInstance returns an error when another process with the given
// executable name is already running.
func CheckSingleInstance(executableName string) error {
	processes, err := ps.Processes()
	if err != nil {
		return fmt.Errorf("list processes: %w", err)
	}

	currentPid := os.Getpid()

	for _, process := range processes {
		if process.Pid() != currentPid && process.Executable() == executableName {
			return fmt.Errorf("another instance is already running (pid %d)", process.Pid())
		}
	}

	return nil
}
