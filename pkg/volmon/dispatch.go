package volmon

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"

	"go.uber.org/zap"
)

// Dispatcher forwards one decided volume event to the presentation side.
// An empty deviceName means the device is not shown.
type Dispatcher interface {
	Dispatch(percent int, muted bool, deviceName string)
}

// clientDispatcher spawns the external OSD client, fire-and-forget: the
// child is detached immediately and its exit status is never inspected. A
// missed notification is best-effort UI feedback, not a monitor failure.
type clientDispatcher struct {
	logger     *zap.SugaredLogger
	clientPath string
}

func newClientDispatcher(logger *zap.SugaredLogger, clientPath string) *clientDispatcher {
	return &clientDispatcher{
		logger:     logger.Named("dispatcher"),
		clientPath: clientPath,
	}
}

func (d *clientDispatcher) Dispatch(percent int, muted bool, deviceName string) {
	args := buildClientArgs(percent, muted, deviceName)

	d.logger.Debugw("Running client", "clientPath", d.clientPath, "args", args)

	cmd := exec.Command(d.clientPath, args...)

	if err := cmd.Start(); err != nil {
		d.logger.Warnw("Failed to start client process", "clientPath", d.clientPath, "error", err)
		return
	}

	if err := cmd.Process.Release(); err != nil {
		d.logger.Warnw("Failed to detach client process", "error", err)
	}
}

// buildClientArgs renders the client's argument grammar:
// audio <percent> [--mute] [--device <name>]
func buildClientArgs(percent int, muted bool, deviceName string) []string {
	args := []string{"audio", strconv.Itoa(percent)}

	if muted {
		args = append(args, "--mute")
	}

	if deviceName != "" {
		args = append(args, "--device", deviceName)
	}

	return args
}

// checkClientExecutable verifies the client binary exists and is executable
// before the monitor commits to running.
func checkClientExecutable(clientPath string) error {
	info, err := os.Stat(clientPath)
	if err != nil {
		return fmt.Errorf("client not found at %q: %w", clientPath, err)
	}

	if info.IsDir() {
		return fmt.Errorf("client at %q is a directory", clientPath)
	}

	if info.Mode().Perm()&0111 == 0 {
		return fmt.Errorf("client at %q is not executable", clientPath)
	}

	return nil
}
