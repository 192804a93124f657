package main

import (
	"flag"
	"fmt"

	"github.com/osdkit/volmon/pkg/volmon"
)

var (
	gitCommit  string
	versionTag string
	buildType  string

	verbose        bool
	showDeviceName bool
	deviceMapFile  string
)

func init() {
	flag.BoolVar(&verbose, "verbose", false, "show verbose logs (useful for debugging)")
	flag.BoolVar(&verbose, "v", false, "shorthand for --verbose")
	flag.BoolVar(&showDeviceName, "show-device-name", false, "show the audio device name in the OSD")
	flag.BoolVar(&showDeviceName, "d", false, "shorthand for --show-device-name")
	flag.StringVar(&deviceMapFile, "device-map", "", "file containing device name mappings")
	flag.StringVar(&deviceMapFile, "m", "", "shorthand for --device-map")
	flag.Parse()
}

func main() {
	logger, err := volmon.NewLogger(buildType)
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}

	named := logger.Named("main")
	named.Debug("Created logger")

	named.Infow("Version info",
		"gitCommit", gitCommit,
		"versionTag", versionTag,
		"buildType", buildType)

	if verbose {
		named.Debug("Verbose flag provided, all log messages will be shown")
	}

	if deviceMapFile != "" {
		named.Infow("Loading device mappings", "path", deviceMapFile)
	}

	opts := volmon.Options{
		ClientPath:     flag.Arg(0),
		ShowDeviceName: showDeviceName,
		DeviceMapFile:  deviceMapFile,
		Verbose:        verbose,
	}

	m, err := volmon.NewMonitor(logger, opts)
	if err != nil {
		named.Fatalw("Failed to create monitor object", "error", err)
	}

	if buildType != "" && (versionTag != "" || gitCommit != "") {
		identifier := gitCommit
		if versionTag != "" {
			identifier = versionTag
		}

		versionString := fmt.Sprintf("Version %s-%s", buildType, identifier)
		m.SetVersion(versionString)
	}

	if err = m.Initialize(); err != nil {
		named.Fatalw("Failed to initialize monitor", "error", err)
	}
}
