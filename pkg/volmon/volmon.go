// Package volmon implements a headless monitor that watches the audio
// subsystem for volume, mute and default-output changes and forwards each
// relevant change to an external on-screen-display client.
package volmon

import (
	"fmt"
	"os"

	"github.com/thoas/go-funk"
	"go.uber.org/zap"

	"github.com/osdkit/volmon/pkg/volmon/util"
)

// Options carries the command-line invocation. Flag values override their
// config-file counterparts.
type Options struct {
	ClientPath     string
	ShowDeviceName bool
	DeviceMapFile  string
	Verbose        bool
}

// Monitor is the main entity managing all subcomponents. It owns all
// mutable state and touches it only from the event loop goroutine.
type Monitor struct {
	logger    *zap.SugaredLogger
	notifier  Notifier
	configMan *ConfigManager

	host       Host
	registry   *nodeRegistry
	sequencer  *sequencer
	tracker    *defaultDeviceTracker
	filter     *volumeFilter
	dispatcher Dispatcher

	mappings DeviceMappings

	// opts keeps the original invocation so flag overrides survive reloads
	opts Options

	clientPath     string
	showDeviceName bool
	deviceMapFile  string

	watchingConfig bool
	stopChannel    chan bool
	version        string
	verbose        bool
}

func NewMonitor(logger *zap.SugaredLogger, opts Options) (*Monitor, error) {
	logger = logger.Named("volmon")

	notifier, err := NewToastNotifier(logger)
	if err != nil {
		logger.Errorw("Failed to create ToastNotifier", "error", err)
		return nil, fmt.Errorf("create new ToastNotifier: %w", err)
	}

	config, err := NewConfig(logger, notifier)
	if err != nil {
		logger.Errorw("Failed to create Config", "error", err)
		return nil, fmt.Errorf("create new Config: %w", err)
	}

	m := &Monitor{
		logger:         logger,
		notifier:       notifier,
		configMan:      config,
		opts:           opts,
		clientPath:     opts.ClientPath,
		showDeviceName: opts.ShowDeviceName,
		deviceMapFile:  opts.DeviceMapFile,
		stopChannel:    make(chan bool),
		verbose:        opts.Verbose,
	}

	host := newPulseHost(logger)
	m.host = host

	logger.Debug("Created monitor instance")

	return m, nil
}

// SetVersion causes the monitor to log a version string if called before Initialize
func (m *Monitor) SetVersion(version string) {
	m.version = version
}

func (m *Monitor) logVersion() {
	if m.version == "" {
		return
	}

	m.logger.Infow("Monitor version", "version", m.version)
}

// Verbose returns a boolean indicating whether the monitor is running in verbose mode
func (m *Monitor) Verbose() bool {
	return m.verbose
}

// Initialize sets up components and runs the event loop until stopped
func (m *Monitor) Initialize() error {
	m.logger.Debug("Initializing")

	m.logVersion()

	if err := util.CheckSingleInstance("volmon"); err != nil {
		m.logger.Warnw("Duplicate instance check failed", "error", err)
	}

	// load the config for the first time
	if err := m.configMan.Load(); err != nil {
		m.logger.Errorw("Failed to load config during initialization", "error", err)
		return fmt.Errorf("load config during init: %w", err)
	}

	m.applyConfig()

	m.logger.Infow("Using client path", "clientPath", m.clientPath)
	if m.showDeviceName {
		m.logger.Info("Device name display enabled")
	}

	if err := checkClientExecutable(m.clientPath); err != nil {
		m.logger.Errorw("Client executable check failed", "error", err)
		return fmt.Errorf("check client executable: %w", err)
	}

	mappings, err := m.buildDeviceMappings()
	if err != nil {
		m.logger.Errorw("Failed to load device mappings", "error", err)
		return fmt.Errorf("load device mappings: %w", err)
	}
	m.mappings = mappings

	if len(m.mappings) > 0 {
		m.logger.Infow("Loaded device name mappings", "count", len(m.mappings))
	}

	m.logger.Info("Connecting to audio subsystem host")

	if err := m.host.Connect(); err != nil {
		m.logger.Errorw("Failed to connect to audio subsystem host", "error", err)
		return fmt.Errorf("connect to audio subsystem host: %w", err)
	}

	m.dispatcher = newClientDispatcher(m.logger, m.clientPath)
	m.registry = newNodeRegistry(m.logger, m.host)
	m.sequencer = newSequencer(m.logger, m.host, m.registry)
	m.tracker = newDefaultDeviceTracker(m.logger, m.registry)
	m.filter = newVolumeFilter(m.logger, m.registry, m.tracker, m.dispatcher, m.mappings, m.showDeviceName)

	m.setupInterruptHandler()
	m.run()

	return nil
}

func (m *Monitor) setupInterruptHandler() {
	interruptChannel := util.SetupCloseHandler()

	go func() {
		signal := <-interruptChannel
		m.logger.Debugw("Interrupted", "signal", signal)
		m.signalStop()
	}()
}

func (m *Monitor) run() {
	defer m.recoverFromPanic()

	m.logger.Info("Run loop starting")

	configReloadedChannel := m.configMan.SubscribeToChanges()

	if util.FileExists(userConfigFilepath) {
		m.watchingConfig = true
		go m.configMan.WatchConfigFileChanges()
	}

	m.sequencer.start()

	for {
		select {
		case event := <-m.host.Events():
			if err := m.handleEvent(event); err != nil {
				m.logger.Errorw("Fatal error in event loop", "error", err)
				m.teardown()
				os.Exit(1)
			}
		case <-configReloadedChannel:
			// applied here so all state mutation stays on the loop goroutine
			m.onConfigReloaded()
		case <-m.stopChannel:
			m.logger.Debug("Stop channel signaled, terminating")
			m.teardown()
			os.Exit(0)
		}
	}
}

// handleEvent is the single entry point for every host completion and
// signal. A non-nil return is fatal to the whole monitor.
func (m *Monitor) handleEvent(event Event) error {
	switch event := event.(type) {
	case CapabilityLoaded:
		return m.sequencer.handleLoaded(event)
	case CapabilityActivated:
		return m.sequencer.handleActivated(event)
	case RegistryInstalled:
		return m.onRegistryInstalled(event)
	case DefaultChanged:
		// a well-behaved host never signals before the install completion,
		// but a dropped event is better than a nil resolver panic
		if m.tracker.resolver == nil {
			m.logger.Warnw("Got default-changed signal before registry install, dropping")
			return nil
		}
		m.tracker.onDefaultChanged()
	case MixerChanged:
		if m.filter.mixer == nil {
			m.logger.Warnw("Got mixer-changed signal before registry install, dropping",
				"nodeID", event.ID)
			return nil
		}
		m.filter.onMixerChanged(event.ID)
	default:
		m.logger.Warnw("Unknown host event", "event", event)
	}

	return nil
}

// onRegistryInstalled wires the activated capabilities into the tracker and
// filter, then primes the default-device state. From here on the monitor is
// purely signal-driven.
func (m *Monitor) onRegistryInstalled(event RegistryInstalled) error {
	if event.Err != nil {
		return fmt.Errorf("install registry interest: %w", event.Err)
	}

	m.logger.Debug("Registry interest installed")

	resolver, ok := m.sequencer.defaultNodeResolver()
	if !ok {
		return fmt.Errorf("%s capability not loaded", CapabilityDefaultNodes)
	}

	mixer, ok := m.sequencer.mixerAccessor()
	if !ok {
		return fmt.Errorf("%s capability not loaded", CapabilityMixer)
	}

	m.tracker.resolver = resolver
	m.filter.mixer = mixer

	m.tracker.prime()

	m.logger.Info("Monitor is live")

	return nil
}

func (m *Monitor) applyConfig() {
	conf := &m.configMan.current

	if m.clientPath == "" {
		m.clientPath = conf.ClientPath
	}
	if !m.showDeviceName {
		m.showDeviceName = conf.ShowDeviceName
	}
	if m.deviceMapFile == "" {
		m.deviceMapFile = conf.DeviceMap
	}
}

func (m *Monitor) onConfigReloaded() {
	m.logger.Info("Detected config reload, rebuilding device mappings")

	conf := &m.configMan.current

	// flags keep overriding their config counterparts across reloads; values
	// the invocation left unset follow the config both ways
	m.showDeviceName = m.opts.ShowDeviceName || conf.ShowDeviceName
	if m.opts.DeviceMapFile == "" {
		m.deviceMapFile = conf.DeviceMap
	}

	mappings, err := m.buildDeviceMappings()
	if err != nil {
		m.logger.Warnw("Failed to rebuild device mappings after config reload", "error", err)
		return
	}

	m.mappings = mappings

	m.filter.mappings = mappings
	m.filter.showDeviceName = m.showDeviceName
}

// buildDeviceMappings merges the inline config entries with the mapping
// file, inline entries first. First match wins at lookup time, so a file
// entry whose pattern is already defined inline is dropped up front.
func (m *Monitor) buildDeviceMappings() (DeviceMappings, error) {
	conf := &m.configMan.current

	mappings := DeviceMappings{}
	patterns := []string{}

	for _, entry := range conf.DeviceMappings {
		mapping, ok := parseDeviceMapping(entry)
		if !ok {
			m.logger.Warnw("Skipping malformed inline device mapping", "entry", entry)
			continue
		}

		mappings = append(mappings, mapping)
		patterns = append(patterns, mapping.Pattern)
	}

	if m.deviceMapFile != "" {
		fromFile, err := LoadDeviceMappings(m.deviceMapFile)
		if err != nil {
			return nil, err
		}

		for _, mapping := range fromFile {
			if funk.ContainsString(patterns, mapping.Pattern) {
				m.logger.Debugw("Device mapping pattern already defined inline, skipping",
					"pattern", mapping.Pattern)
				continue
			}

			mappings = append(mappings, mapping)
		}
	}

	return mappings, nil
}

func (m *Monitor) signalStop() {
	m.logger.Debug("Signalling stop channel")
	m.stopChannel <- true
}

// teardown releases resources in a fixed order: registry state, the audio
// subsystem connection, then the mapping table.
func (m *Monitor) teardown() {
	m.logger.Info("Stopping")

	if m.watchingConfig {
		m.configMan.StopWatchingConfigFile()
	}

	m.registry.installed = false

	if err := m.host.Disconnect(); err != nil {
		m.logger.Warnw("Failed to disconnect from audio subsystem host", "error", err)
	}

	m.mappings = nil

	// attempt to sync on exit - this won't necessarily work but can't harm
	_ = m.logger.Sync()
}
