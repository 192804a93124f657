package volmon

import "go.uber.org/zap"

// volumeFilter is the per-event decision point for mixer notifications.
// Every tracked node emits them, so the filter's job is rejecting everything
// that does not concern the current default device, then transcoding,
// mapping and dispatching the rest.
type volumeFilter struct {
	logger   *zap.SugaredLogger
	registry *nodeRegistry
	tracker  *defaultDeviceTracker
	mixer    MixerAccessor

	dispatcher     Dispatcher
	mappings       DeviceMappings
	showDeviceName bool
}

func newVolumeFilter(
	logger *zap.SugaredLogger,
	registry *nodeRegistry,
	tracker *defaultDeviceTracker,
	dispatcher Dispatcher,
	mappings DeviceMappings,
	showDeviceName bool,
) *volumeFilter {
	return &volumeFilter{
		logger:         logger.Named("filter"),
		registry:       registry,
		tracker:        tracker,
		dispatcher:     dispatcher,
		mappings:       mappings,
		showDeviceName: showDeviceName,
	}
}

func (f *volumeFilter) onMixerChanged(id NodeID) {
	f.logger.Debugw("Mixer changed", "nodeID", id)

	if !id.Valid() {
		f.logger.Warnw("Invalid node id in mixer notification", "nodeID", id)
		return
	}

	info, ok := f.registry.resolve(id)
	if !ok {
		// the node may have vanished between event emission and lookup
		f.logger.Warnw("Failed to find node", "nodeID", id)
		return
	}

	if id != f.tracker.current.id {
		f.logger.Debugw("Ignoring mixer update for non-default node",
			"nodeID", id,
			"name", info.Name,
			"defaultNodeID", f.tracker.current.id,
			"defaultName", f.tracker.current.name)
		return
	}

	sample, err := f.mixer.Volume(id)
	if err != nil {
		// one malformed node is not worth crashing the monitor over
		f.logger.Warnw("Node doesn't support volume, dropping event",
			"nodeID", id,
			"error", err)
		return
	}

	percent := sample.DisplayPercent()

	f.logger.Infow("Volume changed on default node",
		"volumePercent", percent,
		"minStep", sample.MinStep,
		"muted", sample.Muted)

	deviceName := ""
	if f.showDeviceName {
		deviceName = f.mappings.Map(f.tracker.current.name)
	}

	f.dispatcher.Dispatch(percent, sample.Muted, deviceName)
}
