package volmon

import "go.uber.org/zap"

// defaultDeviceRecord is the tracked (id, name) of the current default sink.
// The zero value means "no known default" and only occurs before the first
// successful resolution.
type defaultDeviceRecord struct {
	id   NodeID
	name string
}

// defaultDeviceTracker follows the system default sink. It moves from unset
// to tracking at the first successful resolution and never back.
type defaultDeviceTracker struct {
	logger   *zap.SugaredLogger
	registry *nodeRegistry
	resolver DefaultNodeResolver

	current  defaultDeviceRecord
	tracking bool
}

func newDefaultDeviceTracker(logger *zap.SugaredLogger, registry *nodeRegistry) *defaultDeviceTracker {
	return &defaultDeviceTracker{
		logger:   logger.Named("tracker"),
		registry: registry,
	}
}

// prime establishes the initial record right after the registry interest is
// installed, before any change signal has fired.
func (t *defaultDeviceTracker) prime() {
	configured := t.resolver.DefaultNodeName(MediaClassSink)
	t.logger.Debugw("Priming default device state", "configuredName", configured)

	t.onDefaultChanged()
}

// onDefaultChanged re-resolves the default sink and replaces the record when
// it actually changed. This is the only mutation path for the record.
func (t *defaultDeviceTracker) onDefaultChanged() {
	id := t.resolver.DefaultNode(MediaClassSink)

	if !id.Valid() {
		// default resolution can transiently report no device, e.g. while a
		// device is being hot-plugged
		t.logger.Warnw("Invalid default node id", "nodeID", id)
		return
	}

	info, ok := t.registry.resolve(id)
	if !ok {
		// the registry and the default resolver may race
		t.logger.Warnw("Failed to find default node", "nodeID", id)
		return
	}

	if t.tracking && t.current.id == id && t.current.name == info.Name {
		t.logger.Debugw("Default node name and id match, ignoring",
			"nodeID", id,
			"name", info.Name)
		return
	}

	t.logger.Infow("Default node changed", "nodeID", id, "name", info.Name)

	t.current = defaultDeviceRecord{id: id, name: info.Name}
	t.tracking = true
}
