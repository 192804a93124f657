package volmon

import "go.uber.org/zap"

// nodeRegistry tracks candidate audio-sink nodes through the host's interest
// filter and resolves bound ids to node metadata.
type nodeRegistry struct {
	logger    *zap.SugaredLogger
	host      Host
	interest  Interest
	installed bool
}

func newNodeRegistry(logger *zap.SugaredLogger, host Host) *nodeRegistry {
	return &nodeRegistry{
		logger:   logger.Named("registry"),
		host:     host,
		interest: Interest{Property: "media.class", Value: MediaClassSink},
	}
}

// install asks the host to start tracking matching nodes. It is triggered
// exactly once by the activation sequencer; repeated calls are no-ops.
func (r *nodeRegistry) install() {
	if r.installed {
		r.logger.Debug("Registry interest already installed, ignoring")
		return
	}

	r.installed = true

	r.logger.Debugw("Installing registry interest",
		"property", r.interest.Property,
		"value", r.interest.Value)

	r.host.InstallInterest(r.interest)
}

func (r *nodeRegistry) resolve(id NodeID) (NodeInfo, bool) {
	return r.host.Resolve(id)
}
