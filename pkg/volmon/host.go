package volmon

// CapabilityName identifies one loadable introspection capability of the
// audio subsystem host.
type CapabilityName string

const (
	// CapabilityDefaultNodes resolves the system default node per media class.
	CapabilityDefaultNodes CapabilityName = "default-nodes-api"

	// CapabilityMixer exposes per-node volume and mute state.
	CapabilityMixer CapabilityName = "mixer-api"
)

// MediaClassSink is the media-class property value of audio output nodes.
const MediaClassSink = "Audio/Sink"

// Capability is a loaded-but-possibly-inactive introspection capability.
// Activate is asynchronous; its completion arrives as a CapabilityActivated
// event on the host's event stream.
type Capability interface {
	Name() CapabilityName
	Activate()
}

// DefaultNodeResolver is the activated default-nodes capability.
type DefaultNodeResolver interface {
	Capability

	// DefaultNode returns the current default node id for a media class, or
	// InvalidNodeID when the host has no default (e.g. during hot-plug).
	DefaultNode(mediaClass string) NodeID

	// DefaultNodeName returns the configured default node name for a media
	// class, or "" when unknown.
	DefaultNodeName(mediaClass string) string
}

// MixerAccessor is the activated mixer capability.
type MixerAccessor interface {
	Capability

	// Volume reads the current volume state of a node. It fails when the
	// node does not support volume, e.g. because it vanished.
	Volume(id NodeID) (VolumeSample, error)
}

// Interest is a property equality match selecting which nodes the host
// tracks and signals about.
type Interest struct {
	Property string
	Value    string
}

// Host is the audio subsystem connection. All asynchronous completions and
// signals are delivered on the single Events stream, so consuming that
// stream from one goroutine keeps every handler on one logical thread.
type Host interface {
	Connect() error
	Disconnect() error

	// LoadCapability asynchronously loads a capability by name; completion
	// arrives as a CapabilityLoaded event.
	LoadCapability(name CapabilityName)

	// InstallInterest asynchronously installs the node interest filter;
	// completion arrives as a RegistryInstalled event, after which
	// DefaultChanged and MixerChanged signals begin to flow.
	InstallInterest(interest Interest)

	// Resolve looks up a tracked node by bound id.
	Resolve(id NodeID) (NodeInfo, bool)

	Events() <-chan Event
}

// Event is a completion or signal delivered by the host.
type Event interface {
	event()
}

// CapabilityLoaded completes a LoadCapability request.
type CapabilityLoaded struct {
	Name       CapabilityName
	Capability Capability
	Err        error
}

// CapabilityActivated completes a Capability.Activate request.
type CapabilityActivated struct {
	Name CapabilityName
	Err  error
}

// RegistryInstalled completes an InstallInterest request.
type RegistryInstalled struct {
	Err error
}

// DefaultChanged signals that the configured default node may have changed.
type DefaultChanged struct{}

// MixerChanged signals that a node's volume or mute state changed. It fires
// for every tracked node, not only the default one.
type MixerChanged struct {
	ID NodeID
}

func (CapabilityLoaded) event()    {}
func (CapabilityActivated) event() {}
func (RegistryInstalled) event()   {}
func (DefaultChanged) event()      {}
func (MixerChanged) event()        {}
