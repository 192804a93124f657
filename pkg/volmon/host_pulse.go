package volmon

import (
	"fmt"
	"net"
	"sync"

	"github.com/jfreymuth/pulse/proto"
	"go.uber.org/zap"
)

// volumeNorm is the raw channel volume corresponding to 100%.
const volumeNorm = 0x10000

// pulseHost implements Host on top of the native PulseAudio protocol, which
// PipeWire's pulse server speaks for compatibility clients like this one.
// Capability loads and activations are verified with live round-trips and
// completed on the event stream; subscribe events are demuxed into signals.
type pulseHost struct {
	logger *zap.SugaredLogger

	client *proto.Client
	conn   net.Conn

	events chan Event

	// sink lookups triggered by subscribe events; requests must not run on
	// the protocol callback goroutine
	refreshRequests chan sinkRefresh

	lock             sync.Mutex
	nodes            map[NodeID]NodeInfo
	mask             proto.SubscriptionMask
	interest         Interest
	installRequested bool
	installed        bool
}

type sinkRefresh struct {
	id     NodeID
	notify bool
}

func newPulseHost(logger *zap.SugaredLogger) *pulseHost {
	return &pulseHost{
		logger:          logger.Named("host"),
		events:          make(chan Event, 16),
		refreshRequests: make(chan sinkRefresh, 16),
		nodes:           make(map[NodeID]NodeInfo),
	}
}

func (h *pulseHost) Connect() error {
	client, conn, err := proto.Connect("")
	if err != nil {
		h.logger.Warnw("Failed to establish PulseAudio connection", "error", err)
		return fmt.Errorf("establish PulseAudio connection: %w", err)
	}

	request := proto.SetClientName{
		Props: proto.PropList{
			"application.name": proto.PropListString("volmon"),
		},
	}
	reply := proto.SetClientNameReply{}

	if err := client.Request(&request, &reply); err != nil {
		_ = conn.Close()
		return fmt.Errorf("set client name: %w", err)
	}

	h.client = client
	h.conn = conn

	client.Callback = h.onProtocolEvent

	go h.refreshWorker()

	h.logger.Debug("Connected to audio subsystem host")

	return nil
}

func (h *pulseHost) Disconnect() error {
	if h.conn == nil {
		return nil
	}

	if err := h.conn.Close(); err != nil {
		h.logger.Warnw("Failed to close PulseAudio connection", "error", err)
		return fmt.Errorf("close PulseAudio connection: %w", err)
	}

	h.logger.Debug("Disconnected from audio subsystem host")

	return nil
}

func (h *pulseHost) Events() <-chan Event {
	return h.events
}

// LoadCapability verifies the server actually answers the queries the
// capability needs before reporting it loaded.
func (h *pulseHost) LoadCapability(name CapabilityName) {
	go func() {
		switch name {
		case CapabilityDefaultNodes:
			reply := proto.GetServerInfoReply{}
			if err := h.client.Request(&proto.GetServerInfo{}, &reply); err != nil {
				h.events <- CapabilityLoaded{Name: name, Err: fmt.Errorf("query server info: %w", err)}
				return
			}

			h.events <- CapabilityLoaded{Name: name, Capability: &defaultNodesCapability{host: h}}
		case CapabilityMixer:
			reply := proto.GetSinkInfoListReply{}
			if err := h.client.Request(&proto.GetSinkInfoList{}, &reply); err != nil {
				h.events <- CapabilityLoaded{Name: name, Err: fmt.Errorf("query sink list: %w", err)}
				return
			}

			h.events <- CapabilityLoaded{Name: name, Capability: &mixerCapability{host: h}}
		default:
			h.events <- CapabilityLoaded{Name: name, Err: fmt.Errorf("unknown capability %q", name)}
		}
	}()
}

// activate widens the cumulative subscription mask. Each capability brings
// the event facility it depends on.
func (h *pulseHost) activate(name CapabilityName, mask proto.SubscriptionMask) {
	go func() {
		h.lock.Lock()
		h.mask |= mask
		combined := h.mask
		h.lock.Unlock()

		var err error
		if reqErr := h.client.Request(&proto.Subscribe{Mask: combined}, nil); reqErr != nil {
			err = fmt.Errorf("subscribe to events for %s: %w", name, reqErr)
		}

		h.events <- CapabilityActivated{Name: name, Err: err}
	}()
}

func (h *pulseHost) InstallInterest(interest Interest) {
	h.lock.Lock()
	already := h.installRequested
	h.installRequested = true
	h.interest = interest
	h.lock.Unlock()

	if already {
		return
	}

	go func() {
		reply := proto.GetSinkInfoListReply{}
		if err := h.client.Request(&proto.GetSinkInfoList{}, &reply); err != nil {
			h.events <- RegistryInstalled{Err: fmt.Errorf("enumerate sinks: %w", err)}
			return
		}

		h.lock.Lock()
		for _, sink := range reply {
			info := nodeInfoFromSink(sink)
			if h.matchesInterestLocked(info) {
				h.nodes[info.ID] = info
			}
		}
		count := len(h.nodes)
		h.lock.Unlock()

		// the completion must be queued before signals are let through: the
		// event channel is FIFO, so the run loop is guaranteed to handle the
		// install completion ahead of any DefaultChanged/MixerChanged
		h.events <- RegistryInstalled{}

		h.lock.Lock()
		h.installed = true
		h.lock.Unlock()

		h.logger.Debugw("Registry interest installed", "nodeCount", count)
	}()
}

func (h *pulseHost) Resolve(id NodeID) (NodeInfo, bool) {
	h.lock.Lock()
	defer h.lock.Unlock()

	info, ok := h.nodes[id]
	return info, ok
}

// onProtocolEvent runs on the protocol client's receive goroutine, so it
// only demuxes; all requests happen on the refresh worker.
func (h *pulseHost) onProtocolEvent(msg interface{}) {
	event, ok := msg.(*proto.SubscribeEvent)
	if !ok {
		return
	}

	h.lock.Lock()
	installed := h.installed
	h.lock.Unlock()

	// signals only flow once the registry interest is live
	if !installed {
		return
	}

	switch event.Event & proto.EventFacilityMask {
	case proto.EventServer:
		h.postSignal(DefaultChanged{})
	case proto.EventSink:
		switch event.Event.GetType() {
		case proto.EventNew:
			h.postRefresh(sinkRefresh{id: NodeID(event.Index)})
		case proto.EventChange:
			h.postRefresh(sinkRefresh{id: NodeID(event.Index), notify: true})
		case proto.EventRemove:
			h.lock.Lock()
			delete(h.nodes, NodeID(event.Index))
			h.lock.Unlock()
		}
	}
}

// postSignal never blocks. It runs on the protocol receive goroutine, which
// has to stay free to deliver replies for requests issued by the consumers
// of this very channel; blocking here would deadlock the whole connection.
// Dropping is fine: delivery is best-effort and the next change on the same
// node re-triggers a fresh signal.
func (h *pulseHost) postSignal(event Event) {
	select {
	case h.events <- event:
	default:
		h.logger.Debugw("Event queue full, dropping signal", "event", event)
	}
}

func (h *pulseHost) postRefresh(refresh sinkRefresh) {
	select {
	case h.refreshRequests <- refresh:
	default:
		h.logger.Debugw("Refresh queue full, dropping sink refresh", "nodeID", refresh.id)
	}
}

func (h *pulseHost) refreshWorker() {
	for refresh := range h.refreshRequests {
		reply := proto.GetSinkInfoReply{}
		request := proto.GetSinkInfo{SinkIndex: uint32(refresh.id)}

		if err := h.client.Request(&request, &reply); err != nil {
			h.logger.Warnw("Failed to query sink after change event",
				"nodeID", refresh.id,
				"error", err)
			continue
		}

		info := nodeInfoFromSink(&reply)

		h.lock.Lock()
		matches := h.matchesInterestLocked(info)
		if matches {
			h.nodes[info.ID] = info
		}
		h.lock.Unlock()

		if matches && refresh.notify {
			h.events <- MixerChanged{ID: refresh.id}
		}
	}
}

func (h *pulseHost) matchesInterestLocked(info NodeInfo) bool {
	return info.Properties[h.interest.Property] == h.interest.Value
}

func nodeInfoFromSink(sink *proto.GetSinkInfoReply) NodeInfo {
	return NodeInfo{
		ID:          NodeID(sink.SinkIndex),
		Name:        sink.SinkName,
		Description: sink.Device,
		Properties: map[string]string{
			"media.class": MediaClassSink,
		},
	}
}

// defaultNodesCapability resolves the system default sink.
type defaultNodesCapability struct {
	host *pulseHost
}

func (c *defaultNodesCapability) Name() CapabilityName {
	return CapabilityDefaultNodes
}

func (c *defaultNodesCapability) Activate() {
	c.host.activate(CapabilityDefaultNodes, proto.SubscriptionMaskServer)
}

func (c *defaultNodesCapability) DefaultNode(mediaClass string) NodeID {
	if mediaClass != MediaClassSink {
		return InvalidNodeID
	}

	request := proto.GetSinkInfo{SinkIndex: proto.Undefined}
	reply := proto.GetSinkInfoReply{}

	if err := c.host.client.Request(&request, &reply); err != nil {
		c.host.logger.Warnw("Failed to get default sink info", "error", err)
		return InvalidNodeID
	}

	return NodeID(reply.SinkIndex)
}

func (c *defaultNodesCapability) DefaultNodeName(mediaClass string) string {
	if mediaClass != MediaClassSink {
		return ""
	}

	reply := proto.GetServerInfoReply{}
	if err := c.host.client.Request(&proto.GetServerInfo{}, &reply); err != nil {
		c.host.logger.Warnw("Failed to get server info", "error", err)
		return ""
	}

	return reply.DefaultSinkName
}

// mixerCapability reads per-sink volume state.
type mixerCapability struct {
	host *pulseHost
}

func (c *mixerCapability) Name() CapabilityName {
	return CapabilityMixer
}

func (c *mixerCapability) Activate() {
	c.host.activate(CapabilityMixer, proto.SubscriptionMaskSink)
}

// Volume reports the sink's volume on the cubic scale the monitor's
// transcoder expects, so the raw channel fraction is cubed here and
// cube-rooted again on display.
func (c *mixerCapability) Volume(id NodeID) (VolumeSample, error) {
	request := proto.GetSinkInfo{SinkIndex: uint32(id)}
	reply := proto.GetSinkInfoReply{}

	if err := c.host.client.Request(&request, &reply); err != nil {
		return VolumeSample{}, fmt.Errorf("node %d doesn't support volume: %w", id, err)
	}

	fraction := averageChannelVolume(reply.ChannelVolumes) / volumeNorm

	return VolumeSample{
		Volume:  fraction * fraction * fraction,
		MinStep: 1.0 / volumeNorm,
		Muted:   reply.Mute,
	}, nil
}

func averageChannelVolume(volumes []uint32) float64 {
	if len(volumes) == 0 {
		return 0
	}

	total := 0.0
	for _, volume := range volumes {
		total += float64(volume)
	}

	return total / float64(len(volumes))
}
