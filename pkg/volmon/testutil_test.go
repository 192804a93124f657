package volmon

import "go.uber.org/zap"

func testLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

// fakeHost is an in-memory Host for driving the core components directly.
type fakeHost struct {
	nodes  map[NodeID]NodeInfo
	events chan Event

	loadRequests []CapabilityName
	installCount int
	interest     Interest
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		nodes:  make(map[NodeID]NodeInfo),
		events: make(chan Event, 16),
	}
}

func (h *fakeHost) Connect() error    { return nil }
func (h *fakeHost) Disconnect() error { return nil }

func (h *fakeHost) LoadCapability(name CapabilityName) {
	h.loadRequests = append(h.loadRequests, name)
}

func (h *fakeHost) InstallInterest(interest Interest) {
	h.installCount++
	h.interest = interest
}

func (h *fakeHost) Resolve(id NodeID) (NodeInfo, bool) {
	info, ok := h.nodes[id]
	return info, ok
}

func (h *fakeHost) Events() <-chan Event { return h.events }

func (h *fakeHost) addNode(id NodeID, name string) {
	h.nodes[id] = NodeInfo{
		ID:         id,
		Name:       name,
		Properties: map[string]string{"media.class": MediaClassSink},
	}
}

type fakeResolver struct {
	id        NodeID
	name      string
	activated int
}

func (r *fakeResolver) Name() CapabilityName                 { return CapabilityDefaultNodes }
func (r *fakeResolver) Activate()                            { r.activated++ }
func (r *fakeResolver) DefaultNode(mediaClass string) NodeID { return r.id }
func (r *fakeResolver) DefaultNodeName(mediaClass string) string {
	return r.name
}

type fakeMixer struct {
	sample    VolumeSample
	err       error
	activated int
	queries   []NodeID
}

func (f *fakeMixer) Name() CapabilityName { return CapabilityMixer }
func (f *fakeMixer) Activate()            { f.activated++ }

func (f *fakeMixer) Volume(id NodeID) (VolumeSample, error) {
	f.queries = append(f.queries, id)

	if f.err != nil {
		return VolumeSample{}, f.err
	}

	return f.sample, nil
}

type dispatchCall struct {
	percent    int
	muted      bool
	deviceName string
}

type fakeDispatcher struct {
	calls []dispatchCall
}

func (d *fakeDispatcher) Dispatch(percent int, muted bool, deviceName string) {
	d.calls = append(d.calls, dispatchCall{percent: percent, muted: muted, deviceName: deviceName})
}

type fakeNotifier struct {
	titles []string
}

func (n *fakeNotifier) Notify(title string, message string) {
	n.titles = append(n.titles, title)
}
