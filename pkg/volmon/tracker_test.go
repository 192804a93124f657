package volmon

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestTracker(host *fakeHost, resolver *fakeResolver) *defaultDeviceTracker {
	tracker := newDefaultDeviceTracker(testLogger(), newNodeRegistry(testLogger(), host))
	tracker.resolver = resolver

	return tracker
}

func TestTrackerFirstResolutionStartsTracking(t *testing.T) {
	host := newFakeHost()
	host.addNode(3, "alsa_out.A")

	tracker := newTestTracker(host, &fakeResolver{id: 3, name: "alsa_out.A"})

	assert.False(t, tracker.tracking)

	tracker.onDefaultChanged()

	assert.True(t, tracker.tracking)
	assert.Equal(t, defaultDeviceRecord{id: 3, name: "alsa_out.A"}, tracker.current)
}

func TestTrackerIgnoresNoOpUpdate(t *testing.T) {
	host := newFakeHost()
	host.addNode(3, "alsa_out.A")

	tracker := newTestTracker(host, &fakeResolver{id: 3, name: "alsa_out.A"})

	tracker.onDefaultChanged()
	first := tracker.current

	// identical id and name must not re-replace the record
	tracker.onDefaultChanged()

	assert.Equal(t, first, tracker.current)
	assert.True(t, tracker.tracking)
}

func TestTrackerFollowsDeviceChange(t *testing.T) {
	host := newFakeHost()
	host.addNode(3, "alsa_out.A")
	host.addNode(9, "alsa_out.B")

	resolver := &fakeResolver{id: 3, name: "alsa_out.A"}
	tracker := newTestTracker(host, resolver)

	tracker.onDefaultChanged()

	resolver.id = 9
	tracker.onDefaultChanged()

	assert.Equal(t, defaultDeviceRecord{id: 9, name: "alsa_out.B"}, tracker.current)
}

func TestTrackerKeepsStateOnInvalidID(t *testing.T) {
	host := newFakeHost()
	host.addNode(3, "alsa_out.A")

	resolver := &fakeResolver{id: 3, name: "alsa_out.A"}
	tracker := newTestTracker(host, resolver)

	tracker.onDefaultChanged()

	// default resolution transiently reports no device during hot-plug
	resolver.id = InvalidNodeID
	tracker.onDefaultChanged()

	assert.Equal(t, defaultDeviceRecord{id: 3, name: "alsa_out.A"}, tracker.current)
}

func TestTrackerKeepsStateOnUnresolvedNode(t *testing.T) {
	host := newFakeHost()
	host.addNode(3, "alsa_out.A")

	resolver := &fakeResolver{id: 3, name: "alsa_out.A"}
	tracker := newTestTracker(host, resolver)

	tracker.onDefaultChanged()

	// the registry and the default resolver race: id 7 isn't tracked yet
	resolver.id = 7
	tracker.onDefaultChanged()

	assert.Equal(t, defaultDeviceRecord{id: 3, name: "alsa_out.A"}, tracker.current)
}

func TestTrackerPrimeEstablishesInitialState(t *testing.T) {
	host := newFakeHost()
	host.addNode(5, "alsa_out.A")

	tracker := newTestTracker(host, &fakeResolver{id: 5, name: "alsa_out.A"})

	tracker.prime()

	assert.True(t, tracker.tracking)
	assert.Equal(t, NodeID(5), tracker.current.id)
}
