package volmon

import (
	"fmt"

	"go.uber.org/zap"
)

// sequencer brings up the host's introspection capabilities in dependency
// order: the default-nodes capability is loaded first, then the mixer, then
// both are activated. A pending counter gates the registry interest install,
// which must not happen before every capability can answer queries issued
// from notification handlers. Any failure along the way is fatal: the
// monitor cannot provide partial service.
type sequencer struct {
	logger   *zap.SugaredLogger
	host     Host
	registry *nodeRegistry

	capabilities map[CapabilityName]Capability
	pending      int
}

func newSequencer(logger *zap.SugaredLogger, host Host, registry *nodeRegistry) *sequencer {
	return &sequencer{
		logger:       logger.Named("sequencer"),
		host:         host,
		registry:     registry,
		capabilities: make(map[CapabilityName]Capability),
	}
}

// start requests the first capability load. Everything that follows is
// driven by completion events.
func (s *sequencer) start() {
	s.logger.Debugw("Requesting capability load", "capability", CapabilityDefaultNodes)
	s.host.LoadCapability(CapabilityDefaultNodes)
}

func (s *sequencer) handleLoaded(ev CapabilityLoaded) error {
	if ev.Err != nil {
		return fmt.Errorf("load %s capability: %w", ev.Name, ev.Err)
	}

	s.logger.Infow("Capability loaded", "capability", ev.Name)
	s.capabilities[ev.Name] = ev.Capability

	switch ev.Name {
	case CapabilityDefaultNodes:
		// the mixer load is serialized behind the default-nodes load to keep
		// the bring-up bookkeeping single-track
		s.logger.Debugw("Requesting capability load", "capability", CapabilityMixer)
		s.host.LoadCapability(CapabilityMixer)
	case CapabilityMixer:
		s.activateAll()
	default:
		return fmt.Errorf("loaded unexpected capability: %s", ev.Name)
	}

	return nil
}

func (s *sequencer) activateAll() {
	s.pending = len(s.capabilities)
	s.logger.Debugw("Activating capabilities", "pending", s.pending)

	for _, capability := range s.capabilities {
		capability.Activate()
	}
}

func (s *sequencer) handleActivated(ev CapabilityActivated) error {
	if ev.Err != nil {
		return fmt.Errorf("activate %s capability: %w", ev.Name, ev.Err)
	}

	s.pending--
	s.logger.Infow("Capability activated", "capability", ev.Name, "pending", s.pending)

	if s.pending == 0 {
		s.registry.install()
	}

	return nil
}

func (s *sequencer) defaultNodeResolver() (DefaultNodeResolver, bool) {
	resolver, ok := s.capabilities[CapabilityDefaultNodes].(DefaultNodeResolver)
	return resolver, ok
}

func (s *sequencer) mixerAccessor() (MixerAccessor, bool) {
	mixer, ok := s.capabilities[CapabilityMixer].(MixerAccessor)
	return mixer, ok
}
