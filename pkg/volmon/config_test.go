package volmon

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDefaultsWhenFileMissing(t *testing.T) {
	t.Chdir(t.TempDir())

	cc, err := NewConfig(testLogger(), &fakeNotifier{})
	require.NoError(t, err)

	require.NoError(t, cc.Load())

	assert.Equal(t, defaultClientPath, cc.current.ClientPath)
	assert.False(t, cc.current.ShowDeviceName)
	assert.Empty(t, cc.current.DeviceMap)
	assert.Empty(t, cc.current.DeviceMappings)
}

func TestConfigLoadsValues(t *testing.T) {
	t.Chdir(t.TempDir())

	contents := `client_path: /usr/bin/wayland-osd-client
show_device_name: true
device_map: /etc/volmon/device-map
device_mappings:
  - HDMI=TV
  - USB=Headset
`
	require.NoError(t, os.WriteFile(userConfigFilepath, []byte(contents), 0o644))

	cc, err := NewConfig(testLogger(), &fakeNotifier{})
	require.NoError(t, err)

	require.NoError(t, cc.Load())

	assert.Equal(t, "/usr/bin/wayland-osd-client", cc.current.ClientPath)
	assert.True(t, cc.current.ShowDeviceName)
	assert.Equal(t, "/etc/volmon/device-map", cc.current.DeviceMap)
	assert.Equal(t, []string{"HDMI=TV", "USB=Headset"}, cc.current.DeviceMappings)
}

func TestConfigInvalidYamlNotifies(t *testing.T) {
	t.Chdir(t.TempDir())

	require.NoError(t, os.WriteFile(userConfigFilepath, []byte("client_path: [unclosed"), 0o644))

	notifier := &fakeNotifier{}
	cc, err := NewConfig(testLogger(), notifier)
	require.NoError(t, err)

	assert.Error(t, cc.Load())
	assert.NotEmpty(t, notifier.titles)
}
