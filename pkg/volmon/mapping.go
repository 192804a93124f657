package volmon

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// DeviceMapping maps a raw device-name substring to a friendlier label.
type DeviceMapping struct {
	Pattern string
	Label   string
}

// DeviceMappings is an ordered mapping table. Entries are evaluated
// top-to-bottom and the first matching pattern wins.
type DeviceMappings []DeviceMapping

// Map returns the label of the first entry whose pattern is a substring of
// rawName, or rawName unchanged when nothing matches.
func (m DeviceMappings) Map(rawName string) string {
	for _, entry := range m {
		if strings.Contains(rawName, entry.Pattern) {
			return entry.Label
		}
	}

	return rawName
}

// parseDeviceMapping parses a single "pattern=label" entry.
func parseDeviceMapping(line string) (DeviceMapping, bool) {
	pattern, label, found := strings.Cut(line, "=")
	if !found {
		return DeviceMapping{}, false
	}

	return DeviceMapping{Pattern: pattern, Label: label}, true
}

// LoadDeviceMappings reads a mapping file, one pattern=label pair per line.
// Blank lines, comment lines starting with #, and lines without a separator
// are skipped.
func LoadDeviceMappings(path string) (DeviceMappings, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open device mapping file: %w", err)
	}
	defer file.Close()

	mappings := DeviceMappings{}

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		mapping, ok := parseDeviceMapping(line)
		if !ok {
			continue
		}

		mappings = append(mappings, mapping)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read device mapping file: %w", err)
	}

	return mappings, nil
}
