package channel

import (
	"strings"

	"go.bug.st/serial/enumerator"
)

// picoVID is the Raspberry Pi USB vendor ID used by the device
const picoVID = "2E8A"

// PortInfo describes one serial port candidate for detection
type PortInfo struct {
	// Name is the OS port name (COM10, /dev/ttyACM0, ...)
	Name string

	// VID is the USB vendor ID in hex, empty for non-USB ports
	VID string

	// Description is the OS-reported product description
	Description string
}

// Detect picks the device port from an externally supplied candidate list.
// Pure function: it never enumerates hardware itself. Matches on the Pico
// vendor ID first, then on the product description.
func Detect(candidates []PortInfo) (string, bool) {
	for _, c := range candidates {
		if strings.EqualFold(c.VID, picoVID) {
			return c.Name, true
		}
	}
	for _, c := range candidates {
		if strings.Contains(c.Description, "Pico") {
			return c.Name, true
		}
	}
	return "", false
}

// ListPorts enumerates the host's serial ports as detection candidates
func ListPorts() ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, err
	}

	ports := make([]PortInfo, 0, len(details))
	for _, d := range details {
		info := PortInfo{Name: d.Name, Description: d.Product}
		if d.IsUSB {
			info.VID = d.VID
		}
		ports = append(ports, info)
	}
	return ports, nil
}
