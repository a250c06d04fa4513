package channel

import "testing"

func TestDetect_ByVendorID(t *testing.T) {
	candidates := []PortInfo{
		{Name: "COM3", VID: "0403", Description: "FTDI USB Serial"},
		{Name: "COM10", VID: "2e8a", Description: "USB Serial Device"},
	}

	name, ok := Detect(candidates)
	if !ok {
		t.Fatal("expected a match")
	}
	if name != "COM10" {
		t.Errorf("expected COM10, got %s", name)
	}
}

func TestDetect_ByDescription(t *testing.T) {
	candidates := []PortInfo{
		{Name: "/dev/ttyUSB0", VID: "0403", Description: "FTDI USB Serial"},
		{Name: "/dev/ttyACM0", Description: "Pico - Board CDC"},
	}

	name, ok := Detect(candidates)
	if !ok {
		t.Fatal("expected a match")
	}
	if name != "/dev/ttyACM0" {
		t.Errorf("expected /dev/ttyACM0, got %s", name)
	}
}

func TestDetect_VendorIDWinsOverDescription(t *testing.T) {
	candidates := []PortInfo{
		{Name: "COM4", Description: "Pico - Board CDC"},
		{Name: "COM10", VID: "2E8A", Description: "USB Serial Device"},
	}

	name, _ := Detect(candidates)
	if name != "COM10" {
		t.Errorf("VID match should win, got %s", name)
	}
}

func TestDetect_NoMatch(t *testing.T) {
	candidates := []PortInfo{
		{Name: "COM1", Description: "Communications Port"},
	}

	if name, ok := Detect(candidates); ok {
		t.Errorf("expected no match, got %s", name)
	}
}

func TestDetect_EmptyCandidates(t *testing.T) {
	if _, ok := Detect(nil); ok {
		t.Error("expected no match for empty candidate list")
	}
}
