package protocol

import (
	"bytes"
	"testing"
)

func TestEncodeWakeAdvertisement(t *testing.T) {
	payload := [6]byte{'A', 'B', 'C', '1', '2', '3'}
	got := EncodeWakeAdvertisement(payload, "Insta360 GPS Remote A1B2")

	want := []byte{
		0x4c, 0x00, // vendor id
		0x02, 0x15, // beacon marker
		0x09, 0x4f, 0x52, 0x42, 0x49, 0x54, 0x09, 0xff, 0x0f, 0x00,
		'A', 'B', 'C', '1', '2', '3',
		0x00, 0x00, 0x00, 0x00,
		0xe4,
		0x01,
	}
	if !bytes.Equal(got.ManufacturerData, want) {
		t.Errorf("wake block =\n  got  %x\n  want %x", got.ManufacturerData, want)
	}
	if len(got.ManufacturerData) != WakeBlockLen {
		t.Errorf("wake block length = %d, want %d", len(got.ManufacturerData), WakeBlockLen)
	}
	if got.LocalName != "Insta360 GPS Remote A1B2" {
		t.Errorf("LocalName = %q", got.LocalName)
	}
	if !got.IsWake() {
		t.Error("IsWake() = false for wake advertisement")
	}
}

func TestEncodeWakeAdvertisementDeterministic(t *testing.T) {
	payload := [6]byte{0x10, 0x20, 0x30, 0x40, 0x50, 0x60}
	a := EncodeWakeAdvertisement(payload, "n")
	b := EncodeWakeAdvertisement(payload, "n")
	if !bytes.Equal(a.ManufacturerData, b.ManufacturerData) {
		t.Error("identical inputs produced different wake blocks")
	}
	// Mutating one result must not leak into the next.
	a.ManufacturerData[14] = 0xff
	c := EncodeWakeAdvertisement(payload, "n")
	if c.ManufacturerData[14] != 0x10 {
		t.Error("wake block shares backing storage between calls")
	}
}

func TestEncodeNormalAdvertisement(t *testing.T) {
	got := EncodeNormalAdvertisement("Insta360 GPS Remote A1B2")
	if got.ManufacturerData != nil {
		t.Errorf("normal advertisement carries manufacturer data %x", got.ManufacturerData)
	}
	if len(got.ServiceUUIDs) != 1 || got.ServiceUUIDs[0] != ServiceUUID {
		t.Errorf("ServiceUUIDs = %v, want [%s]", got.ServiceUUIDs, ServiceUUID)
	}
	if got.IsWake() {
		t.Error("IsWake() = true for normal advertisement")
	}
}

func TestBroadcastName(t *testing.T) {
	if got := BroadcastName("Insta360 GPS Remote", "A1B2"); got != "Insta360 GPS Remote A1B2" {
		t.Errorf("BroadcastName() = %q", got)
	}
	if got := BroadcastName("Label", ""); got != "Label" {
		t.Errorf("BroadcastName() with empty identifier = %q", got)
	}
}

func TestWakePayloadFromName(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{name: "X5 ABC123", want: "ABC123"},
		{name: "ONE RS 1XYZ99", want: "1XYZ99"},
		{name: "ABCDEF", want: "ABCDEF"},
		{name: "X5 A", wantErr: true},
		{name: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := WakePayloadFromName(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("WakePayloadFromName(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if !tt.wantErr && string(got[:]) != tt.want {
				t.Errorf("WakePayloadFromName(%q) = %q, want %q", tt.name, got[:], tt.want)
			}
		})
	}
}
