package probe

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/autopeer-io/guardian/internal/guardian/core"
	"github.com/autopeer-io/guardian/internal/guardian/core/model"
)

const wirelessHeader = `Inter-| sta-|   Quality        |   Discarded packets               | Missed | WE
 face | tus | link level noise |  nwid  crypt   frag  retry   misc | beacon | 22
`

func TestParseWireless(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    float64
		wantErr error
	}{
		{
			name:  "single interface",
			input: wirelessHeader + " wlan0: 0000   35.  -56.  -256        0      0      0      0      0        0\n",
			want:  50,
		},
		{
			name: "best of several",
			input: wirelessHeader +
				" wlan0: 0000   14.  -80.  -256        0      0      0      0      0        0\n" +
				" wlp2s0: 0000   56.  -40.  -256        0      0      0      0      0        0\n",
			want: 80,
		},
		{
			name:  "above scale is capped",
			input: wirelessHeader + " wlan0: 0000   94.  -20.  -256        0      0      0      0      0        0\n",
			want:  100,
		},
		{
			name:    "no interfaces",
			input:   wirelessHeader,
			wantErr: core.ErrProbeUnavailable,
		},
		{
			name:    "garbage",
			input:   wirelessHeader + " wlan0: 0000 n/a\n",
			wantErr: core.ErrProbeUnavailable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseWireless(strings.NewReader(tt.input))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("parseWireless() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseWireless() error = %v", err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("parseWireless() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSimulatedSignalSequence(t *testing.T) {
	s := NewSimulated()
	s.SetWiFi(70, 60, 50)
	ctx := context.Background()

	var got []float64
	for i := 0; i < 5; i++ {
		sample, err := s.ReadSignal(ctx)
		if err != nil {
			t.Fatalf("ReadSignal() error = %v", err)
		}
		got = append(got, sample.WiFi)
	}
	want := []float64{70, 60, 50, 50, 50}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("readings = %v, want %v", got, want)
		}
	}

	s.SetSignalError(core.ErrProbeUnavailable)
	if _, err := s.ReadSignal(ctx); !errors.Is(err, core.ErrProbeUnavailable) {
		t.Errorf("ReadSignal() error = %v, want ErrProbeUnavailable", err)
	}
}

func TestSimulatedCellularIsCopied(t *testing.T) {
	s := NewSimulated()
	v := 40.0
	s.SetCellular(&v)

	sample, _ := s.ReadSignal(context.Background())
	if sample.Cellular == nil || *sample.Cellular != 40 {
		t.Fatalf("cellular = %v, want 40", sample.Cellular)
	}
	*sample.Cellular = 0
	again, _ := s.ReadSignal(context.Background())
	if *again.Cellular != 40 {
		t.Error("sample aliases simulator state")
	}
}

func TestSimulatedEndpointsAndChannels(t *testing.T) {
	s := NewSimulated()
	ctx := context.Background()

	if _, err := s.CheckEndpoint(ctx, "8.8.8.8:53"); err != nil {
		t.Errorf("CheckEndpoint() error = %v", err)
	}
	s.SetEndpointDown("8.8.8.8:53", true)
	if _, err := s.CheckEndpoint(ctx, "8.8.8.8:53"); err == nil {
		t.Error("down endpoint reachable")
	}
	s.SetEndpointDown("8.8.8.8:53", false)
	if _, err := s.CheckEndpoint(ctx, "8.8.8.8:53"); err != nil {
		t.Errorf("restored endpoint error = %v", err)
	}

	s.SetChannel(model.ChannelCellular, false)
	if err := s.TestChannel(ctx, model.ChannelCellular); err == nil {
		t.Error("disabled channel passed")
	}
	if err := s.TestChannel(ctx, model.ChannelEthernet); err != nil {
		t.Errorf("TestChannel(ethernet) error = %v", err)
	}
}

func TestHostUnknownChannel(t *testing.T) {
	h := NewHost(0)
	if err := h.TestChannel(context.Background(), model.Channel("satellite")); err == nil {
		t.Error("unknown channel passed")
	}
}

func TestHasPrefix(t *testing.T) {
	tests := []struct {
		name string
		ch   model.Channel
		want bool
	}{
		{"wlan0", model.ChannelWiFi, true},
		{"wlp3s0", model.ChannelWiFi, true},
		{"eth0", model.ChannelEthernet, true},
		{"enp0s31f6", model.ChannelEthernet, true},
		{"wwan0", model.ChannelCellular, true},
		{"lo", model.ChannelEthernet, false},
		{"eth0", model.ChannelWiFi, false},
	}
	for _, tt := range tests {
		if got := hasPrefix(tt.name, channelPrefixes[tt.ch]); got != tt.want {
			t.Errorf("hasPrefix(%q, %s) = %v, want %v", tt.name, tt.ch, got, tt.want)
		}
	}
}
