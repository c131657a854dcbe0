// Package wifi reports the kiosk's wireless connectivity by shelling out to
// nmcli. Everything here is best effort: a missing binary or a parse failure
// degrades to an unknown status, never an error that could stall the kiosk.
package wifi

import (
	"context"
	"os/exec"
	"strconv"
	"strings"
)

// Status describes the active wireless connection, if any.
type Status struct {
	Connected bool   `json:"connected"`
	SSID      string `json:"ssid,omitempty"`
	Signal    int    `json:"signal,omitempty"` // percent, 0 when unknown
	Known     bool   `json:"known"`            // false when nmcli was unavailable
}

// runner abstracts command execution so tests can feed canned nmcli output.
type runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Provider queries NetworkManager for the active wifi connection.
type Provider struct {
	run runner
}

func NewProvider() *Provider {
	return &Provider{run: execRunner}
}

// Status returns the current wireless status. When nmcli is missing or
// fails, the status is Known=false rather than an error.
func (p *Provider) Status(ctx context.Context) Status {
	out, err := p.run(ctx, "nmcli", "-t", "-f", "ACTIVE,SSID,SIGNAL", "dev", "wifi")
	if err != nil {
		return Status{}
	}
	return parseWifiList(string(out))
}

// parseWifiList scans nmcli terse output ("yes:home-net:72") for the active
// network. No active row means wifi is known to be disconnected.
func parseWifiList(out string) Status {
	status := Status{Known: true}
	for _, line := range strings.Split(out, "\n") {
		fields := strings.SplitN(strings.TrimSpace(line), ":", 3)
		if len(fields) != 3 || fields[0] != "yes" {
			continue
		}
		status.Connected = true
		status.SSID = fields[1]
		if signal, err := strconv.Atoi(fields[2]); err == nil {
			status.Signal = signal
		}
		return status
	}
	return status
}
