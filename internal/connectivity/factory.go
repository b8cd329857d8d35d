package connectivity

import (
	"fmt"
	"time"

	"fitsync/internal/config"
	"fitsync/internal/fit"
)

// NewMonitorFromConfig creates a Monitor with the probe named by the config.
func NewMonitorFromConfig(cfg config.ConnectivityConfig, remote fit.RemoteService, logger fit.Logger) (*Monitor, error) {
	var probe Probe
	switch cfg.Probe {
	case "remote", "":
		if remote == nil {
			return nil, fmt.Errorf("remote probe requires a remote service")
		}
		probe = RemoteProbe{Remote: remote}
	case "dial":
		if cfg.DialAddress == "" {
			return nil, fmt.Errorf("dial probe requires dial_address to be set")
		}
		probe = DialProbe{Address: cfg.DialAddress}
	case "offline":
		probe = NewStaticProbe(false)
	default:
		return nil, fmt.Errorf("unknown connectivity probe: %s", cfg.Probe)
	}
	return NewMonitor(probe, cfg.Interval.Or(15*time.Second), logger), nil
}
