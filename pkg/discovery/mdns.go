package discovery

import (
	"fmt"
	"net"
	"strconv"
	"sync"

	"github.com/enbility/zeroconf/v3"
)

// Service type and domain for gateway advertisement.
const (
	ServiceType = "_homesync._tcp"
	Domain      = "local."
)

// Info describes the advertised gateway endpoint.
type Info struct {
	// InstanceName is the mDNS instance name, typically the gateway's
	// configured name.
	InstanceName string

	// Port is the HTTP port serving both transports.
	Port int

	// PluginVersion is published in TXT for client-side version checks.
	PluginVersion string

	// SocketPath and StreamPath are the transport endpoints.
	SocketPath string
	StreamPath string

	// UseWs mirrors the gateway's preferred-transport flag.
	UseWs bool
}

// AdvertiserConfig configures the mDNS advertiser.
type AdvertiserConfig struct {
	// Interface restricts advertising to one network interface by
	// name. Empty means all interfaces.
	Interface string
}

// MDNSAdvertiser advertises the gateway service using zeroconf.
type MDNSAdvertiser struct {
	config AdvertiserConfig

	mu     sync.Mutex
	server *zeroconf.Server
}

// NewMDNSAdvertiser creates a new mDNS advertiser.
func NewMDNSAdvertiser(config AdvertiserConfig) *MDNSAdvertiser {
	return &MDNSAdvertiser{config: config}
}

// getInterfaces returns the network interfaces to use for advertising.
// Returns nil to use all interfaces.
func (a *MDNSAdvertiser) getInterfaces() []net.Interface {
	if a.config.Interface == "" {
		return nil
	}

	iface, err := net.InterfaceByName(a.config.Interface)
	if err != nil {
		return nil
	}
	return []net.Interface{*iface}
}

// Advertise starts advertising the gateway. A previous advertisement
// is replaced.
func (a *MDNSAdvertiser) Advertise(info *Info) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}

	instanceName := info.InstanceName
	if instanceName == "" {
		instanceName = "homesync"
	}

	txt := []string{
		"version=" + info.PluginVersion,
		"ws=" + info.SocketPath,
		"sse=" + info.StreamPath,
		"useWs=" + strconv.FormatBool(info.UseWs),
	}

	server, err := zeroconf.Register(
		instanceName,
		ServiceType,
		Domain,
		info.Port,
		txt,
		a.getInterfaces(),
	)
	if err != nil {
		return fmt.Errorf("failed to register mdns service: %w", err)
	}

	a.server = server
	return nil
}

// Stop stops advertising.
func (a *MDNSAdvertiser) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
}
