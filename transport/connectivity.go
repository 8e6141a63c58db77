package transport

import (
	"net"

	"go.uber.org/atomic"
)

//Connectivity reports whether the device has a network connection
type Connectivity interface {
	IsOnline() bool
}

//AlwaysOnline is used when connectivity can't be detected
type AlwaysOnline struct{}

func (AlwaysOnline) IsOnline() bool {
	return true
}

//InterfacesProbe reports online if any non loopback interface is up and has an address
type InterfacesProbe struct{}

func (InterfacesProbe) IsOnline() bool {
	interfaces, err := net.Interfaces()
	if err != nil {
		//unknown state: let the transport decide
		return true
	}

	for _, i := range interfaces {
		if i.Flags&net.FlagUp == 0 || i.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := i.Addrs()
		if err == nil && len(addrs) > 0 {
			return true
		}
	}

	return false
}

//StaticConnectivity is a switchable Connectivity. Used in tests and by the agent lifecycle API
type StaticConnectivity struct {
	online *atomic.Bool
}

func NewStaticConnectivity(online bool) *StaticConnectivity {
	return &StaticConnectivity{online: atomic.NewBool(online)}
}

func (sc *StaticConnectivity) IsOnline() bool {
	return sc.online.Load()
}

func (sc *StaticConnectivity) SetOnline(online bool) {
	sc.online.Store(online)
}
