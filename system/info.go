package system

import (
	"fmt"
	"math"
	"net"
	"os"
	goruntime "runtime"
	"strings"
	"sync"

	"github.com/jitsucom/crashnative/uuid"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

const unknown = "Unknown"

//Info is a device snapshot used in crash log headers and telemetry device context
type Info struct {
	DeviceID  string
	Hostname  string
	OS        string
	OSVersion string
	Model     string
	OEM       string
	Locale    string

	CPUCores     int
	CPUModelName string
	RAMTotalGB   float64
}

var (
	cached     *Info
	cachedOnce sync.Once
)

//GetInfo returns device info. It is collected once per process
func GetInfo() *Info {
	cachedOnce.Do(func() {
		cached = collect()
	})
	return cached
}

func collect() *Info {
	info := &Info{
		OS:        goruntime.GOOS,
		OSVersion: unknown,
		Model:     goruntime.GOARCH,
		OEM:       unknown,
		Locale:    locale(),
	}

	hostInfo, err := host.Info()
	if hostInfo != nil && err == nil {
		info.Hostname = hostInfo.Hostname
		if hostInfo.HostID != "" {
			info.DeviceID = uuid.GetHash(hostInfo.HostID)
		}
		if hostInfo.Platform != "" {
			info.OSVersion = strings.TrimSpace(hostInfo.Platform + " " + hostInfo.PlatformVersion)
		}
		if hostInfo.PlatformFamily != "" {
			info.OEM = hostInfo.PlatformFamily
		}
		if hostInfo.VirtualizationSystem != "" && hostInfo.VirtualizationRole == "guest" {
			info.Model = fmt.Sprintf("%s (%s)", hostInfo.KernelArch, hostInfo.VirtualizationSystem)
		} else if hostInfo.KernelArch != "" {
			info.Model = hostInfo.KernelArch
		}
	}

	if info.DeviceID == "" {
		name, _ := os.Hostname()
		info.DeviceID = uuid.GetHash(name + goruntime.GOOS)
	}

	v, _ := mem.VirtualMemory()
	if v != nil {
		info.RAMTotalGB = math.Round(float64(v.Total) / 1024 / 1024 / 1024)
	}

	cpuInfo, _ := cpu.Info()
	if len(cpuInfo) > 0 {
		info.CPUCores = len(cpuInfo) * int(cpuInfo[0].Cores)
		info.CPUModelName = cpuInfo[0].ModelName
	}

	return info
}

func locale() string {
	for _, env := range []string{"LC_ALL", "LANG"} {
		if value := os.Getenv(env); value != "" {
			return strings.Split(value, ".")[0]
		}
	}

	return "en_US"
}

//NetworkType returns the type of the first up non loopback interface: Ethernet, WiFi or Unknown
func NetworkType() string {
	interfaces, err := net.Interfaces()
	if err != nil {
		return unknown
	}

	for _, i := range interfaces {
		if i.Flags&net.FlagUp == 0 || i.Flags&net.FlagLoopback != 0 {
			continue
		}

		name := strings.ToLower(i.Name)
		switch {
		case strings.HasPrefix(name, "wl"), strings.HasPrefix(name, "wi-fi"):
			return "WiFi"
		case strings.HasPrefix(name, "en"), strings.HasPrefix(name, "eth"):
			return "Ethernet"
		}
	}

	return unknown
}
