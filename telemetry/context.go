package telemetry

import (
	"strconv"
	"time"

	"github.com/jitsucom/crashnative/timestamp"
)

//context tag keys
const (
	TagSessionID          = "ai.session.id"
	TagSessionIsFirst     = "ai.session.isFirst"
	TagUserID             = "ai.user.id"
	TagUserAcquisition    = "ai.user.accountAcquisitionDate"
	TagDeviceID           = "ai.device.id"
	TagDeviceModel        = "ai.device.model"
	TagDeviceOEM          = "ai.device.oemName"
	TagDeviceOSVersion    = "ai.device.osVersion"
	TagDeviceType         = "ai.device.type"
	TagDeviceNetwork      = "ai.device.network"
	TagDeviceLocale       = "ai.device.locale"
	TagApplicationVersion = "ai.application.ver"
	TagSDKVersion         = "ai.internal.sdkVersion"
)

type SessionContext struct {
	ID      string
	IsFirst bool
}

type UserContext struct {
	ID              string
	AcquisitionDate time.Time
}

type DeviceContext struct {
	ID          string
	Model       string
	OEM         string
	OSVersion   string
	Type        string
	NetworkType string
	Locale      string
}

type ComponentContext struct {
	Version string
}

//Context is the identity stamp applied to every outgoing item.
//It is built once by ContextProvider and shared read-only afterwards
type Context struct {
	InstrumentationKey string
	SDKVersion         string

	Session   SessionContext
	User      UserContext
	Device    DeviceContext
	Component ComponentContext
}

//ToTags renders non empty context fields as item tags
func (c *Context) ToTags() map[string]string {
	tags := map[string]string{}
	put := func(key, value string) {
		if value != "" {
			tags[key] = value
		}
	}

	put(TagSessionID, c.Session.ID)
	if c.Session.ID != "" {
		put(TagSessionIsFirst, strconv.FormatBool(c.Session.IsFirst))
	}
	put(TagUserID, c.User.ID)
	if !c.User.AcquisitionDate.IsZero() {
		put(TagUserAcquisition, timestamp.ToISOFormat(c.User.AcquisitionDate))
	}
	put(TagDeviceID, c.Device.ID)
	put(TagDeviceModel, c.Device.Model)
	put(TagDeviceOEM, c.Device.OEM)
	put(TagDeviceOSVersion, c.Device.OSVersion)
	put(TagDeviceType, c.Device.Type)
	put(TagDeviceNetwork, c.Device.NetworkType)
	put(TagDeviceLocale, c.Device.Locale)
	put(TagApplicationVersion, c.Component.Version)
	put(TagSDKVersion, c.SDKVersion)

	return tags
}

//Stamp sets instrumentation key, envelope name and context tags. Values already present on the item are kept
func (c *Context) Stamp(item *Item) {
	if item.IKey == "" {
		item.IKey = c.InstrumentationKey
	}
	item.Name = EnvelopeName(item.IKey, item.Kind())
	if item.Time.IsZero() {
		item.Time = timestamp.Now().UTC()
	}
	if item.Tags == nil {
		item.Tags = map[string]string{}
	}

	for key, value := range c.ToTags() {
		if _, ok := item.Tags[key]; !ok {
			item.Tags[key] = value
		}
	}
}
