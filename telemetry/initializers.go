package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/jitsucom/crashnative/meta"
	"github.com/jitsucom/crashnative/system"
	"github.com/jitsucom/crashnative/timestamp"
	"github.com/jitsucom/crashnative/uuid"
)

const deviceTypeOther = "Other"

//DeviceInitializer fills device context from the host info
type DeviceInitializer struct {
	//InfoFunc overrides system.GetInfo. Used in tests
	InfoFunc func() *system.Info
}

func (di *DeviceInitializer) Name() string {
	return "device"
}

func (di *DeviceInitializer) Initialize(ctx context.Context, tc *Context) error {
	getInfo := di.InfoFunc
	if getInfo == nil {
		getInfo = system.GetInfo
	}

	info := getInfo()
	tc.Device = DeviceContext{
		ID:          info.DeviceID,
		Model:       info.Model,
		OEM:         info.OEM,
		OSVersion:   info.OSVersion,
		Type:        deviceTypeOther,
		NetworkType: system.NetworkType(),
		Locale:      info.Locale,
	}
	return nil
}

//ComponentInitializer fills application version
type ComponentInitializer struct {
	Version string
}

func (ci *ComponentInitializer) Name() string {
	return "component"
}

func (ci *ComponentInitializer) Initialize(ctx context.Context, tc *Context) error {
	tc.Component.Version = ci.Version
	return nil
}

//UserInitializer reads the anonymous user id from settings. It is generated and persisted on the first run
type UserInitializer struct {
	Settings meta.Storage
}

func (ui *UserInitializer) Name() string {
	return "user"
}

func (ui *UserInitializer) Initialize(ctx context.Context, tc *Context) error {
	userID, ok, err := ui.Settings.ReadAllText(ctx, meta.UserIDKey)
	if err != nil {
		return fmt.Errorf("Error reading user id: %v", err)
	}

	if ok && userID != "" {
		tc.User.ID = userID
		if value, ok, err := ui.Settings.ReadAllText(ctx, meta.UserAcquisitionDateKey); err == nil && ok {
			if acquired, err := time.Parse(time.RFC3339Nano, value); err == nil {
				tc.User.AcquisitionDate = acquired
			}
		}
		return nil
	}

	tc.User.ID = uuid.New()
	tc.User.AcquisitionDate = timestamp.Now().UTC()

	if err := ui.Settings.WriteAllText(ctx, meta.UserIDKey, tc.User.ID); err != nil {
		return fmt.Errorf("Error persisting user id: %v", err)
	}
	if err := ui.Settings.WriteAllText(ctx, meta.UserAcquisitionDateKey, tc.User.AcquisitionDate.Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("Error persisting user acquisition date: %v", err)
	}

	return nil
}
