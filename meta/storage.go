package meta

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/spf13/viper"
)

const (
	InMemoryType = "inmemory"
	FileType     = "file"
	RedisType    = "redis"

	defaultSettingsFileName = "settings.json"
)

//persisted settings keys
const (
	SessionIDKey             = "SessionId"
	SessionStopTimeKey       = "SessionStopTime"
	UserIDKey                = "UserId"
	UserAcquisitionDateKey   = "UserAcquisitionDate"
	LastAuthorizedVersionKey = "LastAuthorizedVersion"
)

//Storage is a durable key/value settings store scoped to the application
type Storage interface {
	io.Closer

	//ReadAllText returns value and true if the key exists
	ReadAllText(ctx context.Context, key string) (string, bool, error)
	WriteAllText(ctx context.Context, key, value string) error
	RemoveKey(ctx context.Context, key string) error

	Type() string
}

//NewStorage creates settings Storage from viper configuration section 'settings'
func NewStorage(settings *viper.Viper, storagePath string) (Storage, error) {
	if settings == nil {
		return NewFile(path.Join(storagePath, defaultSettingsFileName))
	}

	switch settings.GetString("type") {
	case InMemoryType:
		return NewInMemory(), nil
	case RedisType:
		host := settings.GetString("redis.host")
		port := settings.GetInt("redis.port")
		password := settings.GetString("redis.password")
		namespace := settings.GetString("redis.namespace")
		if port == 0 {
			port = 6379
		}

		return NewRedis(host, port, password, namespace)
	case FileType, "":
		filePath := settings.GetString("path")
		if filePath == "" {
			filePath = path.Join(storagePath, defaultSettingsFileName)
		}
		return NewFile(filePath)
	default:
		return nil, fmt.Errorf("Unknown settings storage type: %s", settings.GetString("type"))
	}
}
