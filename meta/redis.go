package meta

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gomodule/redigo/redis"
	"github.com/jitsucom/crashnative/logging"
	"github.com/jitsucom/crashnative/metrics"
)

const defaultNamespace = "crashnative"

//Redis keeps settings in a redis hashtable
//
//redis key [variables] - description
//settings#namespace [setting key] - hashtable with settings values
type Redis struct {
	pool *redis.Pool
	key  string
}

func NewRedis(host string, port int, password, namespace string) (*Redis, error) {
	if namespace == "" {
		namespace = defaultNamespace
	}

	r := &Redis{
		key: "settings#" + namespace,
		pool: &redis.Pool{
			MaxIdle:     10,
			MaxActive:   100,
			IdleTimeout: 240 * time.Second,

			Wait: false,
			Dial: func() (redis.Conn, error) {
				c, err := redis.Dial(
					"tcp",
					host+":"+strconv.Itoa(port),
					redis.DialConnectTimeout(10*time.Second),
					redis.DialReadTimeout(10*time.Second),
					redis.DialPassword(password),
				)
				if err != nil {
					return nil, err
				}
				return c, err
			},
			TestOnBorrow: func(c redis.Conn, t time.Time) error {
				_, err := c.Do("PING")
				return err
			},
		}}

	//test connection
	connection := r.pool.Get()
	defer connection.Close()
	_, err := redis.String(connection.Do("PING"))
	if err != nil {
		return nil, fmt.Errorf("Error testing connection to Redis: %v", err)
	}

	return r, nil
}

func (r *Redis) ReadAllText(ctx context.Context, key string) (string, bool, error) {
	connection, err := r.pool.GetContext(ctx)
	if err != nil {
		noticeError(err)
		return "", false, err
	}
	defer connection.Close()

	value, err := redis.String(connection.Do("HGET", r.key, key))
	noticeError(err)
	if err != nil {
		if err == redis.ErrNil {
			return "", false, nil
		}

		return "", false, err
	}

	return value, true, nil
}

func (r *Redis) WriteAllText(ctx context.Context, key, value string) error {
	connection, err := r.pool.GetContext(ctx)
	if err != nil {
		noticeError(err)
		return err
	}
	defer connection.Close()

	_, err = connection.Do("HSET", r.key, key, value)
	noticeError(err)
	if err != nil && err != redis.ErrNil {
		return err
	}

	return nil
}

func (r *Redis) RemoveKey(ctx context.Context, key string) error {
	connection, err := r.pool.GetContext(ctx)
	if err != nil {
		noticeError(err)
		return err
	}
	defer connection.Close()

	_, err = connection.Do("HDEL", r.key, key)
	noticeError(err)
	if err != nil && err != redis.ErrNil {
		return err
	}

	return nil
}

func (r *Redis) Type() string {
	return RedisType
}

func (r *Redis) Close() error {
	return r.pool.Close()
}

func noticeError(err error) {
	if err != nil {
		if err == redis.ErrPoolExhausted {
			metrics.RedisErrors("ERR_POOL_EXHAUSTED")
		} else if err == redis.ErrNil {
			metrics.RedisErrors("ERR_NIL")
		} else if strings.Contains(strings.ToLower(err.Error()), "timeout") {
			metrics.RedisErrors("ERR_TIMEOUT")
		} else {
			metrics.RedisErrors("UNKNOWN")
			logging.Error("Unknown redis error:", err)
		}
	}
}
