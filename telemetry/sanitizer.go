package telemetry

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/spf13/cast"
)

const (
	maxNameLength          = 1024
	maxPropertyKeyLength   = 150
	maxPropertyValueLength = 8192
	maxMessageLength       = 32768
	maxURLLength           = 2048

	requiredKey = "required"
)

//Sanitize truncates item fields to the collector limits
func Sanitize(item *Item) {
	if item.Data.BaseData != nil {
		item.Data.BaseData.sanitize()
	}
}

func truncate(value string, max int) string {
	runes := []rune(value)
	if len(runes) <= max {
		return value
	}
	return string(runes[:max])
}

func sanitizeName(name string) string {
	return truncate(name, maxNameLength)
}

//sanitizeKey truncates key and makes it unique within used
func sanitizeKey(key string, used map[string]bool) string {
	key = truncate(key, maxPropertyKeyLength)
	if key == "" {
		key = requiredKey
	}
	if !used[key] {
		return key
	}

	for i := 1; ; i++ {
		suffix := strconv.Itoa(i)
		candidate := truncate(key, maxPropertyKeyLength-len(suffix)) + suffix
		if !used[candidate] {
			return candidate
		}
	}
}

func sanitizeProperties(properties map[string]string) map[string]string {
	if len(properties) == 0 {
		return properties
	}

	used := map[string]bool{}
	result := make(map[string]string, len(properties))
	for _, key := range sortedPropertyKeys(properties) {
		k := sanitizeKey(key, used)
		used[k] = true
		result[k] = truncate(properties[key], maxPropertyValueLength)
	}
	return result
}

func sanitizeMeasurements(measurements map[string]float64) map[string]float64 {
	if len(measurements) == 0 {
		return measurements
	}

	used := map[string]bool{}
	result := make(map[string]float64, len(measurements))
	for _, key := range sortedMeasurementKeys(measurements) {
		value := measurements[key]
		if math.IsNaN(value) || math.IsInf(value, 0) {
			value = 0
		}
		k := sanitizeKey(key, used)
		used[k] = true
		result[k] = value
	}
	return result
}

//Properties coerces arbitrary values into telemetry string properties
func Properties(values map[string]interface{}) map[string]string {
	if values == nil {
		return nil
	}

	result := make(map[string]string, len(values))
	for key, value := range values {
		str, err := cast.ToStringE(value)
		if err != nil {
			str = fmt.Sprint(value)
		}
		result[key] = str
	}
	return result
}

//Measurements coerces arbitrary values into telemetry measurements. Non numeric values are skipped
func Measurements(values map[string]interface{}) map[string]float64 {
	if values == nil {
		return nil
	}

	result := make(map[string]float64, len(values))
	for key, value := range values {
		f, err := cast.ToFloat64E(value)
		if err != nil {
			continue
		}
		result[key] = f
	}
	return result
}

func sortedPropertyKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func sortedMeasurementKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
