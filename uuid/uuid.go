package uuid

import (
	"crypto/md5"
	"fmt"

	googleuuid "github.com/google/uuid"
)

var mock bool

func InitMock() {
	mock = true
}

func New() string {
	if mock {
		return "mockeduuid"
	}

	return googleuuid.New().String()
}

//NewCompact returns uuid without dashes. Used in file names
func NewCompact() string {
	if mock {
		return "mockeduuid"
	}

	id := googleuuid.New()
	return fmt.Sprintf("%x", id[:])
}

//IsValid returns true if s is a parsable uuid
func IsValid(s string) bool {
	_, err := googleuuid.Parse(s)
	return err == nil
}

//GetHash returns md5 hex of the value. Used for anonymizing device identifiers
func GetHash(value string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(value)))
}
