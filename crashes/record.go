package crashes

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/google/go-querystring/query"
)

//ErrCorruptRecord is returned when a stored record can't be deserialized or misses mandatory fields
var ErrCorruptRecord = errors.New("corrupt crash record")

//Record is an immutable crash report: exception and environment snapshot at crash time
type Record struct {
	ID          string    `json:"id"`
	Log         string    `json:"log"`
	Description string    `json:"description,omitempty"`
	UserID      string    `json:"user_id,omitempty"`
	Contact     string    `json:"contact,omitempty"`
	SDKName     string    `json:"sdk"`
	SDKVersion  string    `json:"sdk_version"`
	CreatedAt   time.Time `json:"created_at"`
}

//Details are optional user supplied fields of a Record
type Details struct {
	Description string `json:"description,omitempty"`
	UserID      string `json:"user_id,omitempty"`
	Contact     string `json:"contact,omitempty"`
}

type uploadForm struct {
	Raw         string `url:"raw"`
	UserID      string `url:"userID,omitempty"`
	Contact     string `url:"contact,omitempty"`
	Description string `url:"description,omitempty"`
	SDK         string `url:"sdk"`
	SDKVersion  string `url:"sdk_version"`
}

//Serialize writes record as JSON
func (r *Record) Serialize(w io.Writer) error {
	return json.NewEncoder(w).Encode(r)
}

//Deserialize reads record from JSON. Returns error wrapping ErrCorruptRecord on malformed input
func Deserialize(reader io.Reader) (*Record, error) {
	record := &Record{}
	if err := json.NewDecoder(reader).Decode(record); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}

	if record.Log == "" || record.SDKName == "" || record.SDKVersion == "" {
		return nil, fmt.Errorf("%w: log and sdk fields are mandatory", ErrCorruptRecord)
	}

	return record, nil
}

//FormValues returns x-www-form-urlencoded upload body values
func (r *Record) FormValues() (url.Values, error) {
	return query.Values(uploadForm{
		Raw:         r.Log,
		UserID:      r.UserID,
		Contact:     r.Contact,
		Description: r.Description,
		SDK:         r.SDKName,
		SDKVersion:  r.SDKVersion,
	})
}
