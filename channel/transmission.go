package channel

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
)

//ErrCorruptTransmission is returned when a transmission file can't be parsed
var ErrCorruptTransmission = errors.New("corrupt transmission file")

//Transmission is a serialized batch of telemetry items waiting for upload
type Transmission struct {
	EndpointAddress string
	ContentType     string
	ContentEncoding string
	Content         []byte

	//FileName is set when the transmission is stored or loaded
	FileName string
	Size     int64
}

type header struct {
	Address         string `json:"address"`
	ContentType     string `json:"content_type"`
	ContentEncoding string `json:"content_encoding,omitempty"`
}

//Save writes one JSON header line and raw content
func (t *Transmission) Save(w io.Writer) error {
	b, err := json.Marshal(header{Address: t.EndpointAddress, ContentType: t.ContentType, ContentEncoding: t.ContentEncoding})
	if err != nil {
		return err
	}

	if _, err := w.Write(append(b, '\n')); err != nil {
		return err
	}

	_, err = w.Write(t.Content)
	return err
}

//Load reads transmission written by Save
func Load(r io.Reader) (*Transmission, error) {
	reader := bufio.NewReader(r)
	line, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("%w: header line: %v", ErrCorruptTransmission, err)
	}

	h := header{}
	if err := json.Unmarshal(line, &h); err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrCorruptTransmission, err)
	}
	if h.Address == "" {
		return nil, fmt.Errorf("%w: address is empty", ErrCorruptTransmission)
	}

	content, err := ioutil.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	return &Transmission{
		EndpointAddress: h.Address,
		ContentType:     h.ContentType,
		ContentEncoding: h.ContentEncoding,
		Content:         content,
		Size:            int64(len(line) + len(content)),
	}, nil
}
