package phh

import (
	"bytes"
	"errors"
	"io"

	"github.com/BurntSushi/toml"
)

// Encode writes hh as PHH TOML.
func Encode(w io.Writer, hh *HandHistory) error {
	if hh == nil {
		return errors.New("phh: nil hand history")
	}
	enc := toml.NewEncoder(w)
	enc.Indent = "\t"
	return enc.Encode(hh)
}

func EncodeToBytes(hh *HandHistory) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, hh); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
