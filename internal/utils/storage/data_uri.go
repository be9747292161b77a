package storage

import (
	"encoding/base64"
	"errors"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var ErrInvalidDataURI = errors.New("invalid data uri")

// DecodeDataURI decodes "data:<type>;base64,<payload>". The declared type is
// not trusted: the returned File carries the type sniffed from the bytes.
func DecodeDataURI(uri string) (*File, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, ErrInvalidDataURI
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return nil, ErrInvalidDataURI
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return nil, ErrInvalidDataURI
		}
	}
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	mtype := mimetype.Detect(data)
	return &File{
		Data:      data,
		MimeType:  mtype.String(),
		Extension: mtype.Extension(),
	}, nil
}
