// Package base64 reads inline images sent as data URIs
// ("data:image/png;base64,...").
package base64

import (
	"encoding/base64"
	"errors"
	"strings"
)

const (
	prefix = "data:"
	marker = ";base64,"
)

var ErrNotDataURI = errors.New("value is not a base64 data URI")

type DataURI struct {
	ContentType string
	Payload     string
}

// Parse splits a data URI into its media type and encoded payload. Media
// type parameters such as charset are dropped.
func Parse(uri string) (DataURI, error) {
	rest, ok := strings.CutPrefix(uri, prefix)
	if !ok {
		return DataURI{}, ErrNotDataURI
	}

	mediaType, payload, ok := strings.Cut(rest, marker)
	if !ok {
		return DataURI{}, ErrNotDataURI
	}

	contentType, _, _ := strings.Cut(mediaType, ";")
	if contentType == "" {
		return DataURI{}, ErrNotDataURI
	}

	return DataURI{ContentType: strings.ToLower(contentType), Payload: payload}, nil
}

func GetContentType(uri string) string {
	d, err := Parse(uri)
	if err != nil {
		return ""
	}

	return d.ContentType
}

// DecodedSize returns the byte length of the payload once decoded, without
// allocating it.
func (d DataURI) DecodedSize() int {
	return base64.StdEncoding.DecodedLen(len(d.Payload)) - strings.Count(d.Payload[max(0, len(d.Payload)-2):], "=")
}

func (d DataURI) Decode() ([]byte, error) {
	return base64.StdEncoding.DecodeString(d.Payload)
}
