package base64_test

import (
	"testing"

	"roombook/shared/base64"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		contentType string
		wantErr     bool
	}{
		{name: "png", input: "data:image/png;base64,iVBORw0KGgo=", contentType: "image/png"},
		{name: "upper case media type", input: "data:IMAGE/JPEG;base64,/9j/4AAQ", contentType: "image/jpeg"},
		{name: "parameters dropped", input: "data:image/svg+xml;charset=utf-8;base64,PHN2Zz4=", contentType: "image/svg+xml"},
		{name: "missing prefix", input: "image/png;base64,iVBORw0KGgo=", wantErr: true},
		{name: "missing marker", input: "data:image/png,iVBORw0KGgo=", wantErr: true},
		{name: "empty media type", input: "data:;base64,", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := base64.Parse(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, base64.ErrNotDataURI)
				assert.Empty(t, base64.GetContentType(tt.input))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.contentType, d.ContentType)
			assert.Equal(t, tt.contentType, base64.GetContentType(tt.input))
		})
	}
}

func TestDataURI_DecodedSize(t *testing.T) {
	for _, payload := range []string{"SGVsbG8gV29ybGQ=", "SGVsbG8gV29ybA==", "SGVsbG8gV29y", ""} {
		d, err := base64.Parse("data:text/plain;base64," + payload)
		require.NoError(t, err)

		raw, err := d.Decode()
		require.NoError(t, err)

		assert.Equal(t, len(raw), d.DecodedSize(), payload)
	}
}
