package notification

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/gabriel-vasile/mimetype"
)

// MaxIconBytes bounds decoded icon payloads.
const MaxIconBytes = 256 << 10

var iconTypes = []string{"image/png", "image/jpeg", "image/gif"}

// Icon is a decoded notification image, kept encoded.
type Icon struct {
	MIME   string `json:"mime"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Data   []byte `json:"data"`
}

// DecodeIcon decodes a base64 icon and checks that it is a supported image.
func DecodeIcon(b64 string) (*Icon, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty icon")
	}
	if len(raw) > MaxIconBytes {
		return nil, fmt.Errorf("icon too large: %d bytes", len(raw))
	}

	mt := mimetype.Detect(raw)
	if !mimetype.EqualsAny(mt.String(), iconTypes...) {
		return nil, fmt.Errorf("unsupported icon type %s", mt.String())
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", mt.String(), err)
	}

	return &Icon{MIME: mt.String(), Width: cfg.Width, Height: cfg.Height, Data: raw}, nil
}
