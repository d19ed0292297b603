package services

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/skip2/go-qrcode"
)

const defaultLabelSize = 256

// BinLabeler renders the QR code stuck on a physical bin. The code encodes a
// link to the bin's page on the dashboard.
type BinLabeler struct {
	publicURL string
	size      int
	level     qrcode.RecoveryLevel
}

// NewBinLabeler accepts the error correction level as L, M, Q or H.
func NewBinLabeler(publicURL string, size int, level string) *BinLabeler {
	if size <= 0 {
		size = defaultLabelSize
	}

	var recovery qrcode.RecoveryLevel
	switch strings.ToUpper(level) {
	case "L":
		recovery = qrcode.Low
	case "Q":
		recovery = qrcode.High
	case "H":
		recovery = qrcode.Highest
	default:
		recovery = qrcode.Medium
	}

	return &BinLabeler{
		publicURL: strings.TrimRight(publicURL, "/"),
		size:      size,
		level:     recovery,
	}
}

// LabelURL is the content encoded in the bin's QR code.
func (l *BinLabeler) LabelURL(binID string) string {
	return fmt.Sprintf("%s/lixeira/%s", l.publicURL, url.PathEscape(binID))
}

// PNG renders the label for binID.
func (l *BinLabeler) PNG(binID string) ([]byte, error) {
	code, err := qrcode.New(l.LabelURL(binID), l.level)
	if err != nil {
		return nil, fmt.Errorf("failed to create QR code: %w", err)
	}

	png, err := code.PNG(l.size)
	if err != nil {
		return nil, fmt.Errorf("failed to generate PNG: %w", err)
	}
	return png, nil
}
