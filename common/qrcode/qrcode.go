package qrcode

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/skip2/go-qrcode"
)

const (
	DataURIPrefix = "data:image/png;base64,"

	// DefaultSize is the pixel width used in booking responses.
	DefaultSize = 300
)

// GenerateQRCodeBase64 encodes text as a PNG QR code and returns it as a data
// URI ("data:image/png;base64,...") that frontends can put straight into <img src>.
func GenerateQRCodeBase64(text string, size int) (string, error) {
	pngBytes, err := GenerateQRCodePngBytes(text, size)
	if err != nil {
		return "", err
	}
	return DataURIPrefix + base64.StdEncoding.EncodeToString(pngBytes), nil
}

// GenerateQRCodePngBytes encodes text as a PNG QR code of size x size pixels.
func GenerateQRCodePngBytes(text string, size int) ([]byte, error) {
	if text == "" {
		return nil, errors.New("qr content must not be empty")
	}
	if size <= 0 {
		size = DefaultSize
	}

	// Medium recovers ~15% damage, enough for a phone screen at a gate.
	qr, err := qrcode.New(text, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR code: %w", err)
	}

	pngBytes, err := qr.PNG(size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR to PNG: %w", err)
	}

	return pngBytes, nil
}

// GenerateCheckInQR renders a check-in token. The QR holds the token verbatim
// so a scanner can post it to the check-in endpoint unchanged.
func GenerateCheckInQR(token string, size int) (string, error) {
	return GenerateQRCodeBase64(token, size)
}
