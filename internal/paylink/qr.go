package paylink

import (
	qrcode "github.com/skip2/go-qrcode"
)

const (
	defaultQRSize = 320
	maxQRSize     = 1024
)

// EncodeQRPNG renders a pay URL as a PNG QR code. Non-positive sizes fall
// back to the default; oversized requests are clamped.
func EncodeQRPNG(payURL string, size int) ([]byte, error) {
	if size <= 0 {
		size = defaultQRSize
	}
	if size > maxQRSize {
		size = maxQRSize
	}
	return qrcode.Encode(payURL, qrcode.Medium, size)
}
