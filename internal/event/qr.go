package event

import qrcode "github.com/skip2/go-qrcode"

// QRPNG renders a token value as a PNG QR code.
func QRPNG(value string, size int) ([]byte, error) {
	if size <= 0 {
		size = 256
	}
	return qrcode.Encode(value, qrcode.Medium, size)
}
