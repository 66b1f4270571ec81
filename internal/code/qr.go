package code

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// CheckInPayload is the string encoded into the session QR image. The scanner
// app parses out the session id and code; students typing the code by hand
// only enter the code part.
func CheckInPayload(sessionID, code string) string {
	return fmt.Sprintf("hadirku://checkin?s=%s&c=%s", sessionID, code)
}

// QRPNG renders the check-in payload as a PNG of the given pixel size.
// Medium error correction keeps the image scannable from the back of a
// classroom.
func QRPNG(sessionID, code string, size int) ([]byte, error) {
	if size <= 0 {
		size = 512
	}
	png, err := qrcode.Encode(CheckInPayload(sessionID, code), qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}
