package service

import "github.com/google/uuid"

// QRCodeService renders and reads the share links printed as QR codes on beat pages.
type QRCodeService interface {
	GenerateBeatShareQR(beatID uuid.UUID) ([]byte, error)
	// ParseBeatShareQR fails for links minted under a different base URL.
	ParseBeatShareQR(qrData string) (uuid.UUID, error)
}
