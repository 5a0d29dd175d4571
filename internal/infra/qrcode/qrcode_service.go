// Package qrcode renders beat share links as PNG QR codes.
package qrcode

import (
	"strings"

	"beatmarket/config"
	"beatmarket/internal/domain/service"
	"beatmarket/internal/errors"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
)

const (
	defaultSize    = 256
	defaultBaseURL = "beatmarket://"
	beatPathPrefix = "beats/"
)

type qrcodeService struct {
	size                 int
	errorCorrectionLevel qrcode.RecoveryLevel
	baseURL              string
}

// NewQRCodeService creates a QR code service from the qrcode config section.
func NewQRCodeService(cfg *config.Config) service.QRCodeService {
	size, level, baseURL := defaultSize, "M", defaultBaseURL
	if qc := cfg.QRCode; qc != nil {
		if qc.Size > 0 {
			size = qc.Size
		}
		if qc.ErrorCorrectionLevel != "" {
			level = qc.ErrorCorrectionLevel
		}
		if qc.BaseURL != "" {
			baseURL = qc.BaseURL
		}
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	return &qrcodeService{
		size:                 size,
		errorCorrectionLevel: recoveryLevel(level),
		baseURL:              baseURL,
	}
}

func recoveryLevel(name string) qrcode.RecoveryLevel {
	switch strings.ToUpper(name) {
	case "L":
		return qrcode.Low
	case "Q":
		return qrcode.High
	case "H":
		return qrcode.Highest
	default:
		return qrcode.Medium
	}
}

// ShareLink is the payload encoded in a beat's QR code.
func (s *qrcodeService) ShareLink(beatID uuid.UUID) string {
	return s.baseURL + beatPathPrefix + beatID.String()
}

// GenerateBeatShareQR renders the beat's share link as a PNG.
func (s *qrcodeService) GenerateBeatShareQR(beatID uuid.UUID) ([]byte, error) {
	qrCode, err := qrcode.New(s.ShareLink(beatID), s.errorCorrectionLevel)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create QR code")
	}

	pngBytes, err := qrCode.PNG(s.size)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate PNG")
	}

	return pngBytes, nil
}

// ParseBeatShareQR extracts the beat id from a scanned share link of this service.
func (s *qrcodeService) ParseBeatShareQR(qrData string) (uuid.UUID, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(qrData), s.baseURL+beatPathPrefix)
	if !ok {
		return uuid.Nil, errors.Errorf("not a beat share link: %q", qrData)
	}

	beatID, err := uuid.Parse(rest)
	if err != nil {
		return uuid.Nil, errors.Wrap(err, "failed to parse beat ID")
	}

	return beatID, nil
}
