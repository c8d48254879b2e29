package auth

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"

	"github.com/pquerna/otp/totp"
)

const totpIssuer = "WillTank"

// TOTPKey is a freshly generated authenticator secret.
type TOTPKey struct {
	Secret     string
	OTPAuthURL string
	QRCode     string // data:image/png;base64,...
}

// GenerateTOTP creates a new secret for accountName along with its QR code.
func GenerateTOTP(accountName string) (*TOTPKey, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: accountName,
	})
	if err != nil {
		return nil, fmt.Errorf("generate totp: %w", err)
	}

	img, err := key.Image(200, 200)
	if err != nil {
		return nil, fmt.Errorf("render qr code: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode qr code: %w", err)
	}

	return &TOTPKey{
		Secret:     key.Secret(),
		OTPAuthURL: key.URL(),
		QRCode:     "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
	}, nil
}

// ValidateTOTP checks a 6-digit token against secret.
func ValidateTOTP(token, secret string) bool {
	if token == "" || secret == "" {
		return false
	}
	return totp.Validate(token, secret)
}
