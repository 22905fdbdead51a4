package mercadopago

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidSignature = errors.New("invalid webhook signature")

// ValidateSignature checks the x-signature header of a webhook delivery.
// Header format: "ts=<unix>,v1=<hex>"; the expected value is HMAC-SHA256 over
// "id:<raw body>;request-id:<request-id>;ts:<ts>;" keyed by the shared
// secret.
func ValidateSignature(secret, signatureHeader, requestID string, body []byte) error {
	ts, v1 := "", ""
	for _, part := range strings.Split(signatureHeader, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "ts":
			ts = value
		case "v1":
			v1 = value
		}
	}
	if ts == "" || v1 == "" {
		return ErrInvalidSignature
	}

	payload := fmt.Sprintf("id:%s;request-id:%s;ts:%s;", body, requestID, ts)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(v1))) {
		return ErrInvalidSignature
	}
	return nil
}
