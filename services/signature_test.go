package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func signPayload(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	const (
		orderID   = "order_MkDvR8xQ2ZsA1f"
		paymentID = "pay_MkDw3TbNq7YcJp"
		secret    = "test_key_secret"
	)
	valid := signPayload(orderID, paymentID, secret)

	t.Run("accepts a correctly signed payload", func(t *testing.T) {
		if !VerifySignature(orderID, paymentID, valid, secret) {
			t.Error("expected valid signature to verify")
		}
	})

	t.Run("rejects a tampered signature", func(t *testing.T) {
		for i := 0; i < len(valid); i++ {
			tampered := []byte(valid)
			if tampered[i] == 'a' {
				tampered[i] = 'b'
			} else {
				tampered[i] = 'a'
			}
			if VerifySignature(orderID, paymentID, string(tampered), secret) {
				t.Fatalf("signature with byte %d flipped should not verify", i)
			}
		}
	})

	t.Run("rejects a signature for a different order", func(t *testing.T) {
		other := signPayload("order_other", paymentID, secret)
		if VerifySignature(orderID, paymentID, other, secret) {
			t.Error("signature over a different order should not verify")
		}
	})

	t.Run("rejects a signature minted with the wrong secret", func(t *testing.T) {
		forged := signPayload(orderID, paymentID, "attacker_secret")
		if VerifySignature(orderID, paymentID, forged, secret) {
			t.Error("signature from a different secret should not verify")
		}
	})

	t.Run("rejects empty signature", func(t *testing.T) {
		if VerifySignature(orderID, paymentID, "", secret) {
			t.Error("empty signature should not verify")
		}
	})
}
