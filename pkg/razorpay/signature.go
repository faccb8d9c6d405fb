package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignCallback computes the hex HMAC-SHA256 of "<orderID>|<paymentID>" with
// the key secret. This is the exact string the gateway signs on callbacks.
func (c *Client) SignCallback(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(c.keySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyCallback reports whether the supplied signature matches the expected
// HMAC for the order/payment pair. Comparison is constant-time.
func (c *Client) VerifyCallback(orderID, paymentID, signature string) bool {
	if c == nil || orderID == "" || paymentID == "" || signature == "" {
		return false
	}
	expected := c.SignCallback(orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}
