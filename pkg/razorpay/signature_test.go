package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/velora-labs/velora-backend/pkg/config"
)

func testClient(t *testing.T) *Client {
	t.Helper()
	c, err := NewClient(config.RazorpayConfig{
		KeyID:     "rzp_test_key",
		KeySecret: "shhh-secret",
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestVerifyCallbackMatchesKnownDigest(t *testing.T) {
	c := testClient(t)

	mac := hmac.New(sha256.New, []byte("shhh-secret"))
	mac.Write([]byte("order_abc|pay_xyz"))
	signature := hex.EncodeToString(mac.Sum(nil))

	if !c.VerifyCallback("order_abc", "pay_xyz", signature) {
		t.Fatalf("expected valid signature to verify")
	}
}

func TestVerifyCallbackRejectsTamperedPayload(t *testing.T) {
	c := testClient(t)
	signature := c.SignCallback("order_abc", "pay_xyz")

	if c.VerifyCallback("order_abc", "pay_other", signature) {
		t.Fatalf("expected signature for different payment to fail")
	}
	if c.VerifyCallback("order_other", "pay_xyz", signature) {
		t.Fatalf("expected signature for different order to fail")
	}
	if c.VerifyCallback("order_abc", "pay_xyz", signature+"00") {
		t.Fatalf("expected extended signature to fail")
	}
}

func TestVerifyCallbackRejectsEmptyInputs(t *testing.T) {
	c := testClient(t)
	signature := c.SignCallback("order_abc", "pay_xyz")

	if c.VerifyCallback("", "pay_xyz", signature) {
		t.Fatalf("expected empty order id to fail")
	}
	if c.VerifyCallback("order_abc", "", signature) {
		t.Fatalf("expected empty payment id to fail")
	}
	if c.VerifyCallback("order_abc", "pay_xyz", "") {
		t.Fatalf("expected empty signature to fail")
	}
}

func TestNewClientRequiresCredentials(t *testing.T) {
	if _, err := NewClient(config.RazorpayConfig{KeySecret: "s"}); err == nil {
		t.Fatalf("expected missing key id error")
	}
	if _, err := NewClient(config.RazorpayConfig{KeyID: "k"}); err == nil {
		t.Fatalf("expected missing secret error")
	}
}
