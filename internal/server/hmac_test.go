package server

import (
	"testing"
)

func TestVerifySignature(t *testing.T) {
	secret := "test-secret-key"
	body := []byte(`{"ref":"refs/heads/main"}`)

	expectedSig := computeSignature(body, secret)

	tests := []struct {
		name      string
		body      []byte
		signature string
		secret    string
		wantErr   bool
	}{
		{
			name:      "valid signature - plain hex",
			body:      body,
			signature: expectedSig,
			secret:    secret,
			wantErr:   false,
		},
		{
			name:      "valid signature - GitHub format",
			body:      body,
			signature: formatSignature(expectedSig),
			secret:    secret,
			wantErr:   false,
		},
		{
			name:      "invalid signature - wrong signature",
			body:      body,
			signature: "0000000000000000000000000000000000000000000000000000000000000000",
			secret:    secret,
			wantErr:   true,
		},
		{
			name:      "invalid signature - tampered body",
			body:      []byte(`{"ref":"refs/heads/hacked"}`),
			signature: expectedSig,
			secret:    secret,
			wantErr:   true,
		},
		{
			name:      "invalid signature - wrong secret",
			body:      body,
			signature: expectedSig,
			secret:    "wrong-secret",
			wantErr:   true,
		},
		{
			name:      "invalid signature - empty signature",
			body:      body,
			signature: "",
			secret:    secret,
			wantErr:   true,
		},
		{
			name:      "invalid signature - empty secret",
			body:      body,
			signature: expectedSig,
			secret:    "",
			wantErr:   true,
		},
		{
			name:      "invalid signature - malformed hex",
			body:      body,
			signature: "not-valid-hex",
			secret:    secret,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := verifySignature(tt.body, tt.signature, tt.secret)
			if (err != nil) != tt.wantErr {
				t.Errorf("verifySignature() error = %v, wantErr %v", err, tt.wantErr)
			}

			// All errors should be generic (no information leakage)
			if err != nil && err.Error() != "webhook verification failed" {
				t.Errorf("error should be generic, got: %v", err)
			}
		})
	}
}

func TestVerifySignatureSingleByteFlip(t *testing.T) {
	secret := "test-secret"
	body := []byte(`{"ref":"refs/heads/main","pusher":{"name":"alice"}}`)
	sig := formatSignature(computeSignature(body, secret))

	if err := verifySignature(body, sig, secret); err != nil {
		t.Fatalf("baseline signature should verify: %v", err)
	}

	for i := range body {
		tampered := append([]byte(nil), body...)
		tampered[i] ^= 0x01
		if err := verifySignature(tampered, sig, secret); err == nil {
			t.Fatalf("flipping byte %d should invalidate the signature", i)
		}
	}
}

func TestComputeSignature(t *testing.T) {
	body := []byte("test payload")
	secret := "test-secret"

	sig := computeSignature(body, secret)

	if len(sig) != 64 { // SHA256 = 32 bytes = 64 hex chars
		t.Errorf("signature length = %d, want 64", len(sig))
	}

	sig2 := computeSignature(body, secret)
	if sig != sig2 {
		t.Error("signature should be deterministic")
	}

	sig3 := computeSignature([]byte("different"), secret)
	if sig == sig3 {
		t.Error("different body should produce different signature")
	}
}
