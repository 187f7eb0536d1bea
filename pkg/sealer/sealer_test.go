package sealer

import "testing"

func TestSignVerify(t *testing.T) {
	body := []byte(`{"startDate":"2024-06-01","endDate":"2024-06-05","bookingId":"b1"}`)
	sig := Sign("secret", body)

	tests := []struct {
		name      string
		secret    string
		body      []byte
		signature string
		want      bool
	}{
		{"valid", "secret", body, sig, true},
		{"valid without prefix", "secret", body, sig[len(signaturePrefix):], true},
		{"wrong secret", "other", body, sig, false},
		{"tampered body", "secret", []byte(`{}`), sig, false},
		{"empty signature", "secret", body, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Verify(tt.secret, tt.body, tt.signature); got != tt.want {
				t.Errorf("Verify() = %v, want %v", got, tt.want)
			}
		})
	}
}
