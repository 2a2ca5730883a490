package auth

import "testing"

func TestVerifyPlaintext(t *testing.T) {
	if !Verify("hunter2", "hunter2") {
		t.Fatal("matching plaintext rejected")
	}
	if Verify("hunter2", "hunter3") {
		t.Fatal("wrong plaintext accepted")
	}
}

func TestVerifyEmptySecretAlwaysFails(t *testing.T) {
	if Verify("", "") || Verify("", "anything") {
		t.Fatal("empty secret must never match")
	}
}

func TestVerifyBcrypt(t *testing.T) {
	hash, err := HashPassword("fatality")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !Verify(hash, "fatality") {
		t.Fatal("matching password rejected against hash")
	}
	if Verify(hash, "friendship") {
		t.Fatal("wrong password accepted against hash")
	}
}
