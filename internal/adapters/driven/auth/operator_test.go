package auth

import "testing"

func TestOperator_IssueAndVerify(t *testing.T) {
	hash, err := HashSecret("correct-secret")
	if err != nil {
		t.Fatalf("HashSecret() error = %v", err)
	}
	op := NewOperator([]byte("signing-key"), hash)

	token, err := op.IssueToken("correct-secret")
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}

	if err := op.VerifyToken(token); err != nil {
		t.Errorf("VerifyToken() error = %v", err)
	}
}

func TestOperator_IssueRejectsWrongSecret(t *testing.T) {
	hash, _ := HashSecret("correct-secret")
	op := NewOperator([]byte("signing-key"), hash)

	if _, err := op.IssueToken("wrong-secret"); err == nil {
		t.Error("expected error for wrong secret")
	}
}

func TestOperator_VerifyRejectsForeignToken(t *testing.T) {
	hash, _ := HashSecret("secret")
	op := NewOperator([]byte("signing-key"), hash)
	other := NewOperator([]byte("different-key"), hash)

	token, err := other.IssueToken("secret")
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}

	if err := op.VerifyToken(token); err == nil {
		t.Error("expected verification to fail for a token signed with a different key")
	}
}
