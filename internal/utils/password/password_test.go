package password

import "testing"

func TestHashAndCheck(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("Unexpected error hashing password: %v", err)
	}
	if hash == "correct horse battery staple" {
		t.Fatal("Hash must not equal the plaintext password")
	}

	match, err := CheckPasswordHash("correct horse battery staple", hash)
	if err != nil {
		t.Fatalf("Unexpected error verifying password: %v", err)
	}
	if !match {
		t.Fatal("Expected password to match its own hash")
	}
}

func TestCheckWrongPassword(t *testing.T) {
	hash, err := HashPassword("password123")
	if err != nil {
		t.Fatalf("Unexpected error hashing password: %v", err)
	}

	match, err := CheckPasswordHash("password124", hash)
	if err != nil {
		t.Fatalf("Mismatch must not be an error, got: %v", err)
	}
	if match {
		t.Fatal("Expected wrong password not to match")
	}
}

func TestHashesAreSalted(t *testing.T) {
	first, err := HashPassword("samepassword")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	second, err := HashPassword("samepassword")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if first == second {
		t.Fatal("Expected two hashes of the same password to differ")
	}
}

func TestCheckMalformedHash(t *testing.T) {
	_, err := CheckPasswordHash("whatever", "not-a-bcrypt-hash")
	if err == nil {
		t.Fatal("Expected an error for a malformed stored hash")
	}
}
