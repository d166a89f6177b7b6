package utils

import (
	"strings"
	"testing"
)

func TestHashAndComparePassword(t *testing.T) {
	hashed, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !strings.Contains(hashed, ".") {
		t.Fatalf("expected hash.salt format, got %q", hashed)
	}
	if !ComparePassword("correct horse battery staple", hashed) {
		t.Fatal("correct password did not verify")
	}
	if ComparePassword("wrong password", hashed) {
		t.Fatal("wrong password verified")
	}
}

func TestHashPasswordUniqueSalts(t *testing.T) {
	a, err := HashPassword("same input")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	b, err := HashPassword("same input")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if a == b {
		t.Fatal("two hashes of the same password should differ by salt")
	}
}

func TestComparePasswordMalformedStored(t *testing.T) {
	cases := []struct {
		name   string
		stored string
	}{
		{name: "empty", stored: ""},
		{name: "no_separator", stored: "deadbeef"},
		{name: "bad_hash_hex", stored: "zz.00ff"},
		{name: "bad_salt_hex", stored: "00ff.zz"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if ComparePassword("anything", tc.stored) {
				t.Fatalf("malformed stored value %q verified", tc.stored)
			}
		})
	}
}
