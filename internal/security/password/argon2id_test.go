package password

import (
	"strings"
	"testing"
)

// Parámetros chicos para que el test corra rápido.
var fast = Params{Memory: 8 * 1024, Time: 1, Parallelism: 1, KeyLen: 32}

func fastHasher(pepper string) Hasher {
	return Hasher{Params: fast, Pepper: pepper}
}

func TestHashVerify_RoundTrip(t *testing.T) {
	h := fastHasher("pepper-123")

	phc, err := h.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash err: %v", err)
	}
	if !strings.HasPrefix(phc, "$argon2id$v=19$") {
		t.Fatalf("unexpected PHC prefix: %q", phc)
	}
	if !h.Verify("correct horse battery staple", phc) {
		t.Fatal("expected verify to succeed")
	}
	if h.Verify("wrong password", phc) {
		t.Fatal("wrong password must not verify")
	}
}

func TestVerify_PepperMatters(t *testing.T) {
	h1 := fastHasher("pepper-a")
	h2 := fastHasher("pepper-b")

	phc, err := h1.Hash("secret")
	if err != nil {
		t.Fatalf("Hash err: %v", err)
	}
	if h2.Verify("secret", phc) {
		t.Fatal("hash must not verify under a different pepper")
	}
}

func TestHash_SaltsDiffer(t *testing.T) {
	h := fastHasher("p")
	a, err := h.Hash("same")
	if err != nil {
		t.Fatalf("Hash err: %v", err)
	}
	b, err := h.Hash("same")
	if err != nil {
		t.Fatalf("Hash err: %v", err)
	}
	if a == b {
		t.Fatal("two hashes of the same password must differ (random salt)")
	}
}

func TestVerify_MalformedHash(t *testing.T) {
	h := fastHasher("p")
	cases := []string{
		"",
		"plaintext",
		"$argon2i$v=19$m=8192,t=1,p=1$c2FsdA$ZGs",       // variante equivocada
		"$argon2id$v=18$m=8192,t=1,p=1$c2FsdA$ZGs",      // versión equivocada
		"$argon2id$v=19$m=0,t=1,p=1$c2FsdA$ZGs",         // m=0
		"$argon2id$v=19$m=8192,t=1,p=1$!!notb64!!$ZGs",  // salt inválido
		"$argon2id$v=19$m=8192,t=1,p=1$c2FsdA$",         // dk vacío
		"$argon2id$v=19$m=8192,t=1,p=1,x=2$c2FsdA$ZGs",  // param desconocido
		"$argon2id$v=19$m=8192,t=1,p=999$c2FsdA$ZGs",    // p fuera de rango
	}
	for _, phc := range cases {
		if h.Verify("whatever", phc) {
			t.Fatalf("malformed hash verified: %q", phc)
		}
	}
}

func TestHash_EmptyPassword(t *testing.T) {
	h := fastHasher("p")
	if _, err := h.Hash(""); err == nil {
		t.Fatal("expected error for empty password")
	}
}
