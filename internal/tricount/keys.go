package tricount

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
)

const rsaKeyBits = 2048

// generatePublicKey returns the PKCS#1 PEM encoding of the public half of a
// fresh RSA key. The API validates the key format but the private half is
// never needed, so it is discarded.
func generatePublicKey() (string, error) {
	key, err := rsa.GenerateKey(rand.Reader, rsaKeyBits)
	if err != nil {
		return "", fmt.Errorf("generate rsa key: %w", err)
	}
	block := &pem.Block{
		Type:  "RSA PUBLIC KEY",
		Bytes: x509.MarshalPKCS1PublicKey(&key.PublicKey),
	}
	return string(pem.EncodeToMemory(block)), nil
}
