package jwt

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
)

// Keys sostiene el par RSA del servidor. La privada se carga una vez al
// arranque y no sale nunca del proceso; lo único publicable es n/e vía JWKS.
type Keys struct {
	Private *rsa.PrivateKey
	Public  *rsa.PublicKey
}

// LoadKeys lee el par desde archivos PEM (PKCS#1 o PKCS#8 para la privada,
// PKIX o PKCS#1 para la pública).
func LoadKeys(privatePath, publicPath string) (*Keys, error) {
	priv, err := loadPrivateKey(privatePath)
	if err != nil {
		return nil, fmt.Errorf("private key %s: %w", privatePath, err)
	}
	pub, err := loadPublicKey(publicPath)
	if err != nil {
		return nil, fmt.Errorf("public key %s: %w", publicPath, err)
	}
	return &Keys{Private: priv, Public: pub}, nil
}

func loadPrivateKey(path string) (*rsa.PrivateKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, fmt.Errorf("no PEM block")
	}
	if k, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return k, nil
	}
	any, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	k, ok := any.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("not an RSA key")
	}
	return k, nil
}

func loadPublicKey(path string) (*rsa.PublicKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, fmt.Errorf("no PEM block")
	}
	if k, err := x509.ParsePKCS1PublicKey(block.Bytes); err == nil {
		return k, nil
	}
	any, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	k, ok := any.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("not an RSA key")
	}
	return k, nil
}
