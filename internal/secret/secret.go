// Package secret encrypts and decrypts integration credentials at rest.
// Ciphertexts use AES-256-CBC with a scrypt-derived key and are stored as
// "ivhex:cipherhex", matching the rows already present in production.
package secret

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/crypto/scrypt"
)

// ErrMalformed is returned for ciphertext that does not match the expected
// wire format. Callers treat it as a per-candidate skip, never a fatal error.
var ErrMalformed = eris.New("secret: malformed ciphertext")

// Crypter decrypts stored credential material.
type Crypter interface {
	Decrypt(ciphertext string) (string, error)
}

// AESCrypter implements Crypter with AES-256-CBC.
type AESCrypter struct {
	key []byte
}

// NewAESCrypter derives a 32-byte key from the configured passphrase.
func NewAESCrypter(passphrase string) (*AESCrypter, error) {
	key, err := scrypt.Key([]byte(passphrase), []byte("salt"), 16384, 8, 1, 32)
	if err != nil {
		return nil, eris.Wrap(err, "secret: derive key")
	}
	return &AESCrypter{key: key}, nil
}

// Encrypt produces an "ivhex:cipherhex" ciphertext with a random IV.
func (c *AESCrypter) Encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", eris.Wrap(err, "secret: new cipher")
	}
	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return "", eris.Wrap(err, "secret: read iv")
	}
	padded := pkcs7Pad([]byte(plaintext), aes.BlockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)
	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(out), nil
}

// Decrypt reverses Encrypt. Any structural problem yields ErrMalformed.
func (c *AESCrypter) Decrypt(ciphertext string) (string, error) {
	parts := strings.Split(ciphertext, ":")
	if len(parts) != 2 {
		return "", ErrMalformed
	}
	iv, err := hex.DecodeString(parts[0])
	if err != nil || len(iv) != aes.BlockSize {
		return "", ErrMalformed
	}
	data, err := hex.DecodeString(parts[1])
	if err != nil || len(data) == 0 || len(data)%aes.BlockSize != 0 {
		return "", ErrMalformed
	}
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", eris.Wrap(err, "secret: new cipher")
	}
	out := make([]byte, len(data))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, data)
	plain, err := pkcs7Unpad(out, aes.BlockSize)
	if err != nil {
		return "", ErrMalformed
	}
	return string(plain), nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	pad := blockSize - len(data)%blockSize
	out := make([]byte, len(data)+pad)
	copy(out, data)
	for i := len(data); i < len(out); i++ {
		out[i] = byte(pad)
	}
	return out
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, eris.New("secret: invalid padded length")
	}
	pad := int(data[len(data)-1])
	if pad == 0 || pad > blockSize || pad > len(data) {
		return nil, eris.New("secret: invalid padding byte")
	}
	for _, b := range data[len(data)-pad:] {
		if int(b) != pad {
			return nil, eris.New("secret: inconsistent padding")
		}
	}
	return data[:len(data)-pad], nil
}
