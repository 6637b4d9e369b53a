package crypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"

	"gopkg.in/go-playground/validator.v9"
)

// Encryptor seals short facts (such as a packed AuthInfo) into opaque hex
// strings suitable for cookie values.
type Encryptor struct {
	Gcm cipher.AEAD `validate:"required"`
}

var validate = validator.New()

var errShortCiphertext = errors.New("ciphertext too short")

func NewEncryptor(privateKey string) *Encryptor {
	if privateKey == "" {
		panic("PrivateKey is required to create Encryptor")
	}

	encryptor := &Encryptor{
		Gcm: generateAEAD(privateKey),
	}

	if err := validate.Struct(encryptor); err != nil {
		panic(err.Error())
	}
	return encryptor
}

func generateAEAD(privateKey string) cipher.AEAD {
	key := sha256.Sum256([]byte(privateKey))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		panic(err.Error())
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		panic(err.Error())
	}
	return gcm
}

// EncryptFact seals fact under a fresh nonce which is prepended to the output.
func (encryptor *Encryptor) EncryptFact(fact string) (string, error) {
	nonce := make([]byte, encryptor.Gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := encryptor.Gcm.Seal(nonce, nonce, []byte(fact), nil)
	return hex.EncodeToString(sealed), nil
}

func (encryptor *Encryptor) DecryptFact(encryptedFact string) (string, error) {
	encryptedBytes, err := hex.DecodeString(encryptedFact)
	if err != nil {
		return "", err
	}
	nonceSize := encryptor.Gcm.NonceSize()
	if len(encryptedBytes) < nonceSize+encryptor.Gcm.Overhead() {
		return "", errShortCiphertext
	}
	nonce, ciphertext := encryptedBytes[:nonceSize], encryptedBytes[nonceSize:]
	plaintext, err := encryptor.Gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}
