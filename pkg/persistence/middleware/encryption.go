package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/cartwise/pkg/domain"
	"github.com/aretw0/cartwise/pkg/ports"
)

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte
}

type encryptionMiddleware struct {
	next   ports.CheckpointStore
	config EncryptionConfig
}

// sealed is the part of a checkpoint that carries user data.
type sealed struct {
	State      *domain.State        `json:"shared_state"`
	Review     *domain.Review       `json:"review,omitempty"`
	LastResume *domain.ResumeRecord `json:"last_resume,omitempty"`
	Result     *domain.Result       `json:"result,omitempty"`
	History    []domain.StepRecord  `json:"history,omitempty"`
}

// NewEncryptionMiddleware creates a middleware that encrypts checkpoints using AES-GCM (Envelope Encryption).
// Thread ID, status, pending stage and version stay readable so the store can
// still list sessions and compare versions.
func NewEncryptionMiddleware(config EncryptionConfig) Middleware {
	if len(config.ActiveKey) != 32 {
		panic("active key must be 32 bytes (AES-256)")
	}
	return func(next ports.CheckpointStore) ports.CheckpointStore {
		return &encryptionMiddleware{
			next:   next,
			config: config,
		}
	}
}

func (m *encryptionMiddleware) Save(ctx context.Context, cp *domain.Checkpoint) error {
	// 1. Serialize the user data
	plainText, err := json.Marshal(sealed{
		State:      cp.State,
		Review:     cp.Review,
		LastResume: cp.LastResume,
		Result:     cp.Result,
		History:    cp.History,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	// 2. Encrypt
	ciphertext, err := encrypt(plainText, m.config.ActiveKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt checkpoint: %w", err)
	}

	// 3. Create envelope
	envelope := &domain.Checkpoint{
		ThreadID:     cp.ThreadID,
		State:        domain.NewState(""),
		PendingStage: cp.PendingStage,
		Status:       cp.Status,
		Seq:          cp.Seq,
		Sealed:       base64.StdEncoding.EncodeToString(ciphertext),
		Version:      cp.Version,
		CreatedAt:    cp.CreatedAt,
		UpdatedAt:    cp.UpdatedAt,
	}
	if err := m.next.Save(ctx, envelope); err != nil {
		return err
	}
	cp.Version = envelope.Version
	return nil
}

func (m *encryptionMiddleware) Load(ctx context.Context, threadID string) (*domain.Checkpoint, error) {
	// 1. Load envelope
	envelope, err := m.next.Load(ctx, threadID)
	if err != nil {
		return nil, err
	}

	// 2. Extract ciphertext
	if envelope.Sealed == "" {
		// Fail secure: a plain checkpoint in an encrypted store is not trusted.
		return nil, errors.New("checkpoint is missing encrypted data envelope")
	}
	ciphertext, err := base64.StdEncoding.DecodeString(envelope.Sealed)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}

	// 3. Decrypt (Try Active, then Fallback)
	plainText, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt checkpoint: %w", err)
	}

	// 4. Deserialize
	var data sealed
	if err := json.Unmarshal(plainText, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal decrypted checkpoint: %w", err)
	}

	cp := *envelope
	cp.Sealed = ""
	cp.State = data.State
	if cp.State == nil {
		cp.State = domain.NewState("")
	}
	cp.Review = data.Review
	cp.LastResume = data.LastResume
	cp.Result = data.Result
	cp.History = data.History
	return &cp, nil
}

func (m *encryptionMiddleware) Delete(ctx context.Context, threadID string) error {
	return m.next.Delete(ctx, threadID)
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// Helpers

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	// Try active key first
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}

	// Try fallbacks in order
	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}

	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	ciphertextBytes := ciphertext[gcm.NonceSize():]

	return gcm.Open(nil, nonce, ciphertextBytes, nil)
}
