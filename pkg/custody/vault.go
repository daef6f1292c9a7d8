// Package custody holds ed25519 keys sealed with age and exposes what they can do, never the keys.
//
// Two kinds of key live here: the per-request delete key whose public half is the admin key of
// a scheduled mint, and the per-decider signing key that is part of a token's supply key list.
package custody

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"filippo.io/age"
	"github.com/chris/wage-advance-ledger/pkg/ledger"
	"github.com/chris/wage-advance-ledger/pkg/models"
	"github.com/chris/wage-advance-ledger/pkg/storage"
	"github.com/google/uuid"
)

// ErrKeyMissing is returned when no sealed key exists under a reference.
var ErrKeyMissing = errors.New("custody key missing")

// ErrSignerEnrolled is returned when a signer already has a sealed key.
var ErrSignerEnrolled = errors.New("signer already enrolled")

// DeleteKeyPrefix prefixes the custody references of a request's delete keys.
// Each scheduling attempt gets its own key.
func DeleteKeyPrefix(requestID string) string { return "delete-key/" + requestID + "/" }

// SignerRef is the custody reference of a decider's signing key.
func SignerRef(signerID string) string { return "signer/" + signerID }

// Vault seals keys to its own age recipient and stores only ciphertext.
type Vault struct {
	store     storage.SecretStore
	gateway   ledger.Gateway
	identity  *age.X25519Identity
	recipient *age.X25519Recipient
	logger    *slog.Logger
	nowFn     func() time.Time
}

// GenerateIdentity returns a new age identity in AGE-SECRET-KEY-1 form.
func GenerateIdentity() (string, error) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return "", fmt.Errorf("failed to generate age identity: %w", err)
	}
	return identity.String(), nil
}

// NewVault parses the age identity that unseals every stored key.
func NewVault(store storage.SecretStore, gateway ledger.Gateway, identity string, logger *slog.Logger) (*Vault, error) {
	id, err := age.ParseX25519Identity(identity)
	if err != nil {
		return nil, fmt.Errorf("failed to parse vault identity: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Vault{
		store:     store,
		gateway:   gateway,
		identity:  id,
		recipient: id.Recipient(),
		logger:    logger,
		nowFn:     time.Now,
	}, nil
}

func (v *Vault) seal(plaintext []byte) (string, error) {
	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, v.recipient)
	if err != nil {
		return "", fmt.Errorf("failed to create age encryptor: %w", err)
	}
	if _, err := w.Write(plaintext); err != nil {
		return "", fmt.Errorf("failed to write sealed key: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize sealed key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func (v *Vault) unseal(ciphertext string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return nil, fmt.Errorf("failed to decode sealed key: %w", err)
	}
	r, err := age.Decrypt(bytes.NewReader(raw), v.identity)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt sealed key: %w", err)
	}
	return io.ReadAll(r)
}

// create generates a key and stores it sealed under ref.
func (v *Vault) create(ctx context.Context, ref string) (ed25519.PublicKey, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ed25519 key: %w", err)
	}
	ciphertext, err := v.seal(priv.Seed())
	if err != nil {
		return nil, err
	}
	err = v.store.PutSecret(ctx, &models.SealedSecret{
		Ref:        ref,
		Ciphertext: ciphertext,
		PublicKey:  hex.EncodeToString(pub),
		CreatedAt:  v.nowFn().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store sealed key %s: %w", ref, err)
	}
	return pub, nil
}

// load unseals the key under ref.
func (v *Vault) load(ctx context.Context, ref string) (ed25519.PrivateKey, error) {
	secret, err := v.store.GetSecret(ctx, ref)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrKeyMissing, ref)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load sealed key %s: %w", ref, err)
	}
	seed, err := v.unseal(secret.Ciphertext)
	if err != nil {
		return nil, err
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("sealed key %s has invalid length %d", ref, len(seed))
	}
	return ed25519.NewKeyFromSeed(seed), nil
}

// GenerateDeleteKey creates a delete key for a request and returns its public half and reference.
func (v *Vault) GenerateDeleteKey(ctx context.Context, requestID string) (ed25519.PublicKey, string, error) {
	ref := DeleteKeyPrefix(requestID) + uuid.NewString()
	pub, err := v.create(ctx, ref)
	if err != nil {
		return nil, "", err
	}
	return pub, ref, nil
}

// CancelSchedule deletes a scheduled transaction with the delete key stored under ref.
func (v *Vault) CancelSchedule(ctx context.Context, ref, scheduleID string) error {
	key, err := v.load(ctx, ref)
	if err != nil {
		return err
	}
	return v.gateway.DeleteSchedule(ctx, scheduleID, key)
}

// EnrollSigner creates a signer's signing key and returns the public half.
func (v *Vault) EnrollSigner(ctx context.Context, signerID string) (ed25519.PublicKey, error) {
	pub, err := v.create(ctx, SignerRef(signerID))
	if errors.Is(err, storage.ErrAlreadyExists) {
		return nil, ErrSignerEnrolled
	}
	return pub, err
}

// SignerPublicKey returns the enrolled public key of a signer.
func (v *Vault) SignerPublicKey(ctx context.Context, signerID string) (ed25519.PublicKey, error) {
	secret, err := v.store.GetSecret(ctx, SignerRef(signerID))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrKeyMissing, SignerRef(signerID))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load signer %s: %w", signerID, err)
	}
	pub, err := hex.DecodeString(secret.PublicKey)
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("signer %s has a malformed public key", signerID)
	}
	return ed25519.PublicKey(pub), nil
}

// SignSchedule adds the signer's signature to a scheduled transaction.
func (v *Vault) SignSchedule(ctx context.Context, signerID, scheduleID string) error {
	key, err := v.load(ctx, SignerRef(signerID))
	if err != nil {
		return err
	}
	return v.gateway.SignSchedule(ctx, scheduleID, key)
}

// Destroy removes the key under ref. Destroying a missing key is not an error.
func (v *Vault) Destroy(ctx context.Context, ref string) error {
	if err := v.store.DeleteSecret(ctx, ref); err != nil {
		return fmt.Errorf("failed to destroy key %s: %w", ref, err)
	}
	v.logger.Debug("custody key destroyed", "ref", ref)
	return nil
}
