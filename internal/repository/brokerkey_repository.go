package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/fernet/fernet-go"

	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/model"
)

// BrokerKeyRepository provides data access methods for the broker_api_keys
// table. API secrets are fernet-encrypted before they touch the database and
// decrypted on read, so a copied database file leaks no usable credentials.
type BrokerKeyRepository struct {
	db  *sql.DB
	key *fernet.Key
}

// NewBrokerKeyRepository creates a new BrokerKeyRepository. encryptionKey is
// a base64url fernet key (32 bytes decoded).
func NewBrokerKeyRepository(db *sql.DB, encryptionKey string) (*BrokerKeyRepository, error) {
	key, err := fernet.DecodeKey(encryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode fernet key: %w", err)
	}
	return &BrokerKeyRepository{db: db, key: key}, nil
}

// Upsert stores or replaces the credentials for an account.
func (s *BrokerKeyRepository) Upsert(k *model.BrokerKey) error {
	encrypted, err := fernet.EncryptAndSign([]byte(k.APISecret), s.key)
	if err != nil {
		return fmt.Errorf("failed to encrypt API secret: %w", err)
	}

	upsertQuery := `
		INSERT INTO broker_api_keys (id, account_id, api_key, api_secret, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(account_id) DO UPDATE SET
			api_key = excluded.api_key,
			api_secret = excluded.api_secret,
			is_active = excluded.is_active,
			updated_at = excluded.updated_at
	`

	_, err = s.db.Exec(upsertQuery,
		k.ID,
		k.AccountID,
		k.APIKey,
		string(encrypted),
		boolToInt(k.IsActive),
		k.CreatedAt.Format(time.RFC3339),
		k.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert broker key: %w", err)
	}
	return nil
}

// GetActive retrieves the active credentials for an account with the secret
// decrypted. Returns sql.ErrNoRows when no active key exists.
func (s *BrokerKeyRepository) GetActive(accountID string) (*model.BrokerKey, error) {
	var k model.BrokerKey
	var encryptedSecret string
	var isActive int
	var createdAtStr, updatedAtStr string

	err := s.db.QueryRow(`
		SELECT id, account_id, api_key, api_secret, is_active, created_at, updated_at
		FROM broker_api_keys
		WHERE account_id = ? AND is_active = 1
	`, accountID).Scan(
		&k.ID,
		&k.AccountID,
		&k.APIKey,
		&encryptedSecret,
		&isActive,
		&createdAtStr,
		&updatedAtStr,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan broker_api_keys table results: %w", err)
	}

	secret := fernet.VerifyAndDecrypt([]byte(encryptedSecret), 0, []*fernet.Key{s.key})
	if secret == nil {
		return nil, fmt.Errorf("failed to decrypt API secret for account %s", accountID)
	}
	k.APISecret = string(secret)
	k.IsActive = isActive != 0

	k.CreatedAt, err = ParseTime(createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created date: %w", err)
	}
	k.UpdatedAt, err = ParseTime(updatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse updated date: %w", err)
	}

	return &k, nil
}

// Deactivate marks the account's credentials inactive without deleting them.
func (s *BrokerKeyRepository) Deactivate(accountID string) error {
	result, err := s.db.Exec(
		`UPDATE broker_api_keys SET is_active = 0, updated_at = ? WHERE account_id = ?`,
		time.Now().UTC().Format(time.RFC3339),
		accountID,
	)
	if err != nil {
		return fmt.Errorf("failed to deactivate broker key: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
