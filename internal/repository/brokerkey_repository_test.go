package repository_test

import (
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/model"
	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/repository"
	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/testutil"
)

// Throwaway fernet key, base64url of 32 bytes.
const testFernetKey = "cw_0x689RpI-jtRR7oE8h_eQsKImvJapLeSbXpwF4e4="

func TestBrokerKeyRepository(t *testing.T) {
	t.Run("secret round trip", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo, err := repository.NewBrokerKeyRepository(db, testFernetKey)
		if err != nil {
			t.Fatalf("Failed to create repository: %v", err)
		}

		now := time.Now().UTC()
		if err := repo.Upsert(&model.BrokerKey{
			ID:        testutil.MakeID(),
			AccountID: "AA1111",
			APIKey:    "kitekey",
			APISecret: "verysecret",
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		}); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}

		key, err := repo.GetActive("AA1111")
		if err != nil {
			t.Fatalf("GetActive failed: %v", err)
		}
		if key.APISecret != "verysecret" {
			t.Errorf("Expected the decrypted secret, got %q", key.APISecret)
		}
		if key.APIKey != "kitekey" {
			t.Errorf("Expected api key kitekey, got %q", key.APIKey)
		}
	})

	t.Run("secret is not stored in plaintext", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo, err := repository.NewBrokerKeyRepository(db, testFernetKey)
		if err != nil {
			t.Fatalf("Failed to create repository: %v", err)
		}

		now := time.Now().UTC()
		if err := repo.Upsert(&model.BrokerKey{
			ID:        testutil.MakeID(),
			AccountID: "AA1111",
			APIKey:    "kitekey",
			APISecret: "verysecret",
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		}); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}

		var stored string
		if err := db.QueryRow("SELECT api_secret FROM broker_api_keys WHERE account_id = ?", "AA1111").Scan(&stored); err != nil {
			t.Fatalf("Failed to read stored secret: %v", err)
		}
		if strings.Contains(stored, "verysecret") {
			t.Error("Expected the stored secret to be encrypted")
		}
	})

	t.Run("upsert replaces per account", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo, err := repository.NewBrokerKeyRepository(db, testFernetKey)
		if err != nil {
			t.Fatalf("Failed to create repository: %v", err)
		}

		now := time.Now().UTC()
		for _, secret := range []string{"first", "second"} {
			if err := repo.Upsert(&model.BrokerKey{
				ID:        testutil.MakeID(),
				AccountID: "AA1111",
				APIKey:    "kitekey",
				APISecret: secret,
				IsActive:  true,
				CreatedAt: now,
				UpdatedAt: now,
			}); err != nil {
				t.Fatalf("Upsert failed: %v", err)
			}
		}

		testutil.AssertRowCount(t, db, "broker_api_keys", 1)

		key, err := repo.GetActive("AA1111")
		if err != nil {
			t.Fatalf("GetActive failed: %v", err)
		}
		if key.APISecret != "second" {
			t.Errorf("Expected the replaced secret, got %q", key.APISecret)
		}
	})

	t.Run("deactivate hides the key", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo, err := repository.NewBrokerKeyRepository(db, testFernetKey)
		if err != nil {
			t.Fatalf("Failed to create repository: %v", err)
		}

		now := time.Now().UTC()
		if err := repo.Upsert(&model.BrokerKey{
			ID:        testutil.MakeID(),
			AccountID: "AA1111",
			APIKey:    "kitekey",
			APISecret: "verysecret",
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		}); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}

		if err := repo.Deactivate("AA1111"); err != nil {
			t.Fatalf("Deactivate failed: %v", err)
		}

		if _, err := repo.GetActive("AA1111"); !errors.Is(err, sql.ErrNoRows) {
			t.Errorf("Expected sql.ErrNoRows after deactivation, got %v", err)
		}
	})

	t.Run("no key stored", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo, err := repository.NewBrokerKeyRepository(db, testFernetKey)
		if err != nil {
			t.Fatalf("Failed to create repository: %v", err)
		}

		if _, err := repo.GetActive("NOPE"); !errors.Is(err, sql.ErrNoRows) {
			t.Errorf("Expected sql.ErrNoRows, got %v", err)
		}
	})

	t.Run("rejects a bad encryption key", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		if _, err := repository.NewBrokerKeyRepository(db, "not-a-key"); err == nil {
			t.Error("Expected an error for an invalid fernet key")
		}
	})
}
