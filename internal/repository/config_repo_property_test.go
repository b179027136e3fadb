package repository

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/basset-hound/automation/internal/db"
	"github.com/basset-hound/automation/internal/model"
)

// generateID generates a unique suffix for testing.
func generateID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// For any submitted email/phone/target, the stored config can be read back
// with the same selector map, and a second submission for the same origin
// replaces the first.
func TestConfigRoundTripProperty(t *testing.T) {
	testDB, err := db.NewTestDB()
	if err != nil {
		t.Fatalf("failed to init db: %v", err)
	}
	defer testDB.Close()

	repo := NewConfigRepository(testDB)
	ctx := context.Background()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	nonEmptyString := gen.AlphaString().SuchThat(func(s string) bool {
		return len(s) > 0 && len(s) <= 100
	})

	properties.Property("upsert persists and get returns the same fields", prop.ForAll(
		func(email, phone, target string) bool {
			origin := target + "-" + generateID()
			req := &model.SubmitRequest{Email: email, Phone: phone, Target: origin}
			config := req.Config()

			if err := repo.Upsert(ctx, config); err != nil {
				t.Logf("failed to upsert config: %v", err)
				return false
			}

			retrieved, err := repo.GetByOrigin(ctx, origin)
			if err != nil {
				t.Logf("failed to retrieve config: %v", err)
				return false
			}
			if retrieved.Origin != origin || !reflect.DeepEqual(retrieved.Fields, config.Fields) {
				t.Logf("retrieved config does not match stored config")
				return false
			}

			// Second submission for the same origin replaces the fields.
			replacement := (&model.SubmitRequest{Email: email + "2", Target: origin}).Config()
			if err := repo.Upsert(ctx, replacement); err != nil {
				t.Logf("failed to overwrite config: %v", err)
				return false
			}
			retrieved, err = repo.GetByOrigin(ctx, origin)
			if err != nil {
				t.Logf("failed to retrieve overwritten config: %v", err)
				return false
			}
			if !reflect.DeepEqual(retrieved.Fields, replacement.Fields) {
				t.Logf("overwrite did not replace fields")
				return false
			}

			repo.Delete(ctx, origin)
			return true
		},
		nonEmptyString,
		nonEmptyString,
		nonEmptyString,
	))

	properties.TestingRun(t)
}
