package mongo

import (
	"testing"

	"petrent/internal/records/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestCollections_CoverRecordStore(t *testing.T) {
	var names []string
	for _, c := range Collections() {
		names = append(names, c.Name)
		assert.NotEmpty(t, c.Indexes, c.Name)
		require.Contains(t, c.Validator, "$jsonSchema", c.Name)
	}

	assert.ElementsMatch(t, []string{
		repository.PetsCollection,
		repository.OwnersCollection,
		repository.RentersCollection,
		repository.BookingsCollection,
		repository.PaymentsCollection,
	}, names)
}

func TestPaymentsIndexes_OnePaymentPerBooking(t *testing.T) {
	var found bool
	for _, idx := range PaymentsIndexes {
		keys := idx.Keys.(bson.D)
		if len(keys) == 1 && keys[0].Key == "booking" {
			found = true
			require.NotNil(t, idx.Options)
			require.NotNil(t, idx.Options.Unique)
			assert.True(t, *idx.Options.Unique)
		}
	}
	assert.True(t, found)
}

func TestValidators_StatusEnumsMatchModel(t *testing.T) {
	statusEnum := func(validator bson.M) []string {
		schema := validator["$jsonSchema"].(bson.M)
		props := schema["properties"].(bson.M)
		return props["status"].(bson.M)["enum"].([]string)
	}

	for _, c := range Collections() {
		switch c.Name {
		case repository.BookingsCollection:
			assert.ElementsMatch(t, []string{"PENDING", "ACTIVE", "CANCELLED"}, statusEnum(c.Validator))
		case repository.PaymentsCollection:
			assert.ElementsMatch(t, []string{"PENDING", "DECLINED", "PAID", "REFUNDED"}, statusEnum(c.Validator))
		}
	}
}
