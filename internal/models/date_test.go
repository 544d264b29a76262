package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDate_ParseAndFormat(t *testing.T) {
	t.Run("round-trips the wire format", func(t *testing.T) {
		d, err := ParseDate("2025-03-14")
		assert.NoError(t, err)
		assert.Equal(t, "2025-03-14", d.String())
	})

	t.Run("rejects other layouts", func(t *testing.T) {
		_, err := ParseDate("14-03-2025")
		assert.Error(t, err)

		_, err = ParseDate("2025-03-14T10:00:00Z")
		assert.Error(t, err)
	})
}

func TestDate_JSON(t *testing.T) {
	t.Run("marshals as a bare date string", func(t *testing.T) {
		d, _ := ParseDate("2025-03-14")
		out, err := json.Marshal(d)
		assert.NoError(t, err)
		assert.Equal(t, `"2025-03-14"`, string(out))
	})

	t.Run("unmarshals from a bare date string", func(t *testing.T) {
		var d Date
		assert.NoError(t, json.Unmarshal([]byte(`"2025-03-14"`), &d))
		assert.Equal(t, "2025-03-14", d.String())
	})
}

func TestDate_Scan(t *testing.T) {
	t.Run("accepts a time.Time from the driver", func(t *testing.T) {
		var d Date
		assert.NoError(t, d.Scan(time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)))
		assert.Equal(t, "2025-03-14", d.String())
	})

	t.Run("accepts raw bytes from the driver", func(t *testing.T) {
		var d Date
		assert.NoError(t, d.Scan([]byte("2025-03-14")))
		assert.Equal(t, "2025-03-14", d.String())
	})
}

func TestValidTransactionType(t *testing.T) {
	assert.True(t, ValidTransactionType(TypeIncome))
	assert.True(t, ValidTransactionType(TypeExpense))
	assert.False(t, ValidTransactionType("transfer"))
	assert.False(t, ValidTransactionType("INCOME"))
}
