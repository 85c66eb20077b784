package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "wealthgate/pkg/domain-errors"
)

func TestParseOwnerID(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseOwnerID("  ")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects path characters", func(t *testing.T) {
		for _, raw := range []string{"../etc", "a/b", "owner id", "-leading"} {
			_, err := ParseOwnerID(raw)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput), raw)
		}
	})

	t.Run("rejects overlong ids", func(t *testing.T) {
		_, err := ParseOwnerID(strings.Repeat("a", maxIDLength+1))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts listing ids and uuids", func(t *testing.T) {
		id, err := ParseOwnerID("owner_123.v2")
		require.NoError(t, err)
		assert.Equal(t, OwnerID("owner_123.v2"), id)

		u := uuid.New().String()
		id, err = ParseOwnerID(u)
		require.NoError(t, err)
		assert.Equal(t, u, id.String())
	})
}

func TestDeriveOwnerID(t *testing.T) {
	a := DeriveOwnerID("Jane  Doe")
	b := DeriveOwnerID(" jane doe ")
	c := DeriveOwnerID("John Doe")

	assert.Equal(t, a, b, "normalization makes ids stable")
	assert.NotEqual(t, a, c)

	parsed, err := uuid.Parse(a.String())
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(5), parsed.Version())

	_, err = ParseOwnerID(a.String())
	assert.NoError(t, err, "derived ids pass boundary validation")
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "acme owner", NormalizeName("  Acme\tOWNER "))
	assert.Equal(t, "", NormalizeName("   "))
}
