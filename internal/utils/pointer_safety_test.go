package utils_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-credential-gateway/internal/utils"
	"github.com/stretchr/testify/require"
)

func TestPointerSafety(t *testing.T) {
	t.Run("nil pointer yields the zero value", func(t *testing.T) {
		var exp *int64
		require.Zero(t, utils.Value(exp))
		require.True(t, utils.Value((*time.Time)(nil)).IsZero())
	})

	t.Run("Ptr copies", func(t *testing.T) {
		expiry := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
		p := utils.Ptr(expiry)
		*p = p.Add(time.Hour)
		require.Equal(t, time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC), expiry)
		require.Equal(t, expiry.Add(time.Hour), utils.Value(p))
	})
}
