package logging_test

import (
	"testing"

	"github.com/jrsteele09/go-credential-gateway/internal/logging"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestMaskToken(t *testing.T) {
	require.Equal(t, "****", logging.MaskToken(""))
	require.Equal(t, "****", logging.MaskToken("short"))
	require.Equal(t, "eyJh***", logging.MaskToken("eyJhbGciOiJIUzI1NiJ9.payload.sig"))
}

func TestSetup_Level(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	logging.Setup("debug", false)
	require.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())

	logging.Setup("nonsense", false)
	require.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
