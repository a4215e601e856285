package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fictlabs/fict/pkg/config"
)

type testConfig struct {
	Name    string        `env:"TEST_CFG_NAME,required"`
	Port    int           `env:"TEST_CFG_PORT" envDefault:"8080"`
	Timeout time.Duration `env:"TEST_CFG_TIMEOUT" envDefault:"5s"`
}

func TestLoad(t *testing.T) {
	t.Run("populates from environment", func(t *testing.T) {
		t.Setenv("TEST_CFG_NAME", "fict")
		t.Setenv("TEST_CFG_PORT", "9090")

		var cfg testConfig
		require.NoError(t, config.Load(&cfg))

		assert.Equal(t, "fict", cfg.Name)
		assert.Equal(t, 9090, cfg.Port)
		assert.Equal(t, 5*time.Second, cfg.Timeout)
	})

	t.Run("missing required variable", func(t *testing.T) {
		type strictConfig struct {
			Secret string `env:"TEST_CFG_ABSENT,required"`
		}

		var cfg strictConfig
		err := config.Load(&cfg)
		require.ErrorIs(t, err, config.ErrParsingConfig)
	})

	t.Run("nil pointer", func(t *testing.T) {
		err := config.Load[testConfig](nil)
		require.ErrorIs(t, err, config.ErrNilPointer)
	})
}

func TestMustLoad(t *testing.T) {
	t.Run("panics on failure", func(t *testing.T) {
		type strictConfig struct {
			Secret string `env:"TEST_CFG_ABSENT_TOO,required"`
		}

		assert.Panics(t, func() {
			var cfg strictConfig
			config.MustLoad(&cfg)
		})
	})
}
