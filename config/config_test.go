package config

import (
	"testing"

	"github.com/matryer/is"
)

func TestDefault(t *testing.T) {
	is := is.New(t)
	cfg := Default()
	is.Equal(cfg.Variant, "duo")
	is.Equal(cfg.Level, 4)
	is.Equal(cfg.Threads, 1)

	t.Setenv("PENTOBI_VARIANT", "classic")
	t.Setenv("PENTOBI_LEVEL", "7")
	t.Setenv("PENTOBI_DEBUG", "1")
	cfg = Default()
	is.Equal(cfg.Variant, "classic")
	is.Equal(cfg.Level, 7)
	is.True(cfg.Debug)
}
