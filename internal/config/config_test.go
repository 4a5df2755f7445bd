package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMustLoad(t *testing.T) {
	cfg := MustLoad("./test_data")

	assert.Equal(t, "localhost", cfg.Private.Pg.Host)
	assert.Equal(t, 5432, cfg.Private.Pg.Port)
	assert.Equal(t, "forum", cfg.Private.Pg.User)
	assert.Equal(t, "pass", cfg.Private.Pg.Password)
	assert.Equal(t, "forum", cfg.Private.Pg.Dbname)
	assert.Equal(t, "123", cfg.JwtKey())
	assert.Equal(t, time.Duration(100), cfg.JwtTTL())

	assert.Equal(t, 20, cfg.Public.ThreadsPerPage)
	assert.Equal(t, "debug", cfg.Public.LogLevel)
	assert.Equal(t, []string{"http://localhost:8081"}, cfg.Public.CorsOrigins)
	assert.Equal(t, 0.5, cfg.Public.PostRatePerSecond)
}

func TestMustLoadDefaults(t *testing.T) {
	cfg := MustLoad("./test_data")

	assert.Equal(t, "media", cfg.Public.MediaPath)
	assert.Equal(t, int64(5<<20), cfg.Public.MaxUploadSize)
	assert.Contains(t, cfg.Public.AllowedImageMimeTypes, "image/png")
	assert.Equal(t, 3, cfg.Public.PostRateBurst)
	assert.Equal(t, ":8080", cfg.Public.ListenAddr)
}

func TestMustLoadMissingFolder(t *testing.T) {
	assert.Panics(t, func() { MustLoad("./does_not_exist") })
}
