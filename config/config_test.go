package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestDefaults(t *testing.T) {
	c := Defaults()

	assert.Equal(t, EnvDevelopment, c.Env)
	assert.Equal(t, "8080", c.Port)
	assert.Equal(t, 90*24*time.Hour, c.JWTExpiresIn)
	assert.Equal(t, 100, c.RateLimitMax)
	assert.Equal(t, time.Hour, c.RateLimitWindow)
	assert.Equal(t, "none", c.Storage.Driver)
	assert.Error(t, c.Validate(), "defaults have no secret or database")
}

func TestApplyEnv(t *testing.T) {
	c := Defaults()
	err := c.ApplyEnv(envMap(map[string]string{
		"APP_ENV":               "production",
		"PORT":                  "3000",
		"APP_URL":               "https://natours.example/",
		"TRUSTED_PROXIES":       "10.0.0.0/8, 192.0.2.7",
		"MONGODB_URI":           "mongodb://localhost:27017",
		"JWT_SECRET":            "s3cr3t",
		"JWT_EXPIRES_IN":        "30d",
		"JWT_COOKIE_EXPIRES_IN": "7",
		"EMAIL_PORT":            "587",
		"ALLOWED_ORIGINS":       "http://a.test, ,http://b.test",
		"RATE_LIMIT_WINDOW":     "15m",
		"READ_QUERY_MAX_LIMIT":  "0",
		"STORAGE_DRIVER":        "r2",
		"R2_BUCKET":             "tours",
	}))
	require.NoError(t, err)

	assert.True(t, c.IsProduction())
	assert.Equal(t, "3000", c.Port)
	assert.Equal(t, "https://natours.example", c.PublicURL())
	assert.Equal(t, []string{"10.0.0.0/8", "192.0.2.7"}, c.TrustedProxies)
	assert.Equal(t, 30*24*time.Hour, c.JWTExpiresIn)
	assert.Equal(t, 7*24*time.Hour, c.JWTCookieExpires)
	assert.Equal(t, 587, c.Email.Port)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, c.AllowedOrigins)
	assert.Equal(t, 15*time.Minute, c.RateLimitWindow)
	assert.Equal(t, 0, c.ReadQueryMaxLimit)
	assert.Equal(t, "tours", c.Storage.Bucket)
	assert.NoError(t, c.Validate())
}

func TestApplyEnv_InvalidValues(t *testing.T) {
	tests := map[string]map[string]string{
		"bad expiry":        {"JWT_EXPIRES_IN": "soon"},
		"bad cookie expiry": {"JWT_COOKIE_EXPIRES_IN": "-1"},
		"bad port":          {"EMAIL_PORT": "smtp"},
		"bad window":        {"RATE_LIMIT_WINDOW": "0s"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			c := Defaults()
			assert.Error(t, c.ApplyEnv(envMap(env)))
		})
	}
}

func TestApplyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	content := `
app:
  env: production
  port: 9000
  url: https://tours.example
  trusted_proxies: [172.16.0.0/12]
database:
  uri: mongodb://db:27017
  name: tours
jwt:
  secret: from-file
  expires_in: 12h
rate_limit:
  max: 50
  window: 30m
storage:
  driver: gcs
  bucket: images
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	c := Defaults()
	require.NoError(t, c.ApplyFile(path))

	assert.Equal(t, EnvProduction, c.Env)
	assert.Equal(t, "9000", c.Port)
	assert.Equal(t, "https://tours.example", c.PublicURL())
	assert.Equal(t, []string{"172.16.0.0/12"}, c.TrustedProxies)
	assert.Equal(t, "mongodb://db:27017", c.MongoURI)
	assert.Equal(t, "tours", c.DatabaseName)
	assert.Equal(t, 12*time.Hour, c.JWTExpiresIn)
	assert.Equal(t, 50, c.RateLimitMax)
	assert.Equal(t, 30*time.Minute, c.RateLimitWindow)
	assert.NoError(t, c.Validate())

	// environment wins over the file
	require.NoError(t, c.ApplyEnv(envMap(map[string]string{"JWT_SECRET": "from-env"})))
	assert.Equal(t, "from-env", c.JWTSecret)
}

func TestApplyFile_Missing(t *testing.T) {
	c := Defaults()
	err := c.ApplyFile(filepath.Join(t.TempDir(), "nope.yml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		c := Defaults()
		c.MongoURI = "mongodb://localhost"
		c.JWTSecret = "x"
		return c
	}

	c := base()
	assert.NoError(t, c.Validate())

	c = base()
	c.Env = "staging"
	assert.Error(t, c.Validate())

	c = base()
	c.Storage.Driver = "gcs"
	assert.Error(t, c.Validate(), "gcs without bucket")

	c = base()
	c.Storage.Driver = "ftp"
	assert.Error(t, c.Validate())

	c = base()
	assert.Equal(t, "http://localhost:8080", c.PublicURL())
	c.Env = EnvProduction
	assert.Error(t, c.Validate(), "production needs APP_URL")
	c.AppURL = "https://natours.example"
	assert.NoError(t, c.Validate())

	for _, bad := range []string{"natours.example", "ftp://natours.example", "https://"} {
		c = base()
		c.AppURL = bad
		assert.Error(t, c.Validate(), bad)
	}

	c = base()
	c.TrustedProxies = []string{"10.0.0.1", "10.1.0.0/16"}
	assert.NoError(t, c.Validate())
	c.TrustedProxies = []string{"proxy.local"}
	assert.Error(t, c.Validate())

	c = base()
	c.RateLimitMax = 0
	assert.Error(t, c.Validate(), "a zero quota would reject every request")
}

func TestParseDuration(t *testing.T) {
	d, err := ParseDuration("90d")
	require.NoError(t, err)
	assert.Equal(t, 90*24*time.Hour, d)

	d, err = ParseDuration("1h30m")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, d)

	_, err = ParseDuration("xd")
	assert.Error(t, err)
	_, err = ParseDuration("-5m")
	assert.Error(t, err)
}
