package config

import (
	"os"
	"path"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Public  Public
	Private Private
}

type Public struct {
	ThreadsPerPage        int           `yaml:"threads_per_page"`
	JwtTTL                time.Duration `yaml:"jwt_ttl"`
	LogLevel              string        `yaml:"log_level"`
	LogJSON               bool          `yaml:"log_json"`
	MediaPath             string        `yaml:"media_path"`
	MaxUploadSize         int64         `yaml:"max_upload_size"` // bytes, single attachment or avatar
	AllowedImageMimeTypes []string      `yaml:"allowed_image_mime_types"`
	CorsOrigins           []string      `yaml:"cors_origins"`
	SecureCookies         bool          `yaml:"secure_cookies"`
	PostRatePerSecond     float64       `yaml:"post_rate_per_second"` // per user, posts and threads combined
	PostRateBurst         int           `yaml:"post_rate_burst"`
	ListenAddr            string        `yaml:"listen_addr"`
}

type Pg struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Dbname   string `yaml:"dbname"`
}

type Private struct {
	Pg     Pg     `yaml:"pg"`
	JwtKey string `yaml:"jwt_key"`
}

func (c *Config) JwtKey() string {
	return c.Private.JwtKey
}

func (c *Config) JwtTTL() time.Duration {
	return c.Public.JwtTTL
}

// defaults mirror the values the forum was originally tuned with
func (p *Public) setDefaults() {
	if p.ThreadsPerPage <= 0 {
		p.ThreadsPerPage = 10
	}
	if p.JwtTTL <= 0 {
		p.JwtTTL = 24 * time.Hour
	}
	if p.MediaPath == "" {
		p.MediaPath = "media"
	}
	if p.MaxUploadSize <= 0 {
		p.MaxUploadSize = 5 << 20
	}
	if len(p.AllowedImageMimeTypes) == 0 {
		p.AllowedImageMimeTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}
	}
	if p.PostRatePerSecond <= 0 {
		p.PostRatePerSecond = 1
	}
	if p.PostRateBurst <= 0 {
		p.PostRateBurst = 3
	}
	if p.ListenAddr == "" {
		p.ListenAddr = ":8080"
	}
}

func mustLoadPath(configPath string, output interface{}) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		panic("can't read config file: " + configPath)
	}

	if err := yaml.Unmarshal(configFile, output); err != nil {
		panic("can't unmarshal config file: " + configPath)
	}
}

func MustLoad(configFolder string) *Config {
	var public Public
	mustLoadPath(path.Join(configFolder, "public.yaml"), &public)
	public.setDefaults()

	var private Private
	mustLoadPath(path.Join(configFolder, "private.yaml"), &private)

	return &Config{Public: public, Private: private}
}
