package core

import "time"

// Site is the instance identity shared with services
type Site struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	BaseURL     string `yaml:"baseUrl" json:"base_url"`
	AdminEmail  string `yaml:"adminEmail" json:"admin_email"`
}

// AuthConfig carries token issuance settings
type AuthConfig struct {
	JWTSecret string `yaml:"jwtSecret"`
}

// RewriterConfig configures the LLM rewriting backend
type RewriterConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Endpoint     string `yaml:"endpoint"`
	Model        string `yaml:"model"`
	APIKey       string `yaml:"apiKey"`
	SystemPrompt string `yaml:"systemPrompt"`
}

// MetadataConfig configures the page metadata fetcher
type MetadataConfig struct {
	Timeout  time.Duration `yaml:"timeout"`
	Retries  int           `yaml:"retries"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// BadgeConfig carries the instance badge signing keypair. The private key
// is a hex secp256k1 scalar, the public key its compressed hex form.
type BadgeConfig struct {
	SigningKey string `yaml:"signingKey"`
	PublicKey  string `yaml:"publicKey"`
}

// FederationConfig lists the locally configured directories
type FederationConfig struct {
	Directories   []DirectoryDescriptor `yaml:"directories"`
	CaptchaSecret string                `yaml:"captchaSecret"`
}

// Config is the service-facing part of the server configuration
type Config struct {
	Site       Site             `yaml:"site"`
	Auth       AuthConfig       `yaml:"auth"`
	Rewriter   RewriterConfig   `yaml:"rewriter"`
	Metadata   MetadataConfig   `yaml:"metadata"`
	Badge      BadgeConfig      `yaml:"badge"`
	Federation FederationConfig `yaml:"federation"`
}
