package main

import (
	"log"
	"os"

	"github.com/go-yaml/yaml"

	"github.com/launchpadder/launchpadder/core"
)

type Config struct {
	Server       Server      `yaml:"server"`
	LaunchPadder core.Config `yaml:"launchpadder"`
}

type Server struct {
	Dsn            string `yaml:"dsn"`
	RedisAddr      string `yaml:"redisAddr"`
	RedisDB        int    `yaml:"redisDB"`
	MemcachedAddr  string `yaml:"memcachedAddr"`
	EnableTrace    bool   `yaml:"enableTrace"`
	TraceEndpoint  string `yaml:"traceEndpoint"`
	RateLimitStore string `yaml:"rateLimitStore"`
}

// Load loads config from given path
func (c *Config) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		log.Fatal("failed to open configuration file:", err)
		return err
	}
	defer f.Close()

	err = yaml.NewDecoder(f).Decode(&c)
	if err != nil {
		log.Fatal("failed to load configuration file:", err)
		return err
	}

	return nil
}
