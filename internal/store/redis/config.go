package redis

import (
	"fmt"
	"strconv"
)

type Config struct {
	Address   string
	Password  string
	DB        string
	PoolSize  string
	KeyPrefix string
}

func (c *Config) Validate() error {
	if c.Address == "" {
		c.Address = "localhost:6379"
	}

	if c.DB == "" {
		c.DB = "0"
	}
	if db, err := strconv.Atoi(c.DB); err != nil || db < 0 || db > 15 {
		return fmt.Errorf("redis db must be a number between 0 and 15")
	}

	if c.PoolSize == "" {
		c.PoolSize = "10"
	}
	if poolSize, err := strconv.Atoi(c.PoolSize); err != nil || poolSize < 1 {
		return fmt.Errorf("redis pool size must be a positive number")
	}

	if c.KeyPrefix == "" {
		c.KeyPrefix = "lyriccache:"
	}

	return nil
}

func (c *Config) GetType() string {
	return "redis"
}

func (c *Config) dbNumber() int {
	db, _ := strconv.Atoi(c.DB)
	return db
}

func (c *Config) poolSize() int {
	size, _ := strconv.Atoi(c.PoolSize)
	return size
}
