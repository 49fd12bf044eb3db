package main

import (
	"strings"
	"sync"

	"clipforge/internal/api"
	"clipforge/internal/config"
)

type commandContext struct {
	addrFlag   *string
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(addrFlag, configFlag *string) *commandContext {
	return &commandContext{
		addrFlag:   addrFlag,
		configFlag: configFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// client resolves the daemon address from the --addr flag or the configured
// API bind and returns an HTTP client for it.
func (c *commandContext) client() (*api.Client, error) {
	if c.addrFlag != nil && strings.TrimSpace(*c.addrFlag) != "" {
		return api.NewClient(*c.addrFlag), nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return api.NewClient(cfg.Paths.APIBind), nil
}
