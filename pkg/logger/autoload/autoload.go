// Package autoload initialises the global logger from LOG_* environment
// variables when imported. It reads the process environment only; callers
// that load an env file re-run logx.Init afterwards.
package autoload

import (
	"github.com/kelseyhightower/envconfig"
	logx "github.com/tanpawarit/ina-negotiation/pkg/logger"
)

func init() {
	var conf logx.Config
	if err := envconfig.Process("LOG", &conf); err != nil {
		logx.Init()
		return
	}
	logx.Init(conf)
}
