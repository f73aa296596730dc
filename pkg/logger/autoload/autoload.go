// Package autoload initializes the global logger from LOG_* variables on import.
package autoload

import (
	configx "github.com/tanpawarit/Chative-Voice-Booking/pkg/config"
	logx "github.com/tanpawarit/Chative-Voice-Booking/pkg/logger"
)

func init() {
	logx.Init(*configx.MustNew[logx.Config]("LOG"))
}
