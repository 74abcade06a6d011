package server

import (
	"github.com/raysh454/webscrape/internal/app"
	"github.com/raysh454/webscrape/internal/logging"
)

type Config struct {
	// ListenAddr is the HTTP listen address; empty uses AppConfig.Server.Addr.
	ListenAddr string

	AppConfig *app.Config
	Logger    logging.Logger

	// App, when set, is used instead of building one from AppConfig. The
	// server does not shut an injected App down.
	App *app.Application
}
