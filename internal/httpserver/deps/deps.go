package deps

import (
	"time"

	"github.com/jujucrew/jubot/internal/logger"
	"github.com/jujucrew/jubot/internal/store/jsonfile"
)

type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Version   string
	Commit    string
	BuildDate string
	GoVersion string

	Store *jsonfile.Store // game + suggestion collections

	// GatewayUp reports whether the chat gateway link is live; readyz
	// reflects it.
	GatewayUp func() bool
}
