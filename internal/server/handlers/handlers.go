// Package handlers serves the fieldmap API. Every handler reads from or
// mutates the shared fieldmap.Client and publishes state changes to the
// event broker.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/agentstation/fieldmap"
	"github.com/agentstation/fieldmap/internal/server/cache"
	"github.com/agentstation/fieldmap/internal/server/events"
	"github.com/agentstation/fieldmap/internal/server/sse"
	ws "github.com/agentstation/fieldmap/internal/server/websocket"
	"github.com/agentstation/fieldmap/pkg/constants"
	"github.com/agentstation/fieldmap/pkg/errors"
)

// Deps are the collaborators handlers need. Every field but Logger is
// required.
type Deps struct {
	Client   fieldmap.Client
	Cache    *cache.Cache
	Broker   *events.Broker
	Hub      *ws.Hub
	Stream   *sse.Broadcaster
	Upgrader websocket.Upgrader
	Logger   *zerolog.Logger
}

// Handlers carries Deps plus the time serving began.
type Handlers struct {
	Deps
	started time.Time
}

// New returns handlers for d. A nil logger discards output.
func New(d Deps) *Handlers {
	if d.Logger == nil {
		nop := zerolog.Nop()
		d.Logger = &nop
	}
	return &Handlers{Deps: d, started: time.Now()}
}

// decodeJSON reads a JSON body of at most MaxBackupSize bytes into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, constants.MaxBackupSize)
	defer body.Close()
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return errors.WrapParse("json", "request body", err)
	}
	return nil
}
