package contracts

import (
	"context"

	"github.com/julienschmidt/httprouter"
)

type Handler interface {
	RegisterRoutes(*httprouter.Router)
}

// Worker is a background loop owned by the application. Start must not
// block; Stop waits for the loop to exit.
type Worker interface {
	Start(ctx context.Context)
	Stop()
}
