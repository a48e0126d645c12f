package contracts

import "github.com/julienschmidt/httprouter"

type Handler interface {
	RegisterRoutes(*httprouter.Router)
}

// PublicHandler is implemented by handlers that also serve anonymous callers.
// Public routes still pass through every middleware except the token check.
type PublicHandler interface {
	RegisterPublicRoutes(*httprouter.Router)
}
