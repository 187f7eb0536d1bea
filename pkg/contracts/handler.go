package contracts

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

type Handler interface {
	RegisterRoutes(*httprouter.Router)
}

// InternalRoutes is implemented by handlers that expose service-to-service
// routes. Matching requests must carry a valid service signature.
type InternalRoutes interface {
	IsInternal(r *http.Request) bool
}
