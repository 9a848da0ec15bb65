package middleware

import "net/http"

// Chain wraps h with the given middleware so they execute in the order
// provided, first to last.
func Chain(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
