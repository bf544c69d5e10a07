// Package httputil provides the HTTP plumbing shared by the documentation
// server: JSON responses, request parsing and middleware.
//
// # Response Helpers
//
//	httputil.WriteJSON(w, http.StatusOK, entities)
//	httputil.WriteNotFoundError(w, "no page named "+file)
//	httputil.WriteContent(w, r, page.ContentType, page.Content)
//
// # Middleware
//
//	handler := httputil.Chain(
//		httputil.RequestIDMiddleware(logger),
//		httputil.LoggingMiddleware,
//		httputil.RecoveryMiddleware,
//	)(router)
package httputil
