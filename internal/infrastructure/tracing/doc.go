/*
Package tracing provides lightweight request tracing for the HTTP API.

Each request gets a span whose trace id comes from the X-Request-ID header
when the caller sends one and is generated otherwise. The id is echoed in
the response so phone-side logs can be correlated with daemon logs.
Finished spans are logged by a background collector; successful requests
log at debug level, client errors at warn and server errors at error.

# Usage

	tracer := tracing.New("glassd", logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	// Manual span creation
	span, ctx := tracer.StartSpan(ctx, "operation")
	defer func() {
		span.Finish()
		tracer.Submit(span)
	}()
*/
package tracing
