// Package errors provides structured error types for better observability
// and programmatic error handling across the application.
//
// Example usage:
//
//	err := errors.WrapWithContext(
//	    errors.ErrCodeFetch,
//	    "failed to clone upstream repository",
//	    cause,
//	    map[string]any{
//	        "url": spec.URL,
//	        "ref": spec.Ref,
//	    },
//	)
//
// Callers branch on the code rather than the message:
//
//	if errors.IsCode(err, errors.ErrCodeCopy) {
//	    // packaging aborted, nothing was written
//	}
package errors
