// Package middleware decorates a ports.StepperCache with at-rest protections for the
// personal data held in the registration form.
package middleware

import "github.com/aretw0/stepper/pkg/ports"

// Middleware allows wrapping a StepperCache to add behavior.
type Middleware func(ports.StepperCache) ports.StepperCache

// Chain applies the middlewares so that the first one is the outermost.
func Chain(cache ports.StepperCache, mws ...Middleware) ports.StepperCache {
	for i := len(mws) - 1; i >= 0; i-- {
		cache = mws[i](cache)
	}
	return cache
}
