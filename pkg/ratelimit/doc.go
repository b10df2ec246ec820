// Package ratelimit paces requests to the external sources.
//
// Rate wraps golang.org/x/time/rate and paces both HTTP clients: the
// hydration client (requests per minute plus a burst) and the trends client,
// where one term costs several calls. Unlimited is for tests and local servers.
//
//	lim := ratelimit.PerMinute(60, 1)
//	if err := lim.Wait(ctx); err != nil {
//	    return err
//	}
package ratelimit
