package tikapi

import (
	"net/http"

	"golang.org/x/time/rate"
)

// throttledTransport paces outbound requests with a token-bucket limiter
// before delegating to the base transport. Waiting respects the request
// context, so a canceled run does not sit in the limiter queue.
type throttledTransport struct {
	limiter *rate.Limiter
	base    http.RoundTripper
}

func (t *throttledTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.base.RoundTrip(req)
}
