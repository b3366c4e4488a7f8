package registry

import (
	"net/http"

	"actengine/pkg/clients/email"
	"actengine/pkg/clients/flood"
	"actengine/pkg/clients/sms"
	"actengine/pkg/clients/weather"
)

// WeatherClient, EmailClient, SMSClient, FloodClient are aliases onto the
// concrete client packages so registry.Deps doesn't force every caller to
// import all four packages just to build a Deps value.
type (
	WeatherClient = weather.Client
	EmailClient   = email.Client
	SMSClient     = sms.Client
	FloodClient   = flood.Client
)

// HTTPDoer is satisfied by *http.Client; used by the generic http_request
// demonstration executor.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}
