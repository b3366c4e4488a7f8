package execnodes

import (
	"context"
	"strings"

	"actengine/services/registry"
	"actengine/services/value"
)

// newWeatherNode adapts the teacher's WeatherNode: look up coordinates
// for a declared city, then call the weather client. Params: `city`
// (must match one of `options`), `options` (a List of {city, lat, lon}
// Maps).
func newWeatherNode(deps registry.Deps) registry.Executor {
	return registry.ExecutorFunc(func(in registry.ExecutorInput) registry.NodeResult {
		if deps.WeatherClient == nil {
			return registry.NodeResult{Status: registry.StatusError, Message: "weather node: no weather client configured", ErrorType: "DependencyError"}
		}

		cityV, ok := in.Params.Get("city")
		city, _ := cityV.AsString()
		if !ok || city == "" {
			return registry.NodeResult{Status: registry.StatusError, Message: "weather node missing required param: city", ErrorType: "ValidationError"}
		}

		lat, lon, found := lookupCityOption(in.Params, city)
		if !found {
			return registry.NodeResult{Status: registry.StatusError, Message: "weather node: unsupported city " + city, ErrorType: "ValidationError"}
		}

		temp, err := deps.WeatherClient.GetTemperature(context.Background(), lat, lon)
		if err != nil {
			return registry.NodeResult{Status: registry.StatusError, Message: "weather lookup failed: " + err.Error(), ErrorType: "ExternalServiceError"}
		}

		result := value.NewMap()
		result.Set("temperature", value.Float(temp))
		result.Set("location", value.String(city))
		return registry.NodeResult{Status: registry.StatusSuccess, Result: result}
	})
}

// lookupCityOption scans an `options` param (List of Maps with
// city/lat/lon) for a case-insensitive match against city, mirroring
// the teacher's CityOption lookup shared by the weather and flood nodes.
func lookupCityOption(params value.Value, city string) (lat, lon float64, found bool) {
	optionsV, ok := params.Get("options")
	if !ok {
		return 0, 0, false
	}
	options, ok := optionsV.AsList()
	if !ok {
		return 0, 0, false
	}
	for _, opt := range options {
		nameV, _ := opt.Get("city")
		name, _ := nameV.AsString()
		if !strings.EqualFold(name, city) {
			continue
		}
		latV, _ := opt.Get("lat")
		lonV, _ := opt.Get("lon")
		lat, _ = latV.AsFloat()
		lon, _ = lonV.AsFloat()
		return lat, lon, true
	}
	return 0, 0, false
}
