package execnodes

import (
	"context"

	"actengine/services/registry"
	"actengine/services/value"
)

// newFloodNode adapts the teacher's FloodNode, following the same
// city-lookup-then-call shape as the weather node but against the
// flood client.
func newFloodNode(deps registry.Deps) registry.Executor {
	return registry.ExecutorFunc(func(in registry.ExecutorInput) registry.NodeResult {
		if deps.FloodClient == nil {
			return registry.NodeResult{Status: registry.StatusError, Message: "flood node: no flood client configured", ErrorType: "DependencyError"}
		}

		cityV, ok := in.Params.Get("city")
		city, _ := cityV.AsString()
		if !ok || city == "" {
			return registry.NodeResult{Status: registry.StatusError, Message: "flood node missing required param: city", ErrorType: "ValidationError"}
		}

		lat, lon, found := lookupCityOption(in.Params, city)
		if !found {
			return registry.NodeResult{Status: registry.StatusError, Message: "flood node: unsupported city " + city, ErrorType: "ValidationError"}
		}

		risk, err := deps.FloodClient.GetFloodRisk(context.Background(), lat, lon)
		if err != nil {
			return registry.NodeResult{Status: registry.StatusError, Message: "flood risk lookup failed: " + err.Error(), ErrorType: "ExternalServiceError"}
		}

		result := value.NewMap()
		result.Set("flood_risk", value.String(risk.RiskLevel))
		result.Set("discharge", value.Float(risk.Discharge))
		result.Set("location", value.String(city))
		return registry.NodeResult{Status: registry.StatusSuccess, Result: result}
	})
}
