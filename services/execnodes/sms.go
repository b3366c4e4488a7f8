package execnodes

import (
	"context"

	"actengine/pkg/clients/sms"
	"actengine/services/registry"
	"actengine/services/value"
)

// newSmsNode adapts the teacher's SmsNode.
func newSmsNode(deps registry.Deps) registry.Executor {
	return registry.ExecutorFunc(func(in registry.ExecutorInput) registry.NodeResult {
		if deps.SMSClient == nil {
			return registry.NodeResult{Status: registry.StatusError, Message: "sms node: no sms client configured", ErrorType: "DependencyError"}
		}

		phoneV, ok := in.Params.Get("phone")
		phone, _ := phoneV.AsString()
		if !ok || phone == "" {
			return registry.NodeResult{Status: registry.StatusError, Message: "sms node missing required param: phone", ErrorType: "ValidationError"}
		}

		messageV, _ := in.Params.Get("message")
		message, _ := messageV.AsString()

		sendResult, err := deps.SMSClient.Send(context.Background(), sms.Message{To: phone, Body: message})
		if err != nil {
			return registry.NodeResult{Status: registry.StatusError, Message: "failed to send sms: " + err.Error(), ErrorType: "ExternalServiceError"}
		}

		result := value.NewMap()
		result.Set("delivery_status", value.String(sendResult.DeliveryStatus))
		result.Set("sms_sent", value.Bool(sendResult.Sent))
		return registry.NodeResult{Status: registry.StatusSuccess, Result: result}
	})
}
