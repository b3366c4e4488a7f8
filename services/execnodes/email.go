package execnodes

import (
	"context"
	"strings"

	"actengine/pkg/clients/email"
	"actengine/services/registry"
	"actengine/services/value"
)

// newEmailNode adapts the teacher's EmailNode: resolve {{var}} template
// placeholders against its own params (placeholder resolution against
// upstream results has already happened by the time the executor runs;
// this is a second, template-only substitution pass over the literal
// params map, matching the source node's own templating step) and send
// via the email client.
func newEmailNode(deps registry.Deps) registry.Executor {
	return registry.ExecutorFunc(func(in registry.ExecutorInput) registry.NodeResult {
		if deps.EmailClient == nil {
			return registry.NodeResult{Status: registry.StatusError, Message: "email node: no email client configured", ErrorType: "DependencyError"}
		}

		toV, ok := in.Params.Get("to")
		to, _ := toV.AsString()
		if !ok || to == "" {
			return registry.NodeResult{Status: registry.StatusError, Message: "email node missing required param: to", ErrorType: "ValidationError"}
		}

		from := "workflow-alerts@example.com"
		if fromV, ok := in.Params.Get("from"); ok {
			if s, ok := fromV.AsString(); ok && s != "" {
				from = s
			}
		}

		vars := templateVars(in.Params)
		subjectV, _ := in.Params.Get("subject")
		subject, _ := subjectV.AsString()
		bodyV, _ := in.Params.Get("body")
		body, _ := bodyV.AsString()

		msg := email.Message{
			To:      to,
			From:    from,
			Subject: resolveTemplateVars(subject, vars),
			Body:    resolveTemplateVars(body, vars),
		}

		sendResult, err := deps.EmailClient.Send(context.Background(), msg)
		if err != nil {
			return registry.NodeResult{Status: registry.StatusError, Message: "failed to send email: " + err.Error(), ErrorType: "ExternalServiceError"}
		}

		draft := value.NewMap()
		draft.Set("to", value.String(msg.To))
		draft.Set("from", value.String(msg.From))
		draft.Set("subject", value.String(msg.Subject))
		draft.Set("body", value.String(msg.Body))

		result := value.NewMap()
		result.Set("email_draft", draft)
		result.Set("delivery_status", value.String(sendResult.DeliveryStatus))
		result.Set("email_sent", value.Bool(sendResult.Sent))
		return registry.NodeResult{Status: registry.StatusSuccess, Result: result}
	})
}

// templateVars flattens a node's string-valued params into a
// placeholder-name -> value map for resolveTemplateVars.
func templateVars(params value.Value) map[string]string {
	vars := make(map[string]string, params.Len())
	for _, k := range params.Keys() {
		v, _ := params.Get(k)
		vars[k] = v.String()
	}
	return vars
}

// resolveTemplateVars replaces {{key}} placeholders with values from
// vars, mirroring the teacher's resolveTemplate helper.
func resolveTemplateVars(tmpl string, vars map[string]string) string {
	result := tmpl
	for key, val := range vars {
		result = strings.ReplaceAll(result, "{{"+key+"}}", val)
	}
	return result
}
