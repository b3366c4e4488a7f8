package execnodes

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"actengine/services/registry"
	"actengine/services/value"
)

// newHTTPRequestNode is a generic demonstration executor: it issues one
// HTTP request per node invocation using whatever deps.HTTPClient the
// caller wired in (typically *http.Client), and passes the response
// body through as result.data.body. Params: `url`, optional `method`
// (defaults GET).
func newHTTPRequestNode(deps registry.Deps) registry.Executor {
	return registry.ExecutorFunc(func(in registry.ExecutorInput) registry.NodeResult {
		if deps.HTTPClient == nil {
			return registry.NodeResult{Status: registry.StatusError, Message: "http_request node: no HTTP client configured", ErrorType: "DependencyError"}
		}

		urlV, ok := in.Params.Get("url")
		url, _ := urlV.AsString()
		if !ok || url == "" {
			return registry.NodeResult{Status: registry.StatusError, Message: "http_request node missing required param: url", ErrorType: "ValidationError"}
		}
		method := http.MethodGet
		if methodV, ok := in.Params.Get("method"); ok {
			if s, ok := methodV.AsString(); ok && s != "" {
				method = s
			}
		}

		req, err := http.NewRequestWithContext(context.Background(), method, url, nil)
		if err != nil {
			return registry.NodeResult{Status: registry.StatusError, Message: "http_request node: " + err.Error(), ErrorType: "ValidationError"}
		}
		resp, err := deps.HTTPClient.Do(req)
		if err != nil {
			return registry.NodeResult{Status: registry.StatusError, Message: "http_request node: " + err.Error(), ErrorType: "ExternalServiceError"}
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return registry.NodeResult{Status: registry.StatusError, Message: "http_request node: reading response: " + err.Error(), ErrorType: "ExternalServiceError"}
		}

		data := value.NewMap()
		data.Set("status_code", value.Int(int64(resp.StatusCode)))
		data.Set("body", value.String(string(body)))
		return registry.NodeResult{Status: registry.StatusSuccess, Data: data}
	})
}

// newLLMNode is a stub demonstrating the registry's plugin surface for
// an AI node type: it doesn't call any provider, it just echoes the
// `prompt` param back as a canned response under result.data.result_text
// (the field the agent's preferPayload step specifically looks for).
func newLLMNode(registry.Deps) registry.Executor {
	return registry.ExecutorFunc(func(in registry.ExecutorInput) registry.NodeResult {
		promptV, ok := in.Params.Get("prompt")
		prompt, _ := promptV.AsString()
		if !ok || prompt == "" {
			return registry.NodeResult{Status: registry.StatusError, Message: "llm node missing required param: prompt", ErrorType: "ValidationError"}
		}

		data := value.NewMap()
		data.Set("result_text", value.String(fmt.Sprintf("[stub llm response to: %s]", prompt)))
		return registry.NodeResult{Status: registry.StatusSuccess, Data: data}
	})
}

// newNeonNode is a stub demonstrating the §4.7 SQL parameter convention
// without a real Postgres round-trip: it echoes operation/query/
// parameters back so a workflow exercising the neon/execute_query/POST
// special case can observe the assembled parameter list end to end.
func newNeonNode(registry.Deps) registry.Executor {
	return registry.ExecutorFunc(func(in registry.ExecutorInput) registry.NodeResult {
		opV, _ := in.Params.Get("operation")
		op, _ := opV.AsString()
		if op == "" {
			op = "execute_query"
		}

		data := value.NewMap()
		data.Set("operation", value.String(op))
		if q, ok := in.Params.Get("query"); ok {
			data.Set("query", q)
		}
		if params, ok := in.Params.Get("parameters"); ok {
			data.Set("parameters", params)
		}
		data.Set("rows_affected", value.Int(0))
		return registry.NodeResult{Status: registry.StatusSuccess, Data: data}
	})
}
