package execnodes

import (
	"context"
	"fmt"
	"testing"

	"actengine/pkg/clients/email"
	"actengine/pkg/clients/flood"
	"actengine/pkg/clients/sms"
	"actengine/services/registry"
	"actengine/services/value"
)

type mockWeatherClient struct {
	temp float64
	err  error
}

func (m *mockWeatherClient) GetTemperature(ctx context.Context, lat, lon float64) (float64, error) {
	return m.temp, m.err
}

type mockFloodClient struct {
	result *flood.Result
	err    error
}

func (m *mockFloodClient) GetFloodRisk(ctx context.Context, lat, lon float64) (*flood.Result, error) {
	return m.result, m.err
}

type mockEmailClient struct {
	result *email.Result
	err    error
	sent   email.Message
}

func (m *mockEmailClient) Send(ctx context.Context, msg email.Message) (*email.Result, error) {
	m.sent = msg
	return m.result, m.err
}

type mockSMSClient struct {
	result *sms.Result
	err    error
}

func (m *mockSMSClient) Send(ctx context.Context, msg sms.Message) (*sms.Result, error) {
	return m.result, m.err
}

func cityOptions(city string, lat, lon float64) value.Value {
	opt := value.NewMap()
	opt.Set("city", value.String(city))
	opt.Set("lat", value.Float(lat))
	opt.Set("lon", value.Float(lon))
	return value.List(opt)
}

func TestWeatherNode_Execute(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		exec := newWeatherNode(registry.Deps{WeatherClient: &mockWeatherClient{temp: 28.5}})
		params := value.NewMap()
		params.Set("city", value.String("Sydney"))
		params.Set("options", cityOptions("Sydney", -33.87, 151.21))

		res := exec.Execute(registry.ExecutorInput{Params: params})
		if res.IsError() {
			t.Fatalf("unexpected error: %s", res.Message)
		}
		tempV, _ := res.Result.Get("temperature")
		if f, _ := tempV.AsFloat(); f != 28.5 {
			t.Errorf("temperature = %v, want 28.5", f)
		}
	})

	t.Run("unsupported city", func(t *testing.T) {
		t.Parallel()
		exec := newWeatherNode(registry.Deps{WeatherClient: &mockWeatherClient{}})
		params := value.NewMap()
		params.Set("city", value.String("Tokyo"))
		params.Set("options", cityOptions("Sydney", -33.87, 151.21))

		res := exec.Execute(registry.ExecutorInput{Params: params})
		if !res.IsError() {
			t.Fatal("expected error for unsupported city")
		}
	})

	t.Run("no client configured", func(t *testing.T) {
		t.Parallel()
		exec := newWeatherNode(registry.Deps{})
		res := exec.Execute(registry.ExecutorInput{Params: value.NewMap()})
		if !res.IsError() || res.ErrorType != "DependencyError" {
			t.Fatalf("expected DependencyError, got %+v", res)
		}
	})

	t.Run("client error", func(t *testing.T) {
		t.Parallel()
		exec := newWeatherNode(registry.Deps{WeatherClient: &mockWeatherClient{err: fmt.Errorf("boom")}})
		params := value.NewMap()
		params.Set("city", value.String("Sydney"))
		params.Set("options", cityOptions("Sydney", -33.87, 151.21))

		res := exec.Execute(registry.ExecutorInput{Params: params})
		if !res.IsError() || res.ErrorType != "ExternalServiceError" {
			t.Fatalf("expected ExternalServiceError, got %+v", res)
		}
	})
}

func TestFloodNode_Execute_Success(t *testing.T) {
	t.Parallel()
	exec := newFloodNode(registry.Deps{FloodClient: &mockFloodClient{result: &flood.Result{RiskLevel: "high", Discharge: 210}}})
	params := value.NewMap()
	params.Set("city", value.String("Sydney"))
	params.Set("options", cityOptions("Sydney", -33.87, 151.21))

	res := exec.Execute(registry.ExecutorInput{Params: params})
	if res.IsError() {
		t.Fatalf("unexpected error: %s", res.Message)
	}
	riskV, _ := res.Result.Get("flood_risk")
	if s, _ := riskV.AsString(); s != "high" {
		t.Errorf("flood_risk = %q, want high", s)
	}
}

func TestEmailNode_Execute_ResolvesTemplate(t *testing.T) {
	t.Parallel()
	mockClient := &mockEmailClient{result: &email.Result{DeliveryStatus: "sent", Sent: true}}
	exec := newEmailNode(registry.Deps{EmailClient: mockClient})

	params := value.NewMap()
	params.Set("to", value.String("user@example.com"))
	params.Set("subject", value.String("Alert for {{city}}"))
	params.Set("body", value.String("Temperature in {{city}} is {{temperature}}"))
	params.Set("city", value.String("Sydney"))
	params.Set("temperature", value.Float(28.5))

	res := exec.Execute(registry.ExecutorInput{Params: params})
	if res.IsError() {
		t.Fatalf("unexpected error: %s", res.Message)
	}
	if mockClient.sent.Subject != "Alert for Sydney" {
		t.Errorf("subject = %q, want %q", mockClient.sent.Subject, "Alert for Sydney")
	}
	sentV, _ := res.Result.Get("email_sent")
	if b, _ := sentV.AsBool(); !b {
		t.Error("email_sent = false, want true")
	}
}

func TestSmsNode_Execute_RequiresPhone(t *testing.T) {
	t.Parallel()
	exec := newSmsNode(registry.Deps{SMSClient: &mockSMSClient{result: &sms.Result{DeliveryStatus: "sent", Sent: true}}})

	res := exec.Execute(registry.ExecutorInput{Params: value.NewMap()})
	if !res.IsError() {
		t.Fatal("expected error for missing phone")
	}

	params := value.NewMap()
	params.Set("phone", value.String("+1234567890"))
	params.Set("message", value.String("hi"))
	res2 := exec.Execute(registry.ExecutorInput{Params: params})
	if res2.IsError() {
		t.Fatalf("unexpected error: %s", res2.Message)
	}
}
