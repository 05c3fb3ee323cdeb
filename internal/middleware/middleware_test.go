package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"connectrpc.com/connect"

	"github.com/mmynk/forkthebill/internal/metrics"
	"github.com/mmynk/forkthebill/pkg/api"
	"github.com/mmynk/forkthebill/pkg/api/apiconnect"
)

type stubHandler struct {
	apiconnect.UnimplementedExpenseServiceHandler
}

func (stubHandler) GetExpense(_ context.Context, req *connect.Request[api.GetExpenseRequest]) (*connect.Response[api.ExpenseResponse], error) {
	if req.Msg.Slug == "missing" {
		return nil, connect.NewError(connect.CodeNotFound, errors.New("expense not found"))
	}
	return connect.NewResponse(&api.ExpenseResponse{Expense: &api.Expense{Slug: req.Msg.Slug}}), nil
}

func TestInterceptors(t *testing.T) {
	m := metrics.New()
	path, handler := apiconnect.NewExpenseServiceHandler(stubHandler{},
		connect.WithInterceptors(LoggingInterceptor(), MetricsInterceptor(m)),
	)
	mux := http.NewServeMux()
	mux.Handle(path, handler)
	mux.Handle("/metrics", m.Handler())
	server := httptest.NewServer(mux)
	defer server.Close()

	client := apiconnect.NewExpenseServiceClient(server.Client(), server.URL)
	ctx := context.Background()

	if _, err := client.GetExpense(ctx, connect.NewRequest(&api.GetExpenseRequest{Slug: "abc-def-ghi"})); err != nil {
		t.Fatalf("GetExpense failed: %v", err)
	}
	if _, err := client.GetExpense(ctx, connect.NewRequest(&api.GetExpenseRequest{Slug: "missing"})); connect.CodeOf(err) != connect.CodeNotFound {
		t.Fatalf("expected not_found, got %v", err)
	}

	resp, err := http.Get(server.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics failed: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	for _, want := range []string{
		`forkthebill_rpc_requests_total{code="ok",procedure="/forkthebill.v1.ExpenseService/GetExpense"} 1`,
		`forkthebill_rpc_requests_total{code="not_found",procedure="/forkthebill.v1.ExpenseService/GetExpense"} 1`,
		`forkthebill_rpc_duration_seconds_count{procedure="/forkthebill.v1.ExpenseService/GetExpense"} 2`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestLoggingInterceptor_SlugAndLevel(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })

	path, handler := apiconnect.NewExpenseServiceHandler(stubHandler{},
		connect.WithInterceptors(LoggingInterceptor()),
	)
	mux := http.NewServeMux()
	mux.Handle(path, handler)
	server := httptest.NewServer(mux)
	defer server.Close()

	client := apiconnect.NewExpenseServiceClient(server.Client(), server.URL)
	ctx := context.Background()
	if _, err := client.GetExpense(ctx, connect.NewRequest(&api.GetExpenseRequest{Slug: "bek-oru-tima"})); err != nil {
		t.Fatalf("GetExpense failed: %v", err)
	}
	_, _ = client.GetExpense(ctx, connect.NewRequest(&api.GetExpenseRequest{Slug: "missing"}))
	_, _ = client.ClaimItem(ctx, connect.NewRequest(&api.ClaimRequest{Slug: "abc"}))

	out := buf.String()
	for _, want := range []string{
		`"msg":"RPC ok"`,
		`"slug":"bek-oru-tima"`,
		`"level":"WARN","msg":"RPC rejected"`,
		`"slug":"missing"`,
		`"code":"not_found"`,
		`"code":"unimplemented"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %s\n%s", want, out)
		}
	}
	if strings.Contains(out, `"level":"ERROR"`) {
		t.Errorf("client errors should not log at ERROR:\n%s", out)
	}
}
