package apiconnect

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"connectrpc.com/connect"

	"github.com/mmynk/forkthebill/pkg/api"
)

type echoHandler struct {
	UnimplementedExpenseServiceHandler
}

func (echoHandler) GetExpense(_ context.Context, req *connect.Request[api.GetExpenseRequest]) (*connect.Response[api.ExpenseResponse], error) {
	return connect.NewResponse(&api.ExpenseResponse{Expense: &api.Expense{Slug: req.Msg.Slug, Subtotal: "1.00"}}), nil
}

func newTestClient(t *testing.T) ExpenseServiceClient {
	t.Helper()
	mux := http.NewServeMux()
	path, handler := NewExpenseServiceHandler(echoHandler{})
	mux.Handle(path, handler)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return NewExpenseServiceClient(server.Client(), server.URL)
}

func TestExpenseService_RoundTrip(t *testing.T) {
	client := newTestClient(t)

	resp, err := client.GetExpense(context.Background(), connect.NewRequest(&api.GetExpenseRequest{Slug: "bek-oru-tima"}))
	if err != nil {
		t.Fatalf("GetExpense failed: %v", err)
	}
	if resp.Msg.Expense.Slug != "bek-oru-tima" || resp.Msg.Expense.Subtotal != "1.00" {
		t.Errorf("unexpected response: %+v", resp.Msg.Expense)
	}
}

func TestExpenseService_Unimplemented(t *testing.T) {
	client := newTestClient(t)

	_, err := client.ClaimItem(context.Background(), connect.NewRequest(&api.ClaimRequest{Slug: "x"}))
	var connectErr *connect.Error
	if !errors.As(err, &connectErr) {
		t.Fatalf("expected connect error, got %v", err)
	}
	if connectErr.Code() != connect.CodeUnimplemented {
		t.Errorf("expected CodeUnimplemented, got %v", connectErr.Code())
	}
}

func TestExpenseService_ReadLimit(t *testing.T) {
	_, handler := NewExpenseServiceHandler(echoHandler{})

	post := func(imageSize int) string {
		t.Helper()
		body, err := json.Marshal(&api.CreateExpenseFromImageRequest{PayerName: "Alice", Image: make([]byte, imageSize)})
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		req := httptest.NewRequest(http.MethodPost, ExpenseServiceCreateExpenseFromImageProcedure, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Body.String()
	}

	if got := post(MaxImageBytes + (1 << 20)); !strings.Contains(got, `"resource_exhausted"`) {
		t.Errorf("oversized image: expected resource_exhausted, got %.200s", got)
	}
	// a full-size image still reaches the handler
	if got := post(MaxImageBytes); !strings.Contains(got, `"unimplemented"`) {
		t.Errorf("full-size image: expected unimplemented, got %.200s", got)
	}
}

func TestExpenseService_UnknownProcedure(t *testing.T) {
	_, handler := NewExpenseServiceHandler(echoHandler{})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/forkthebill.v1.ExpenseService/DeleteExpense", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestCodec(t *testing.T) {
	var c Codec
	if c.Name() != "json" {
		t.Errorf("Name() = %q", c.Name())
	}

	data, err := c.Marshal(&api.ClaimRequest{Slug: "s", ItemID: "i", PersonID: "p"})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `{"slug":"s","itemId":"i","personId":"p"}` {
		t.Errorf("unexpected JSON: %s", data)
	}

	var empty api.GetExpenseRequest
	if err := c.Unmarshal(nil, &empty); err != nil {
		t.Errorf("empty body should decode: %v", err)
	}
	if err := c.Unmarshal([]byte("{"), &empty); err == nil {
		t.Error("expected error for malformed JSON")
	}
}
