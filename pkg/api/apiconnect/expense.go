// Package apiconnect wires the api messages to Connect handlers and clients.
package apiconnect

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/forkthebill/pkg/api"
)

// ExpenseServiceName is the fully-qualified name of the ExpenseService service.
const ExpenseServiceName = "forkthebill.v1.ExpenseService"

const (
	// MaxImageBytes is the largest bill image accepted on any transport.
	MaxImageBytes = 10 << 20

	// MaxReadBytes caps a request message: a base64 image of MaxImageBytes plus room for the other fields.
	MaxReadBytes = (MaxImageBytes+2)/3*4 + 64<<10
)

// Procedure paths of the ExpenseService.
const (
	ExpenseServiceCreateExpenseProcedure          = "/forkthebill.v1.ExpenseService/CreateExpense"
	ExpenseServiceCreateExpenseFromImageProcedure = "/forkthebill.v1.ExpenseService/CreateExpenseFromImage"
	ExpenseServiceGetExpenseProcedure             = "/forkthebill.v1.ExpenseService/GetExpense"
	ExpenseServiceUpdateExpenseProcedure          = "/forkthebill.v1.ExpenseService/UpdateExpense"
	ExpenseServiceClaimItemProcedure              = "/forkthebill.v1.ExpenseService/ClaimItem"
	ExpenseServiceUnclaimItemProcedure            = "/forkthebill.v1.ExpenseService/UnclaimItem"
	ExpenseServiceAddPersonProcedure              = "/forkthebill.v1.ExpenseService/AddPerson"
	ExpenseServiceMarkPersonFinishedProcedure     = "/forkthebill.v1.ExpenseService/MarkPersonFinished"
	ExpenseServiceMarkPersonPendingProcedure      = "/forkthebill.v1.ExpenseService/MarkPersonPending"
)

// ExpenseServiceHandler is implemented by the server side of the ExpenseService.
type ExpenseServiceHandler interface {
	CreateExpense(context.Context, *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.ExpenseResponse], error)
	CreateExpenseFromImage(context.Context, *connect.Request[api.CreateExpenseFromImageRequest]) (*connect.Response[api.ExpenseResponse], error)
	GetExpense(context.Context, *connect.Request[api.GetExpenseRequest]) (*connect.Response[api.ExpenseResponse], error)
	UpdateExpense(context.Context, *connect.Request[api.UpdateExpenseRequest]) (*connect.Response[api.ExpenseResponse], error)
	ClaimItem(context.Context, *connect.Request[api.ClaimRequest]) (*connect.Response[api.ExpenseResponse], error)
	UnclaimItem(context.Context, *connect.Request[api.ClaimRequest]) (*connect.Response[api.ExpenseResponse], error)
	AddPerson(context.Context, *connect.Request[api.AddPersonRequest]) (*connect.Response[api.ExpenseResponse], error)
	MarkPersonFinished(context.Context, *connect.Request[api.PersonStatusRequest]) (*connect.Response[api.ExpenseResponse], error)
	MarkPersonPending(context.Context, *connect.Request[api.PersonStatusRequest]) (*connect.Response[api.ExpenseResponse], error)
}

// NewExpenseServiceHandler builds an HTTP handler for every ExpenseService procedure.
// It returns the path prefix to mount it on. Requests larger than MaxReadBytes are
// rejected with CodeResourceExhausted unless opts set another limit.
func NewExpenseServiceHandler(svc ExpenseServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{
		connect.WithCodec(Codec{}),
		connect.WithReadMaxBytes(MaxReadBytes),
	}, opts...)

	handlers := map[string]http.Handler{
		ExpenseServiceCreateExpenseProcedure:          connect.NewUnaryHandler(ExpenseServiceCreateExpenseProcedure, svc.CreateExpense, opts...),
		ExpenseServiceCreateExpenseFromImageProcedure: connect.NewUnaryHandler(ExpenseServiceCreateExpenseFromImageProcedure, svc.CreateExpenseFromImage, opts...),
		ExpenseServiceGetExpenseProcedure:             connect.NewUnaryHandler(ExpenseServiceGetExpenseProcedure, svc.GetExpense, opts...),
		ExpenseServiceUpdateExpenseProcedure:          connect.NewUnaryHandler(ExpenseServiceUpdateExpenseProcedure, svc.UpdateExpense, opts...),
		ExpenseServiceClaimItemProcedure:              connect.NewUnaryHandler(ExpenseServiceClaimItemProcedure, svc.ClaimItem, opts...),
		ExpenseServiceUnclaimItemProcedure:            connect.NewUnaryHandler(ExpenseServiceUnclaimItemProcedure, svc.UnclaimItem, opts...),
		ExpenseServiceAddPersonProcedure:              connect.NewUnaryHandler(ExpenseServiceAddPersonProcedure, svc.AddPerson, opts...),
		ExpenseServiceMarkPersonFinishedProcedure:     connect.NewUnaryHandler(ExpenseServiceMarkPersonFinishedProcedure, svc.MarkPersonFinished, opts...),
		ExpenseServiceMarkPersonPendingProcedure:      connect.NewUnaryHandler(ExpenseServiceMarkPersonPendingProcedure, svc.MarkPersonPending, opts...),
	}

	return "/" + ExpenseServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h, ok := handlers[r.URL.Path]; ok {
			h.ServeHTTP(w, r)
			return
		}
		http.NotFound(w, r)
	})
}

// ExpenseServiceClient is a client for the ExpenseService.
type ExpenseServiceClient interface {
	CreateExpense(context.Context, *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.ExpenseResponse], error)
	CreateExpenseFromImage(context.Context, *connect.Request[api.CreateExpenseFromImageRequest]) (*connect.Response[api.ExpenseResponse], error)
	GetExpense(context.Context, *connect.Request[api.GetExpenseRequest]) (*connect.Response[api.ExpenseResponse], error)
	UpdateExpense(context.Context, *connect.Request[api.UpdateExpenseRequest]) (*connect.Response[api.ExpenseResponse], error)
	ClaimItem(context.Context, *connect.Request[api.ClaimRequest]) (*connect.Response[api.ExpenseResponse], error)
	UnclaimItem(context.Context, *connect.Request[api.ClaimRequest]) (*connect.Response[api.ExpenseResponse], error)
	AddPerson(context.Context, *connect.Request[api.AddPersonRequest]) (*connect.Response[api.ExpenseResponse], error)
	MarkPersonFinished(context.Context, *connect.Request[api.PersonStatusRequest]) (*connect.Response[api.ExpenseResponse], error)
	MarkPersonPending(context.Context, *connect.Request[api.PersonStatusRequest]) (*connect.Response[api.ExpenseResponse], error)
}

// NewExpenseServiceClient constructs a client for the ExpenseService at baseURL,
// e.g. "http://localhost:8080".
func NewExpenseServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) ExpenseServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(Codec{})}, opts...)

	return &expenseServiceClient{
		createExpense:          connect.NewClient[api.CreateExpenseRequest, api.ExpenseResponse](httpClient, baseURL+ExpenseServiceCreateExpenseProcedure, opts...),
		createExpenseFromImage: connect.NewClient[api.CreateExpenseFromImageRequest, api.ExpenseResponse](httpClient, baseURL+ExpenseServiceCreateExpenseFromImageProcedure, opts...),
		getExpense:             connect.NewClient[api.GetExpenseRequest, api.ExpenseResponse](httpClient, baseURL+ExpenseServiceGetExpenseProcedure, opts...),
		updateExpense:          connect.NewClient[api.UpdateExpenseRequest, api.ExpenseResponse](httpClient, baseURL+ExpenseServiceUpdateExpenseProcedure, opts...),
		claimItem:              connect.NewClient[api.ClaimRequest, api.ExpenseResponse](httpClient, baseURL+ExpenseServiceClaimItemProcedure, opts...),
		unclaimItem:            connect.NewClient[api.ClaimRequest, api.ExpenseResponse](httpClient, baseURL+ExpenseServiceUnclaimItemProcedure, opts...),
		addPerson:              connect.NewClient[api.AddPersonRequest, api.ExpenseResponse](httpClient, baseURL+ExpenseServiceAddPersonProcedure, opts...),
		markPersonFinished:     connect.NewClient[api.PersonStatusRequest, api.ExpenseResponse](httpClient, baseURL+ExpenseServiceMarkPersonFinishedProcedure, opts...),
		markPersonPending:      connect.NewClient[api.PersonStatusRequest, api.ExpenseResponse](httpClient, baseURL+ExpenseServiceMarkPersonPendingProcedure, opts...),
	}
}

type expenseServiceClient struct {
	createExpense          *connect.Client[api.CreateExpenseRequest, api.ExpenseResponse]
	createExpenseFromImage *connect.Client[api.CreateExpenseFromImageRequest, api.ExpenseResponse]
	getExpense             *connect.Client[api.GetExpenseRequest, api.ExpenseResponse]
	updateExpense          *connect.Client[api.UpdateExpenseRequest, api.ExpenseResponse]
	claimItem              *connect.Client[api.ClaimRequest, api.ExpenseResponse]
	unclaimItem            *connect.Client[api.ClaimRequest, api.ExpenseResponse]
	addPerson              *connect.Client[api.AddPersonRequest, api.ExpenseResponse]
	markPersonFinished     *connect.Client[api.PersonStatusRequest, api.ExpenseResponse]
	markPersonPending      *connect.Client[api.PersonStatusRequest, api.ExpenseResponse]
}

func (c *expenseServiceClient) CreateExpense(ctx context.Context, req *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.ExpenseResponse], error) {
	return c.createExpense.CallUnary(ctx, req)
}

func (c *expenseServiceClient) CreateExpenseFromImage(ctx context.Context, req *connect.Request[api.CreateExpenseFromImageRequest]) (*connect.Response[api.ExpenseResponse], error) {
	return c.createExpenseFromImage.CallUnary(ctx, req)
}

func (c *expenseServiceClient) GetExpense(ctx context.Context, req *connect.Request[api.GetExpenseRequest]) (*connect.Response[api.ExpenseResponse], error) {
	return c.getExpense.CallUnary(ctx, req)
}

func (c *expenseServiceClient) UpdateExpense(ctx context.Context, req *connect.Request[api.UpdateExpenseRequest]) (*connect.Response[api.ExpenseResponse], error) {
	return c.updateExpense.CallUnary(ctx, req)
}

func (c *expenseServiceClient) ClaimItem(ctx context.Context, req *connect.Request[api.ClaimRequest]) (*connect.Response[api.ExpenseResponse], error) {
	return c.claimItem.CallUnary(ctx, req)
}

func (c *expenseServiceClient) UnclaimItem(ctx context.Context, req *connect.Request[api.ClaimRequest]) (*connect.Response[api.ExpenseResponse], error) {
	return c.unclaimItem.CallUnary(ctx, req)
}

func (c *expenseServiceClient) AddPerson(ctx context.Context, req *connect.Request[api.AddPersonRequest]) (*connect.Response[api.ExpenseResponse], error) {
	return c.addPerson.CallUnary(ctx, req)
}

func (c *expenseServiceClient) MarkPersonFinished(ctx context.Context, req *connect.Request[api.PersonStatusRequest]) (*connect.Response[api.ExpenseResponse], error) {
	return c.markPersonFinished.CallUnary(ctx, req)
}

func (c *expenseServiceClient) MarkPersonPending(ctx context.Context, req *connect.Request[api.PersonStatusRequest]) (*connect.Response[api.ExpenseResponse], error) {
	return c.markPersonPending.CallUnary(ctx, req)
}

// UnimplementedExpenseServiceHandler returns CodeUnimplemented from all methods.
type UnimplementedExpenseServiceHandler struct{}

func (UnimplementedExpenseServiceHandler) CreateExpense(context.Context, *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.ExpenseResponse], error) {
	return nil, unimplemented("CreateExpense")
}

func (UnimplementedExpenseServiceHandler) CreateExpenseFromImage(context.Context, *connect.Request[api.CreateExpenseFromImageRequest]) (*connect.Response[api.ExpenseResponse], error) {
	return nil, unimplemented("CreateExpenseFromImage")
}

func (UnimplementedExpenseServiceHandler) GetExpense(context.Context, *connect.Request[api.GetExpenseRequest]) (*connect.Response[api.ExpenseResponse], error) {
	return nil, unimplemented("GetExpense")
}

func (UnimplementedExpenseServiceHandler) UpdateExpense(context.Context, *connect.Request[api.UpdateExpenseRequest]) (*connect.Response[api.ExpenseResponse], error) {
	return nil, unimplemented("UpdateExpense")
}

func (UnimplementedExpenseServiceHandler) ClaimItem(context.Context, *connect.Request[api.ClaimRequest]) (*connect.Response[api.ExpenseResponse], error) {
	return nil, unimplemented("ClaimItem")
}

func (UnimplementedExpenseServiceHandler) UnclaimItem(context.Context, *connect.Request[api.ClaimRequest]) (*connect.Response[api.ExpenseResponse], error) {
	return nil, unimplemented("UnclaimItem")
}

func (UnimplementedExpenseServiceHandler) AddPerson(context.Context, *connect.Request[api.AddPersonRequest]) (*connect.Response[api.ExpenseResponse], error) {
	return nil, unimplemented("AddPerson")
}

func (UnimplementedExpenseServiceHandler) MarkPersonFinished(context.Context, *connect.Request[api.PersonStatusRequest]) (*connect.Response[api.ExpenseResponse], error) {
	return nil, unimplemented("MarkPersonFinished")
}

func (UnimplementedExpenseServiceHandler) MarkPersonPending(context.Context, *connect.Request[api.PersonStatusRequest]) (*connect.Response[api.ExpenseResponse], error) {
	return nil, unimplemented("MarkPersonPending")
}

func unimplemented(method string) error {
	return connect.NewError(connect.CodeUnimplemented, errors.New(ExpenseServiceName+"."+method+" is not implemented"))
}
