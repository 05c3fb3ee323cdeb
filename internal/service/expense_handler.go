package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/forkthebill/internal/ingestion"
	"github.com/mmynk/forkthebill/internal/models"
	"github.com/mmynk/forkthebill/pkg/api"
	"github.com/mmynk/forkthebill/pkg/api/apiconnect"
)

// ExpenseHandler implements the Connect ExpenseService on top of ExpenseService.
type ExpenseHandler struct {
	apiconnect.UnimplementedExpenseServiceHandler
	svc *ExpenseService
}

var _ apiconnect.ExpenseServiceHandler = (*ExpenseHandler)(nil)

// NewExpenseHandler creates a handler for svc.
func NewExpenseHandler(svc *ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{svc: svc}
}

// CreateExpense handles manual expense creation.
func (h *ExpenseHandler) CreateExpense(ctx context.Context, req *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.ExpenseResponse], error) {
	params, err := CreateParamsFromAPI(req.Msg)
	if err != nil {
		return nil, toConnectError(err)
	}
	return respond(h.svc.Create(ctx, params))
}

// CreateExpenseFromImage handles expense creation from a bill photo.
func (h *ExpenseHandler) CreateExpenseFromImage(ctx context.Context, req *connect.Request[api.CreateExpenseFromImageRequest]) (*connect.Response[api.ExpenseResponse], error) {
	return respond(h.svc.CreateFromImage(ctx, req.Msg.PayerName, req.Msg.Image, req.Msg.MimeType))
}

// GetExpense returns an expense by slug.
func (h *ExpenseHandler) GetExpense(ctx context.Context, req *connect.Request[api.GetExpenseRequest]) (*connect.Response[api.ExpenseResponse], error) {
	if req.Msg.Slug == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("slug is required"))
	}
	return respond(h.svc.GetBySlug(ctx, req.Msg.Slug))
}

// UpdateExpense overwrites scalar fields and merges items.
func (h *ExpenseHandler) UpdateExpense(ctx context.Context, req *connect.Request[api.UpdateExpenseRequest]) (*connect.Response[api.ExpenseResponse], error) {
	params, err := UpdateParamsFromAPI(req.Msg)
	if err != nil {
		return nil, toConnectError(err)
	}
	return respond(h.svc.UpdateBySlug(ctx, req.Msg.Slug, params))
}

// ClaimItem claims an item for a person.
func (h *ExpenseHandler) ClaimItem(ctx context.Context, req *connect.Request[api.ClaimRequest]) (*connect.Response[api.ExpenseResponse], error) {
	return respond(h.svc.ClaimItem(ctx, req.Msg.Slug, req.Msg.ItemID, req.Msg.PersonID))
}

// UnclaimItem releases a person's claim on an item.
func (h *ExpenseHandler) UnclaimItem(ctx context.Context, req *connect.Request[api.ClaimRequest]) (*connect.Response[api.ExpenseResponse], error) {
	return respond(h.svc.UnclaimItem(ctx, req.Msg.Slug, req.Msg.ItemID, req.Msg.PersonID))
}

// AddPerson adds a participant.
func (h *ExpenseHandler) AddPerson(ctx context.Context, req *connect.Request[api.AddPersonRequest]) (*connect.Response[api.ExpenseResponse], error) {
	return respond(h.svc.AddPerson(ctx, req.Msg.Slug, req.Msg.Name))
}

// MarkPersonFinished marks a person as done claiming.
func (h *ExpenseHandler) MarkPersonFinished(ctx context.Context, req *connect.Request[api.PersonStatusRequest]) (*connect.Response[api.ExpenseResponse], error) {
	return respond(h.svc.MarkFinished(ctx, req.Msg.Slug, req.Msg.PersonID))
}

// MarkPersonPending reopens claiming for a person.
func (h *ExpenseHandler) MarkPersonPending(ctx context.Context, req *connect.Request[api.PersonStatusRequest]) (*connect.Response[api.ExpenseResponse], error) {
	return respond(h.svc.MarkPending(ctx, req.Msg.Slug, req.Msg.PersonID))
}

func respond(expense *models.Expense, err error) (*connect.Response[api.ExpenseResponse], error) {
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.ExpenseResponse{Expense: ToAPIExpense(expense)}), nil
}

// toConnectError maps domain errors to Connect codes.
func toConnectError(err error) error {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, models.ErrValidation):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, ingestion.ErrIngestion):
		return connect.NewError(connect.CodeUnavailable, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	default:
		slog.Error("Internal error", "error", err)
		return connect.NewError(connect.CodeInternal, errors.New("internal error"))
	}
}
