package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	ordersvc "github.com/atelierjamel/traiteur-backend/internal/orders"
	"github.com/atelierjamel/traiteur-backend/pkg/db/models"
	pkgerrors "github.com/atelierjamel/traiteur-backend/pkg/errors"
	"github.com/atelierjamel/traiteur-backend/pkg/logger"
	"github.com/atelierjamel/traiteur-backend/pkg/pagination"
	"github.com/atelierjamel/traiteur-backend/pkg/types"
)

type stubOrderService struct {
	order *models.Order
	err   error

	createInput ordersvc.CreateOrderInput
}

func (s *stubOrderService) CreateOrder(_ context.Context, input ordersvc.CreateOrderInput) (*models.Order, error) {
	s.createInput = input
	return s.order, s.err
}

func (s *stubOrderService) GetOrder(_ context.Context, _ uuid.UUID) (*models.Order, error) {
	return s.order, s.err
}

func (s *stubOrderService) ListOrders(_ context.Context, _ pagination.Params) (*ordersvc.OrderList, error) {
	return &ordersvc.OrderList{}, s.err
}

func (s *stubOrderService) UpdateOrder(_ context.Context, _ uuid.UUID, _ ordersvc.UpdateOrderInput) (*models.Order, error) {
	return s.order, s.err
}

func (s *stubOrderService) DeleteOrder(_ context.Context, _ uuid.UUID) error { return s.err }

func (s *stubOrderService) AddItem(_ context.Context, _ uuid.UUID, _ ordersvc.ItemInput) (*ordersvc.ItemMutationResult, error) {
	return &ordersvc.ItemMutationResult{Order: s.order}, s.err
}

func (s *stubOrderService) UpdateItem(_ context.Context, _, _ uuid.UUID, _ ordersvc.ItemPatch) (*ordersvc.ItemMutationResult, error) {
	return &ordersvc.ItemMutationResult{Order: s.order}, s.err
}

func (s *stubOrderService) DeleteItem(_ context.Context, _, _ uuid.UUID) (*ordersvc.ItemMutationResult, error) {
	return &ordersvc.ItemMutationResult{Order: s.order}, s.err
}

func (s *stubOrderService) RecomputeTotals(_ context.Context, _ uuid.UUID) (ordersvc.Totals, error) {
	return ordersvc.Totals{}, s.err
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func newOrdersRouter(svc ordersvc.Service) http.Handler {
	logg := testLogger()
	r := chi.NewRouter()
	r.Post("/orders", CreateOrder(svc, logg))
	r.Get("/orders/{orderId}", GetOrder(svc, logg))
	r.Post("/orders/{orderId}/items", AddOrderItem(svc, logg))
	return r
}

func decodeAPIError(t *testing.T, body io.Reader) types.APIError {
	t.Helper()
	var envelope types.ErrorEnvelope
	if err := json.NewDecoder(body).Decode(&envelope); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return envelope.Error
}

func TestGetOrderRejectsMalformedID(t *testing.T) {
	router := newOrdersRouter(&stubOrderService{})

	req := httptest.NewRequest(http.MethodGet, "/orders/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	apiErr := decodeAPIError(t, rec.Body)
	if apiErr.Code != string(pkgerrors.CodeValidation) {
		t.Fatalf("expected validation code, got %q", apiErr.Code)
	}
}

func TestGetOrderNotFound(t *testing.T) {
	router := newOrdersRouter(&stubOrderService{err: pkgerrors.New(pkgerrors.CodeNotFound, "order not found")})

	req := httptest.NewRequest(http.MethodGet, "/orders/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if apiErr := decodeAPIError(t, rec.Body); apiErr.Message != "order not found" {
		t.Fatalf("unexpected message %q", apiErr.Message)
	}
}

func TestCreateOrderValidatesBody(t *testing.T) {
	router := newOrdersRouter(&stubOrderService{})

	// Missing customer_name.
	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(`{"name":"Mariage"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	apiErr := decodeAPIError(t, rec.Body)
	if apiErr.Code != string(pkgerrors.CodeValidation) {
		t.Fatalf("expected validation code, got %q", apiErr.Code)
	}
	details, ok := apiErr.Details.(map[string]any)
	if !ok {
		t.Fatalf("expected field details, got %v", apiErr.Details)
	}
	if _, ok := details["customer_name"]; !ok {
		t.Fatalf("expected customer_name in details, got %v", details)
	}
}

func TestCreateOrderRejectsUnknownFields(t *testing.T) {
	router := newOrdersRouter(&stubOrderService{})

	req := httptest.NewRequest(http.MethodPost, "/orders",
		strings.NewReader(`{"name":"Mariage","customer_name":"Benali","surprise":true}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreateOrderRejectsBadDeliveryDate(t *testing.T) {
	router := newOrdersRouter(&stubOrderService{})

	req := httptest.NewRequest(http.MethodPost, "/orders",
		strings.NewReader(`{"name":"Mariage","customer_name":"Benali","delivery_date":"14/06/2025"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if apiErr := decodeAPIError(t, rec.Body); !strings.Contains(apiErr.Message, "YYYY-MM-DD") {
		t.Fatalf("unexpected message %q", apiErr.Message)
	}
}

func TestCreateOrderReturnsCreated(t *testing.T) {
	svc := &stubOrderService{order: &models.Order{ID: uuid.New(), Name: "Mariage", CustomerName: "Benali"}}
	router := newOrdersRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/orders",
		strings.NewReader(`{"name":"Mariage","customer_name":"Benali","delivery_date":"2025-06-14"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.createInput.DeliveryDate == nil {
		t.Fatal("expected the delivery date to be parsed")
	}

	var envelope types.SuccessEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if envelope.Data == nil {
		t.Fatal("expected a data envelope")
	}
}

func TestAddOrderItemRejectsMalformedProductID(t *testing.T) {
	router := newOrdersRouter(&stubOrderService{order: &models.Order{}})

	req := httptest.NewRequest(http.MethodPost, "/orders/"+uuid.NewString()+"/items",
		strings.NewReader(`{"product_id":"nope","pieces":10}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
