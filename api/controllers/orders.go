package controllers

import (
	"net/http"
	"time"

	"github.com/atelierjamel/traiteur-backend/api/responses"
	"github.com/atelierjamel/traiteur-backend/api/validators"
	exportsvc "github.com/atelierjamel/traiteur-backend/internal/export"
	ordersvc "github.com/atelierjamel/traiteur-backend/internal/orders"
	pkgerrors "github.com/atelierjamel/traiteur-backend/pkg/errors"
	"github.com/atelierjamel/traiteur-backend/pkg/logger"
)

const deliveryDateLayout = "2006-01-02"

type createOrderRequest struct {
	Name            string  `json:"name" validate:"required"`
	CustomerName    string  `json:"customer_name" validate:"required"`
	CustomerAddress *string `json:"customer_address,omitempty"`
	CustomerPhone   *string `json:"customer_phone,omitempty"`
	DeliveryDate    *string `json:"delivery_date,omitempty"`
}

type updateOrderRequest struct {
	Name            *string `json:"name,omitempty"`
	CustomerName    *string `json:"customer_name,omitempty"`
	CustomerAddress *string `json:"customer_address,omitempty"`
	CustomerPhone   *string `json:"customer_phone,omitempty"`
	DeliveryDate    *string `json:"delivery_date,omitempty"`
}

type orderItemRequest struct {
	ProductID   *string  `json:"product_id,omitempty"`
	ProductName *string  `json:"product_name,omitempty"`
	Pieces      *int     `json:"pieces,omitempty" validate:"omitempty,min=0"`
	Weight      *float64 `json:"weight,omitempty" validate:"omitempty,gte=0"`
}

type orderItemPatchRequest struct {
	Pieces *int     `json:"pieces,omitempty" validate:"omitempty,min=0"`
	Weight *float64 `json:"weight,omitempty" validate:"omitempty,gte=0"`
}

// CreateOrder opens a new order with zeroed totals.
func CreateOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		var payload createOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		deliveryDate, err := parseDeliveryDate(payload.DeliveryDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.CreateOrder(r.Context(), ordersvc.CreateOrderInput{
			Name:            payload.Name,
			CustomerName:    payload.CustomerName,
			CustomerAddress: payload.CustomerAddress,
			CustomerPhone:   payload.CustomerPhone,
			DeliveryDate:    deliveryDate,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

func GetOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, order)
	}
}

func ListOrders(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListOrders(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

func UpdateOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		deliveryDate, err := parseDeliveryDate(payload.DeliveryDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.UpdateOrder(r.Context(), orderID, ordersvc.UpdateOrderInput{
			Name:            payload.Name,
			CustomerName:    payload.CustomerName,
			CustomerAddress: payload.CustomerAddress,
			CustomerPhone:   payload.CustomerPhone,
			DeliveryDate:    deliveryDate,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, order)
	}
}

func DeleteOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteOrder(r.Context(), orderID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"message": "order deleted"})
	}
}

// AddOrderItem adds a line to an order and returns the refreshed order.
func AddOrderItem(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload orderItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toItemInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.AddItem(r.Context(), orderID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// UpdateOrderItem revises one line's quantities and returns the refreshed order.
func UpdateOrderItem(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := pathUUID(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload orderItemPatchRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.UpdateItem(r.Context(), orderID, itemID, ordersvc.ItemPatch{
			Pieces: payload.Pieces,
			Weight: payload.Weight,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

func DeleteOrderItem(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := pathUUID(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.DeleteItem(r.Context(), orderID, itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// RecomputeOrderTotals re-derives the stored totals from the item set.
func RecomputeOrderTotals(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		totals, err := svc.RecomputeTotals(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, totals)
	}
}

// ExportOrder streams one order as an xlsx delivery sheet.
func ExportOrder(svc exportsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "export service unavailable"))
			return
		}

		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		data, err := svc.ExportOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteFile(w, "order_items.xlsx", xlsxContentType, data)
	}
}

func (p orderItemRequest) toItemInput() (ordersvc.ItemInput, error) {
	input := ordersvc.ItemInput{
		ProductName: p.ProductName,
		Pieces:      p.Pieces,
		Weight:      p.Weight,
	}
	if p.ProductID != nil && *p.ProductID != "" {
		id, err := parseUUIDString(*p.ProductID, "product_id")
		if err != nil {
			return ordersvc.ItemInput{}, err
		}
		input.ProductID = &id
	}
	return input, nil
}

func parseDeliveryDate(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(deliveryDateLayout, *raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "delivery_date must be YYYY-MM-DD")
	}
	return &parsed, nil
}
