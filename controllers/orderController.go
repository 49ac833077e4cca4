package controllers

import (
	"net/http"
	"strconv"

	"hockeyshop/models"
	"hockeyshop/utils"
)

// defaultShippingCost is the flat fee applied when the client does not
// supply one.
const defaultShippingCost = 5.0

func PlaceOrder(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		utils.HandleError(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	shipping := defaultShippingCost
	if v := r.FormValue("shipping_cost"); v != "" {
		var err error
		if shipping, err = strconv.ParseFloat(v, 64); err != nil {
			utils.HandleError(w, http.StatusBadRequest, "Shipping cost must be a number")
			return
		}
	}

	respond(w, orders.PlaceOrder(r.Context(), shipping), http.StatusCreated)
}

func GetMyOrders(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	if status, ok := parseStatus(w, r); ok {
		if status != "" {
			respond(w, orders.ForUserByStatus(r.Context(), user.ID, status), http.StatusOK)
			return
		}
		respond(w, orders.ForUser(r.Context(), user.ID), http.StatusOK)
	}
}

func GetOrder(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	if id == "" {
		utils.HandleError(w, http.StatusBadRequest, "Order ID is required")
		return
	}

	res := orders.ByID(r.Context(), id)
	if res.IsSuccess() && user.Role != models.RoleAdmin && res.Value().UserID != user.ID {
		// Do not reveal other users' order ids.
		utils.HandleError(w, http.StatusNotFound, "order not found")
		return
	}
	respond(w, res, http.StatusOK)
}

func GetAllOrders(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	if status, ok := parseStatus(w, r); ok {
		if status != "" {
			respond(w, orders.ByStatus(r.Context(), status), http.StatusOK)
			return
		}
		respond(w, orders.All(r.Context()), http.StatusOK)
	}
}

func CompleteOrder(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	id := r.PathValue("id")
	if id == "" {
		utils.HandleError(w, http.StatusBadRequest, "Order ID is required")
		return
	}
	respond(w, orders.Complete(r.Context(), id), http.StatusOK)
}

// parseStatus reads the optional ?status= filter. The bool reports
// whether the request was valid; an empty status means no filter.
func parseStatus(w http.ResponseWriter, r *http.Request) (models.OrderStatus, bool) {
	switch v := r.URL.Query().Get("status"); v {
	case "":
		return "", true
	case string(models.OrderActive):
		return models.OrderActive, true
	case string(models.OrderCompleted):
		return models.OrderCompleted, true
	default:
		utils.HandleError(w, http.StatusBadRequest, "Unknown order status")
		return "", false
	}
}
