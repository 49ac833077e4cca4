package controllers

import (
	"net/http"
	"strconv"

	"hockeyshop/utils"
)

func GetCart(w http.ResponseWriter, r *http.Request) {
	items := carts.Items(r.Context())
	if !items.IsSuccess() {
		respond(w, items, http.StatusOK)
		return
	}
	total := carts.Total(r.Context())
	if !total.IsSuccess() {
		respond(w, total, http.StatusOK)
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, map[string]interface{}{
		"items": items.Value(),
		"total": total.Value(),
	})
}

// SetCartItem replaces the line's quantity outright (last write wins).
func SetCartItem(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		utils.HandleError(w, http.StatusBadRequest, "Invalid form data")
		return
	}
	productID := r.FormValue("product_id")
	if productID == "" {
		utils.HandleError(w, http.StatusBadRequest, "Product ID is required")
		return
	}
	quantity, err := strconv.Atoi(r.FormValue("quantity"))
	if err != nil {
		utils.HandleError(w, http.StatusBadRequest, "Quantity must be a number")
		return
	}

	res := carts.SetQuantity(r.Context(), productID, quantity)
	if !res.IsSuccess() {
		respond(w, res, http.StatusOK)
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, map[string]string{"message": "cart updated"})
}

// IncrementCartItem adjusts the line by a delta, default +1.
func IncrementCartItem(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		utils.HandleError(w, http.StatusBadRequest, "Invalid form data")
		return
	}
	productID := r.FormValue("product_id")
	if productID == "" {
		utils.HandleError(w, http.StatusBadRequest, "Product ID is required")
		return
	}
	delta := 1
	if v := r.FormValue("delta"); v != "" {
		var err error
		if delta, err = strconv.Atoi(v); err != nil {
			utils.HandleError(w, http.StatusBadRequest, "Delta must be a number")
			return
		}
	}

	res := carts.IncrementQuantity(r.Context(), productID, delta)
	if !res.IsSuccess() {
		respond(w, res, http.StatusOK)
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, map[string]string{"message": "cart updated"})
}

func RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	productID := r.PathValue("productId")
	if productID == "" {
		utils.HandleError(w, http.StatusBadRequest, "Product ID is required")
		return
	}
	res := carts.Remove(r.Context(), productID)
	if !res.IsSuccess() {
		respond(w, res, http.StatusOK)
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, map[string]string{"message": "item removed"})
}

func ClearCart(w http.ResponseWriter, r *http.Request) {
	res := carts.Clear(r.Context())
	if !res.IsSuccess() {
		respond(w, res, http.StatusOK)
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, map[string]string{"message": "cart cleared"})
}
