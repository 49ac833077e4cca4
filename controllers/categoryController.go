package controllers

import (
	"net/http"
	"strconv"

	"hockeyshop/models"
	"hockeyshop/utils"
)

func GetAllCategories(w http.ResponseWriter, r *http.Request) {
	if q := r.URL.Query().Get("q"); q != "" {
		respond(w, categories.Search(r.Context(), q), http.StatusOK)
		return
	}
	respond(w, categories.All(r.Context()), http.StatusOK)
}

func GetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		utils.HandleError(w, http.StatusBadRequest, "Category ID must be a number")
		return
	}
	respond(w, categories.ByID(r.Context(), id), http.StatusOK)
}

func CreateCategory(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		utils.HandleError(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	id, err := strconv.Atoi(r.FormValue("id"))
	if err != nil {
		utils.HandleError(w, http.StatusBadRequest, "Category ID must be a number")
		return
	}
	category := models.Category{
		ID:          id,
		Name:        r.FormValue("name"),
		IconURL:     r.FormValue("icon_url"),
		Description: r.FormValue("description"),
	}
	respond(w, categories.Create(r.Context(), category), http.StatusCreated)
}

func UpdateCategory(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		utils.HandleError(w, http.StatusBadRequest, "Category ID must be a number")
		return
	}
	if err := r.ParseForm(); err != nil {
		utils.HandleError(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	category := models.Category{
		ID:          id,
		Name:        r.FormValue("name"),
		IconURL:     r.FormValue("icon_url"),
		Description: r.FormValue("description"),
	}
	respond(w, categories.Update(r.Context(), category), http.StatusOK)
}

func DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		utils.HandleError(w, http.StatusBadRequest, "Category ID must be a number")
		return
	}
	res := categories.Delete(r.Context(), id)
	if !res.IsSuccess() {
		respond(w, res, http.StatusOK)
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, map[string]string{"message": "Category deleted successfully"})
}
