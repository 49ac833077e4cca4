package controllers

import (
	"net/http"

	"hockeyshop/models"
	"hockeyshop/utils"
)

func Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		utils.HandleError(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	name := r.FormValue("name")
	email := r.FormValue("email")
	password := r.FormValue("password")
	isAdmin := r.FormValue("is_admin") == "true"

	res := users.Register(r.Context(), name, email, password, isAdmin)
	respond(w, res, http.StatusCreated)
}

func Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		utils.HandleError(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	email := r.FormValue("email")
	password := r.FormValue("password")
	if email == "" || password == "" {
		utils.HandleError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	respond(w, users.Login(r.Context(), email, password), http.StatusOK)
}

func Logout(w http.ResponseWriter, r *http.Request) {
	res := users.Logout(r.Context())
	if !res.IsSuccess() {
		respond(w, res, http.StatusOK)
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func Me(w http.ResponseWriter, r *http.Request) {
	respond(w, users.Current(r.Context()), http.StatusOK)
}

func UpdateProfile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		utils.HandleError(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	profile := models.User{
		Name:          r.FormValue("name"),
		PhotoURL:      r.FormValue("photo_url"),
		Phone:         r.FormValue("phone"),
		Address:       r.FormValue("address"),
		PaymentMethod: r.FormValue("payment_method"),
	}
	respond(w, users.UpdateProfile(r.Context(), profile), http.StatusOK)
}

func ChangePassword(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		utils.HandleError(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	old := r.FormValue("old_password")
	newPassword := r.FormValue("new_password")
	res := users.ChangePassword(r.Context(), old, newPassword)
	if !res.IsSuccess() {
		respond(w, res, http.StatusOK)
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, map[string]string{"message": "password changed"})
}

func ForgotPassword(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		utils.HandleError(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	res := users.ForgotPassword(r.Context(), r.FormValue("email"))
	if !res.IsSuccess() {
		respond(w, res, http.StatusOK)
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, map[string]string{"message": "account verified"})
}

func GetAllUsers(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	respond(w, users.All(r.Context()), http.StatusOK)
}

func DeleteUser(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	userID := r.PathValue("id")
	if userID == "" {
		utils.HandleError(w, http.StatusBadRequest, "User ID is required")
		return
	}
	res := users.Delete(r.Context(), userID)
	if !res.IsSuccess() {
		respond(w, res, http.StatusOK)
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, map[string]string{"message": "User deleted successfully"})
}
