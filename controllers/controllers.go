// Package controllers is the thin HTTP surface over the repositories.
// Handlers parse the request, call a repository and translate the
// tri-state result into an HTTP response; no business rules live here.
package controllers

import (
	"net/http"

	"go.uber.org/zap"

	"hockeyshop/models"
	"hockeyshop/repository"
	"hockeyshop/utils"
)

var (
	users      *repository.UserRepository
	categories *repository.CategoryRepository
	products   *repository.ProductRepository
	carts      *repository.CartRepository
	orders     *repository.OrderRepository
	logger     = zap.NewNop()
)

// Init wires the repositories into the handler package.
func Init(
	u *repository.UserRepository,
	c *repository.CategoryRepository,
	p *repository.ProductRepository,
	cart *repository.CartRepository,
	o *repository.OrderRepository,
	log *zap.Logger,
) {
	users = u
	categories = c
	products = p
	carts = cart
	orders = o
	if log != nil {
		logger = log
	}
}

func httpStatus(kind models.ErrorKind) int {
	switch kind {
	case models.ErrNotFound:
		return http.StatusNotFound
	case models.ErrValidation:
		return http.StatusBadRequest
	case models.ErrConflict, models.ErrInsufficientStock:
		return http.StatusConflict
	case models.ErrUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// respond maps a Resource onto the response: the value with the given
// status on success, the kind's HTTP status on failure.
func respond[T any](w http.ResponseWriter, res models.Resource[T], status int) {
	switch {
	case res.IsSuccess():
		utils.SendJSONResponse(w, status, res.Value())
	case res.IsError():
		utils.HandleError(w, httpStatus(res.Kind()), res.Message())
	default:
		utils.HandleError(w, http.StatusInternalServerError, "unexpected loading state")
	}
}

// requireUser resolves the session or writes a 401.
func requireUser(w http.ResponseWriter, r *http.Request) (models.User, bool) {
	res := users.Current(r.Context())
	if !res.IsSuccess() {
		utils.HandleError(w, httpStatus(res.Kind()), res.Message())
		return models.User{}, false
	}
	return res.Value(), true
}

// requireAdmin resolves the session and checks the admin role.
func requireAdmin(w http.ResponseWriter, r *http.Request) (models.User, bool) {
	user, ok := requireUser(w, r)
	if !ok {
		return models.User{}, false
	}
	if user.Role != models.RoleAdmin {
		utils.HandleError(w, http.StatusForbidden, "admin access required")
		return models.User{}, false
	}
	return user, true
}
