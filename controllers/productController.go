package controllers

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"hockeyshop/models"
	"hockeyshop/repository"
	"hockeyshop/utils"
)

func GetAllProducts(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	filter := repository.ProductFilter{Query: params.Get("q")}
	if c := params.Get("category"); c != "" {
		id, err := strconv.Atoi(c)
		if err != nil {
			utils.HandleError(w, http.StatusBadRequest, "Category must be a number")
			return
		}
		filter.CategoryID = id
	}
	switch params.Get("sort") {
	case "", "default":
	case "price_asc":
		filter.Sort = repository.SortPriceAsc
	case "price_desc":
		filter.Sort = repository.SortPriceDesc
	case "rating":
		filter.Sort = repository.SortRatingDesc
	default:
		utils.HandleError(w, http.StatusBadRequest, "Unknown sort option")
		return
	}

	respond(w, products.List(r.Context(), filter), http.StatusOK)
}

func GetPopularProducts(w http.ResponseWriter, r *http.Request) {
	respond(w, products.Popular(r.Context()), http.StatusOK)
}

func GetNewProducts(w http.ResponseWriter, r *http.Request) {
	respond(w, products.NewArrivals(r.Context()), http.StatusOK)
}

func GetProduct(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		utils.HandleError(w, http.StatusBadRequest, "Product ID is required")
		return
	}
	respond(w, products.ByID(r.Context(), id), http.StatusOK)
}

func CreateProduct(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	product, ok := parseProductForm(w, r)
	if !ok {
		return
	}
	respond(w, products.Create(r.Context(), product), http.StatusCreated)
}

func UpdateProduct(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	id := r.PathValue("id")
	if id == "" {
		utils.HandleError(w, http.StatusBadRequest, "Product ID is required")
		return
	}
	product, ok := parseProductForm(w, r)
	if !ok {
		return
	}
	product.ID = id
	respond(w, products.Update(r.Context(), product), http.StatusOK)
}

func DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	id := r.PathValue("id")
	if id == "" {
		utils.HandleError(w, http.StatusBadRequest, "Product ID is required")
		return
	}
	res := products.Delete(r.Context(), id)
	if !res.IsSuccess() {
		respond(w, res, http.StatusOK)
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, map[string]string{"message": "Product deleted successfully"})
}

// UploadProductImage stores the image under uploads/products and points
// the product's image_url at it.
func UploadProductImage(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	id := r.PathValue("id")
	if id == "" {
		utils.HandleError(w, http.StatusBadRequest, "Product ID is required")
		return
	}
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		utils.HandleError(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	current := products.ByID(r.Context(), id)
	if !current.IsSuccess() {
		respond(w, current, http.StatusOK)
		return
	}

	file, handler, err := r.FormFile("img")
	if err != nil {
		utils.HandleError(w, http.StatusBadRequest, "Image file is required")
		return
	}
	defer file.Close()

	imgPath, err := utils.SaveImageFile(file, "products", handler.Filename)
	if err != nil {
		logger.Error("save product image", zap.Error(err))
		utils.HandleError(w, http.StatusInternalServerError, "Failed to save image")
		return
	}

	product := current.Value()
	previousURL := product.ImageURL
	product.ImageURL = "/" + strings.ReplaceAll(imgPath, "\\", "/")

	updated := products.Update(r.Context(), product)
	if updated.IsSuccess() && strings.HasPrefix(previousURL, "/uploads/") {
		previousPath := filepath.FromSlash(strings.TrimPrefix(previousURL, "/"))
		if err := utils.DeleteImageFile(previousPath); err != nil && !os.IsNotExist(err) {
			logger.Warn("remove replaced product image", zap.String("path", previousPath), zap.Error(err))
		}
	}
	respond(w, updated, http.StatusOK)
}

// AdjustStock shifts quantity-on-hand by a signed delta.
func AdjustStock(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	id := r.PathValue("id")
	if id == "" {
		utils.HandleError(w, http.StatusBadRequest, "Product ID is required")
		return
	}
	if err := r.ParseForm(); err != nil {
		utils.HandleError(w, http.StatusBadRequest, "Invalid form data")
		return
	}
	delta, err := strconv.Atoi(r.FormValue("delta"))
	if err != nil || delta == 0 {
		utils.HandleError(w, http.StatusBadRequest, "Delta must be a non-zero number")
		return
	}

	var res models.Resource[struct{}]
	if delta > 0 {
		res = products.IncreaseStock(r.Context(), id, delta)
	} else {
		res = products.DecreaseStock(r.Context(), id, -delta)
	}
	if !res.IsSuccess() {
		respond(w, res, http.StatusOK)
		return
	}
	respond(w, products.ByID(r.Context(), id), http.StatusOK)
}

func parseProductForm(w http.ResponseWriter, r *http.Request) (models.Product, bool) {
	if err := r.ParseForm(); err != nil {
		utils.HandleError(w, http.StatusBadRequest, "Invalid form data")
		return models.Product{}, false
	}

	price, err := strconv.ParseFloat(r.FormValue("price"), 64)
	if err != nil {
		utils.HandleError(w, http.StatusBadRequest, "Price must be a number")
		return models.Product{}, false
	}
	categoryID, err := strconv.Atoi(r.FormValue("category_id"))
	if err != nil {
		utils.HandleError(w, http.StatusBadRequest, "Category ID must be a number")
		return models.Product{}, false
	}
	quantity, err := strconv.Atoi(r.FormValue("quantity"))
	if err != nil {
		utils.HandleError(w, http.StatusBadRequest, "Quantity must be a number")
		return models.Product{}, false
	}

	discount := 0.0
	if v := r.FormValue("discount"); v != "" {
		if discount, err = strconv.ParseFloat(v, 64); err != nil {
			utils.HandleError(w, http.StatusBadRequest, "Discount must be a number")
			return models.Product{}, false
		}
	}
	rating := 0.0
	if v := r.FormValue("rating"); v != "" {
		if rating, err = strconv.ParseFloat(v, 64); err != nil {
			utils.HandleError(w, http.StatusBadRequest, "Rating must be a number")
			return models.Product{}, false
		}
	}

	var extraImages models.StringList
	for _, img := range r.Form["extra_image"] {
		if img != "" {
			extraImages = append(extraImages, img)
		}
	}

	return models.Product{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		Price:       price,
		ImageURL:    r.FormValue("image_url"),
		Category:    models.Category{ID: categoryID},
		Quantity:    quantity,
		Rating:      rating,
		Discount:    discount,
		ExtraImages: extraImages,
		IsPopular:   r.FormValue("is_popular") == "true",
		IsNew:       r.FormValue("is_new") == "true",
	}, true
}
