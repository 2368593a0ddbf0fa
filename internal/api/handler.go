package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"myfood/internal/app"
	"myfood/internal/media"
	"myfood/internal/menu"
	"myfood/internal/recipe"
)

const (
	storeTimeout  = 10 * time.Second
	importTimeout = 45 * time.Second
	maxUploadSize = 10 << 20
	sheetRowLimit = 200
)

// RecipeImporter turns a photo into an unsaved recipe draft.
type RecipeImporter interface {
	ImportRecipe(ctx context.Context, imageData []byte, format string) (*recipe.Recipe, error)
}

// Handler handles HTTP requests.
type Handler struct {
	Service        *app.Service
	GeminiClient   RecipeImporter
	LocalLLMClient RecipeImporter
	Logger         *zap.Logger
}

// NewHandler creates a new Handler. Either importer may be nil when not
// configured.
func NewHandler(service *app.Service, geminiClient, localLLMClient RecipeImporter, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Service: service, GeminiClient: geminiClient, LocalLLMClient: localLLMClient, Logger: logger}
}

// Register mounts every route on r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/healthz", h.Health)

	r.GET("/recipes", h.ListRecipes)
	r.GET("/recipes/facets", h.Facets)
	r.POST("/recipes", h.CreateRecipe)
	r.POST("/recipes/import", h.ImportGemini)
	r.POST("/recipes/import-local", h.ImportLocal)
	r.GET("/recipes/:id", h.GetRecipe)
	r.PUT("/recipes/:id", h.UpdateRecipe)
	r.DELETE("/recipes/:id", h.DeleteRecipe)
	r.GET("/recipes/:id/nutrition", h.GetNutrition)
	r.POST("/recipes/:id/image", h.UploadImage)
	r.GET("/recipes/:id/image", h.GetImage)
	r.DELETE("/recipes/:id/image", h.DeleteImage)

	r.GET("/week-menu", h.GetWeekMenu)
	r.PUT("/week-menu", h.SetWeekMenu)
	r.POST("/week-menu/entries", h.AddWeekSlot)

	r.GET("/shopping-list", h.GetShoppingList)
	r.POST("/shopping-list/extras", h.AddExtra)
	r.DELETE("/shopping-list/extras/:index", h.RemoveExtra)

	r.GET("/ingredients", h.ListIngredients)
	r.POST("/ingredients/reload", h.ReloadIngredients)
	r.GET("/ingredients/quality", h.IngredientQuality)

	r.GET("/files", h.ListFiles)
	r.GET("/files/:name/sheet", h.GetSheet)
}

// fail maps err onto a status code and writes it as plain text.
func (h *Handler) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, app.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, recipe.ErrInvalid), errors.Is(err, app.ErrInvalidInput),
		errors.Is(err, media.ErrUnsupportedType), errors.Is(err, recipe.ErrNotFood):
		status = http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusRequestTimeout
	}
	_ = c.Error(err)
	c.String(status, err.Error())
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListRecipes returns the summary rows of the recipes matching the query.
func (h *Handler) ListRecipes(c *gin.Context) {
	q := recipe.Query{
		Search:  c.Query("search"),
		Tags:    c.QueryArray("tag"),
		Cuisine: c.Query("cuisine"),
		Sort:    recipe.SortBy(c.DefaultQuery("sort", string(recipe.SortByName))),
	}
	switch q.Sort {
	case recipe.SortByName, recipe.SortByPrepTime, recipe.SortByTotalTime:
	default:
		c.String(http.StatusBadRequest, fmt.Sprintf("unknown sort %q", q.Sort))
		return
	}

	recipes := h.Service.Recipes(q)
	rows := make([]recipe.Summary, 0, len(recipes))
	for _, r := range recipes {
		rows = append(rows, r.Summarize())
	}
	c.JSON(http.StatusOK, rows)
}

// Facets returns the tags and cuisines used by the catalog.
func (h *Handler) Facets(c *gin.Context) {
	c.JSON(http.StatusOK, h.Service.Facets())
}

// GetRecipe returns one recipe.
func (h *Handler) GetRecipe(c *gin.Context) {
	r, err := h.Service.Recipe(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func bindRecipe(c *gin.Context) (*recipe.Recipe, bool) {
	var r recipe.Recipe
	if err := c.ShouldBindJSON(&r); err != nil {
		c.String(http.StatusBadRequest, fmt.Sprintf("invalid recipe body: %s", err.Error()))
		return nil, false
	}
	return &r, true
}

// CreateRecipe adds a recipe to the catalog.
func (h *Handler) CreateRecipe(c *gin.Context) {
	r, ok := bindRecipe(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
	defer cancel()

	created, err := h.Service.CreateRecipe(ctx, r)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// UpdateRecipe replaces a recipe, keeping its identifier.
func (h *Handler) UpdateRecipe(c *gin.Context) {
	r, ok := bindRecipe(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
	defer cancel()

	updated, err := h.Service.UpdateRecipe(ctx, c.Param("id"), r)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteRecipe removes a recipe.
func (h *Handler) DeleteRecipe(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
	defer cancel()

	if err := h.Service.DeleteRecipe(ctx, c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetNutrition returns the nutrient totals of a recipe with their coverage.
func (h *Handler) GetNutrition(c *gin.Context) {
	rep, err := h.Service.Nutrition(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"totals":      rep.Totals,
		"ingredients": rep.Ingredients,
		"coverage":    rep.Coverage,
		"matched":     rep.Matched,
		"complete":    rep.Complete(),
	})
}

// readUpload returns the name and content of the multipart "file" field.
func readUpload(c *gin.Context) (string, []byte, bool) {
	file, err := c.FormFile("file")
	if err != nil {
		c.String(http.StatusBadRequest, fmt.Sprintf("get form err: %s", err.Error()))
		return "", nil, false
	}
	if file.Size > maxUploadSize {
		c.String(http.StatusRequestEntityTooLarge, "image is larger than 10 MB")
		return "", nil, false
	}

	src, err := file.Open()
	if err != nil {
		c.String(http.StatusInternalServerError, fmt.Sprintf("open file err: %s", err.Error()))
		return "", nil, false
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		c.String(http.StatusInternalServerError, fmt.Sprintf("read image err: %s", err.Error()))
		return "", nil, false
	}
	return file.Filename, data, true
}

// UploadImage stores a resized photo for a recipe.
func (h *Handler) UploadImage(c *gin.Context) {
	name, data, ok := readUpload(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), importTimeout)
	defer cancel()

	r, err := h.Service.SetRecipeImage(ctx, c.Param("id"), name, data)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// GetImage streams the photo of a recipe.
func (h *Handler) GetImage(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), importTimeout)
	defer cancel()

	data, err := h.Service.RecipeImage(ctx, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Data(http.StatusOK, http.DetectContentType(data), data)
}

// DeleteImage detaches the photo of a recipe.
func (h *Handler) DeleteImage(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
	defer cancel()

	r, err := h.Service.ClearRecipeImage(ctx, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// ImportGemini drafts a recipe from a photo with Gemini.
func (h *Handler) ImportGemini(c *gin.Context) {
	h.importWith(c, h.GeminiClient, "gemini")
}

// ImportLocal drafts a recipe from a photo with the local LLM.
func (h *Handler) ImportLocal(c *gin.Context) {
	h.importWith(c, h.LocalLLMClient, "local llm")
}

func (h *Handler) importWith(c *gin.Context, importer RecipeImporter, label string) {
	if importer == nil {
		c.String(http.StatusServiceUnavailable, label+" is not configured")
		return
	}

	name, data, ok := readUpload(c)
	if !ok {
		return
	}
	ext, err := media.Extension(name)
	if err != nil {
		h.fail(c, err)
		return
	}
	format := strings.TrimPrefix(ext, ".")
	if format == "jpg" {
		format = "jpeg"
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), importTimeout)
	defer cancel()

	h.Logger.Info("importing recipe from photo", zap.String("importer", label), zap.String("image_hash", media.Hash(data)))
	draft, err := importer.ImportRecipe(ctx, data, format)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			c.String(http.StatusRequestTimeout, label+" call timed out after 45 seconds")
			return
		}
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, draft)
}

// GetWeekMenu returns the week plan and the summary of assigned entries.
func (h *Handler) GetWeekMenu(c *gin.Context) {
	week := h.Service.Week()
	c.JSON(http.StatusOK, gin.H{"entries": week, "summary": week.Summary()})
}

// SetWeekMenu replaces the week plan.
func (h *Handler) SetWeekMenu(c *gin.Context) {
	var week menu.Week
	if err := c.ShouldBindJSON(&week); err != nil {
		c.String(http.StatusBadRequest, fmt.Sprintf("invalid week menu body: %s", err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
	defer cancel()

	if err := h.Service.SetWeek(ctx, week); err != nil {
		h.fail(c, err)
		return
	}
	h.GetWeekMenu(c)
}

// AddWeekSlot appends an unassigned entry.
func (h *Handler) AddWeekSlot(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
	defer cancel()

	week, err := h.Service.AddWeekSlot(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"entries": week, "summary": week.Summary()})
}

// GetShoppingList aggregates the week's ingredients and the extra products.
func (h *Handler) GetShoppingList(c *gin.Context) {
	list := h.Service.ShoppingList()
	c.JSON(http.StatusOK, gin.H{
		"items":  list.Items,
		"extras": list.Extras,
		"lines":  list.Lines(),
	})
}

type extraRequest struct {
	Product string `json:"product"`
}

// AddExtra appends a free-text product to the shopping list.
func (h *Handler) AddExtra(c *gin.Context) {
	var req extraRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, fmt.Sprintf("invalid body: %s", err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
	defer cancel()

	extras, err := h.Service.AddExtra(ctx, req.Product)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, extras)
}

// RemoveExtra deletes an extra product by position.
func (h *Handler) RemoveExtra(c *gin.Context) {
	i, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.String(http.StatusBadRequest, "index must be an integer")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
	defer cancel()

	extras, err := h.Service.RemoveExtra(ctx, i)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, extras)
}

// ListIngredients returns reference ingredient names, filtered by q.
func (h *Handler) ListIngredients(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil || limit < 0 {
		c.String(http.StatusBadRequest, "limit must be a non-negative integer")
		return
	}
	c.JSON(http.StatusOK, h.Service.Ingredients(c.Query("q"), limit))
}

// ReloadIngredients re-reads the reference workbook.
func (h *Handler) ReloadIngredients(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), importTimeout)
	defer cancel()

	n, err := h.Service.ReloadReference(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows": n})
}

// IngredientQuality reports how the reference nutrient cells resolve.
func (h *Handler) IngredientQuality(c *gin.Context) {
	c.JSON(http.StatusOK, h.Service.Quality())
}

// ListFiles lists the data folder.
func (h *Handler) ListFiles(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
	defer cancel()

	list, err := h.Service.Files(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetSheet shows the rows of a worksheet of an xlsx file in the folder.
func (h *Handler) GetSheet(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), importTimeout)
	defer cancel()

	grid, err := h.Service.Sheet(ctx, c.Param("name"), c.Query("sheet"), sheetRowLimit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, grid)
}
