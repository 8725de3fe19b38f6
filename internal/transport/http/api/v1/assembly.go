package http

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bafnalights-dot/stock/internal/model"
)

func (h *handler) listRecipes(w http.ResponseWriter, r *http.Request) {
	recipes, err := h.recipes.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]recipeResponse, 0, len(recipes))
	for _, v := range recipes {
		out = append(out, toRecipeResponse(v))
	}
	writeJSON(w, r, http.StatusOK, out)
}

// setRecipe replaces the product's recipe and responds with the joined view.
func (h *handler) setRecipe(w http.ResponseWriter, r *http.Request) {
	var req recipeRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	productID := uuid.MustParse(req.FinishedProductID)
	if _, err := h.recipes.Set(r.Context(), productID, req.toLines()); err != nil {
		writeError(w, r, err)
		return
	}

	view, err := h.recipes.View(r.Context(), productID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toRecipeResponse(view))
}

func (h *handler) getRecipe(w http.ResponseWriter, r *http.Request) {
	productID, err := pathUUID(r, "productID")
	if err != nil {
		writeError(w, r, err)
		return
	}

	view, err := h.recipes.View(r.Context(), productID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toRecipeResponse(view))
}

// assemble answers 200 for both outcomes; a shortage is reported in the body.
func (h *handler) assemble(w http.ResponseWriter, r *http.Request) {
	var req assembleRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	qty := decimal.NewFromInt(1)
	if req.Quantity != nil {
		qty = *req.Quantity
	}

	res, err := h.assembly.Assemble(r.Context(), model.AssembleParams{
		FinishedProductID: uuid.MustParse(req.FinishedProductID),
		Quantity:          qty,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toAssembleResponse(res))
}
