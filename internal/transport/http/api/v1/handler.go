package http

import (
	"context"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/bafnalights-dot/stock/internal/model"
)

type CatalogService interface {
	CreateSupplier(ctx context.Context, params model.CreateSupplierParams) (*model.Supplier, error)
	ListSuppliers(ctx context.Context) ([]*model.Supplier, error)
	CreatePart(ctx context.Context, params model.CreatePartParams) (*model.Part, error)
	ListParts(ctx context.Context) ([]*model.Part, error)
	UpdatePart(ctx context.Context, params model.UpdatePartParams) (*model.Part, error)
	CreateProduct(ctx context.Context, params model.CreateProductParams) (*model.FinishedProduct, error)
	Product(ctx context.Context, id uuid.UUID) (*model.FinishedProduct, error)
	ListProducts(ctx context.Context) ([]*model.FinishedProduct, error)
	UpdateProduct(ctx context.Context, params model.UpdateProductParams) (*model.FinishedProduct, error)
}

type RecipeService interface {
	Set(ctx context.Context, productID uuid.UUID, lines []model.RecipeLine) (*model.Recipe, error)
	View(ctx context.Context, productID uuid.UUID) (*model.RecipeView, error)
	List(ctx context.Context) ([]*model.RecipeView, error)
}

type AssemblyService interface {
	Assemble(ctx context.Context, params model.AssembleParams) (*model.AssemblyResult, error)
}

type JournalService interface {
	Create(ctx context.Context, params model.CreateRecordParams) (*model.Record, error)
	CreateBatch(ctx context.Context, params []model.CreateRecordParams) model.BatchResult
	Edit(ctx context.Context, params model.EditRecordParams) (*model.Record, error)
	Delete(ctx context.Context, kind model.RecordKind, id uuid.UUID) error
	List(ctx context.Context, filter model.RecordFilter) ([]*model.Record, error)
	CreatePurchase(ctx context.Context, params model.CreatePurchaseParams) (*model.Purchase, error)
	ListPurchases(ctx context.Context) ([]*model.Purchase, error)
}

type ReportService interface {
	ItemDetails(ctx context.Context, itemID uuid.UUID) (*model.ItemDetails, error)
	DashboardStats(ctx context.Context) (*model.DashboardStats, error)
	Transactions(ctx context.Context, limit int) ([]*model.Transaction, error)
	Export(ctx context.Context) (*model.Workbook, error)
	RequestEmailReport(ctx context.Context, email string) (*model.ReportEmailRequest, error)
}

type LedgerService interface {
	Movements(ctx context.Context, ref *model.StockRef, limit int) ([]model.StockMovement, error)
}

type handler struct {
	catalog  CatalogService
	recipes  RecipeService
	assembly AssemblyService
	journal  JournalService
	reports  ReportService
	ledger   LedgerService
}

func NewAPIHandler(
	catalog CatalogService,
	recipes RecipeService,
	assembly AssemblyService,
	journal JournalService,
	reports ReportService,
	ledger LedgerService,
) *handler {
	return &handler{
		catalog:  catalog,
		recipes:  recipes,
		assembly: assembly,
		journal:  journal,
		reports:  reports,
		ledger:   ledger,
	}
}

// Routes registers the API on r. Mount it under /api.
func (h *handler) Routes(r chi.Router) {
	r.Route("/suppliers", func(r chi.Router) {
		r.Get("/", h.listSuppliers)
		r.Post("/", h.createSupplier)
	})

	r.Route("/parts", func(r chi.Router) {
		r.Get("/", h.listParts)
		r.Post("/", h.createPart)
		r.Put("/{id}", h.updatePart)
	})

	r.Route("/part-stocks", func(r chi.Router) {
		r.Get("/", h.listPartStocks)
		r.Post("/", h.createPartStock)
	})

	r.Route("/finished-products", func(r chi.Router) {
		r.Get("/", h.listProducts)
		r.Post("/", h.createProduct)
		r.Get("/{id}", h.getProduct)
	})

	r.Route("/items", func(r chi.Router) {
		r.Get("/", h.listItems)
		r.Post("/", h.createItem)
		r.Get("/{id}", h.getItem)
		r.Put("/{id}", h.updateItem)
	})

	r.Route("/recipes", func(r chi.Router) {
		r.Get("/", h.listRecipes)
		r.Post("/", h.setRecipe)
		r.Get("/{productID}", h.getRecipe)
	})

	r.Post("/assemble", h.assemble)

	for _, kind := range []model.RecordKind{model.KindProduction, model.KindSale} {
		path := "/production"
		if kind == model.KindSale {
			path = "/sales"
		}
		r.Route(path, func(r chi.Router) {
			r.Get("/", h.listRecords(kind))
			r.Post("/", h.createRecord(kind))
			r.Post("/batch", h.createRecordBatch(kind))
			r.Put("/{id}", h.editRecord(kind))
			r.Delete("/{id}", h.deleteRecord(kind))
		})
	}

	r.Route("/purchases", func(r chi.Router) {
		r.Get("/", h.listPurchases)
		r.Post("/", h.createPurchase)
	})

	r.Get("/transactions", h.transactions)
	r.Get("/stock-movements", h.stockMovements)
	r.Get("/reports/item-details/{itemID}", h.itemDetails)
	r.Get("/dashboard/stats", h.dashboardStats)
	r.Get("/export/excel", h.exportExcel)
	r.Post("/email-report", h.emailReport)
}
