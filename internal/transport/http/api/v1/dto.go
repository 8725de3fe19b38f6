package http

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bafnalights-dot/stock/internal/model"
)

type supplierRequest struct {
	Name        string `json:"name" validate:"required"`
	ContactInfo string `json:"contact_info"`
}

type supplierResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	ContactInfo string    `json:"contact_info"`
	CreatedAt   time.Time `json:"created_at"`
}

func toSupplierResponse(s *model.Supplier) supplierResponse {
	return supplierResponse{ID: s.ID, Name: s.Name, ContactInfo: s.ContactInfo, CreatedAt: s.CreatedAt}
}

type partRequest struct {
	Name              string           `json:"name" validate:"required"`
	Category          string           `json:"category"`
	Quantity          decimal.Decimal  `json:"quantity"`
	SupplierID        *string          `json:"supplier_id"`
	PurchasePrice     decimal.Decimal  `json:"purchase_price"`
	LowStockThreshold *decimal.Decimal `json:"low_stock_threshold"`
	LastPurchaseDate  *time.Time       `json:"last_purchase_date"`
}

func (r partRequest) toParams() (model.CreatePartParams, error) {
	supplierID, err := optionalUUID(r.SupplierID, "supplier_id")
	if err != nil {
		return model.CreatePartParams{}, err
	}
	return model.CreatePartParams{
		Name:              r.Name,
		Category:          r.Category,
		Quantity:          r.Quantity,
		SupplierID:        supplierID,
		PurchasePrice:     r.PurchasePrice,
		LowStockThreshold: r.LowStockThreshold,
		LastPurchaseDate:  r.LastPurchaseDate,
	}, nil
}

// partUpdateRequest ignores quantity; stock only changes through stock operations.
type partUpdateRequest struct {
	Name              *string          `json:"name"`
	Category          *string          `json:"category"`
	SupplierID        *string          `json:"supplier_id"`
	PurchasePrice     *decimal.Decimal `json:"purchase_price"`
	LowStockThreshold *decimal.Decimal `json:"low_stock_threshold"`
}

type partResponse struct {
	ID                uuid.UUID       `json:"id"`
	Name              string          `json:"name"`
	Category          string          `json:"category"`
	Quantity          decimal.Decimal `json:"quantity"`
	OpeningStock      decimal.Decimal `json:"opening_stock"`
	SupplierID        *uuid.UUID      `json:"supplier_id"`
	SupplierName      *string         `json:"supplier_name"`
	PurchasePrice     decimal.Decimal `json:"purchase_price"`
	LowStockThreshold decimal.Decimal `json:"low_stock_threshold"`
	LastPurchaseDate  time.Time       `json:"last_purchase_date"`
	CreatedAt         time.Time       `json:"created_at"`
	IsLowStock        bool            `json:"is_low_stock"`
}

func toPartResponse(p *model.Part) partResponse {
	out := partResponse{
		ID:                p.ID,
		Name:              p.Name,
		Category:          p.Category,
		Quantity:          p.Quantity,
		OpeningStock:      p.OpeningStock,
		SupplierID:        p.SupplierID,
		PurchasePrice:     p.PurchasePrice,
		LowStockThreshold: p.LowStockThreshold,
		LastPurchaseDate:  p.LastPurchaseDate,
		CreatedAt:         p.CreatedAt,
		IsLowStock:        p.IsLowStock(),
	}
	if p.SupplierName != "" {
		name := p.SupplierName
		out.SupplierName = &name
	}
	return out
}

type partStockRequest struct {
	PartName          string           `json:"part_name" validate:"required"`
	Category          string           `json:"category"`
	OpeningStock      decimal.Decimal  `json:"opening_stock"`
	PurchasePrice     decimal.Decimal  `json:"purchase_price"`
	LowStockThreshold *decimal.Decimal `json:"low_stock_threshold"`
}

type partStockResponse struct {
	ID                uuid.UUID       `json:"id"`
	PartName          string          `json:"part_name"`
	Category          string          `json:"category"`
	CurrentStock      decimal.Decimal `json:"current_stock"`
	OpeningStock      decimal.Decimal `json:"opening_stock"`
	LowStockThreshold decimal.Decimal `json:"low_stock_threshold"`
	IsLowStock        bool            `json:"is_low_stock"`
}

func toPartStockResponse(p *model.Part) partStockResponse {
	return partStockResponse{
		ID:                p.ID,
		PartName:          p.Name,
		Category:          p.Category,
		CurrentStock:      p.Quantity,
		OpeningStock:      p.OpeningStock,
		LowStockThreshold: p.LowStockThreshold,
		IsLowStock:        p.IsLowStock(),
	}
}

type productRequest struct {
	Name     string          `json:"name" validate:"required"`
	Category string          `json:"category"`
	Quantity decimal.Decimal `json:"quantity"`
}

type productResponse struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	Quantity     decimal.Decimal `json:"quantity"`
	OpeningStock decimal.Decimal `json:"opening_stock"`
	HasRecipe    bool            `json:"has_recipe"`
	CreatedAt    time.Time       `json:"created_at"`
}

func toProductResponse(p *model.FinishedProduct) productResponse {
	return productResponse{
		ID:           p.ID,
		Name:         p.Name,
		Category:     p.Category,
		Quantity:     p.Quantity,
		OpeningStock: p.OpeningStock,
		HasRecipe:    p.HasRecipe,
		CreatedAt:    p.CreatedAt,
	}
}

type namedLineRequest struct {
	PartName       string          `json:"part_name" validate:"required"`
	QuantityNeeded decimal.Decimal `json:"quantity_needed"`
}

type itemRequest struct {
	Name         string             `json:"name" validate:"required"`
	Category     string             `json:"category"`
	OpeningStock decimal.Decimal    `json:"opening_stock"`
	Parts        []namedLineRequest `json:"parts" validate:"dive"`
}

func (r itemRequest) toParams() model.CreateProductParams {
	lines := make([]model.NamedRecipeLine, 0, len(r.Parts))
	for _, l := range r.Parts {
		lines = append(lines, model.NamedRecipeLine{PartName: l.PartName, QuantityNeeded: l.QuantityNeeded})
	}
	return model.CreateProductParams{
		Name:         r.Name,
		Category:     r.Category,
		OpeningStock: r.OpeningStock,
		Parts:        lines,
	}
}

type itemUpdateRequest struct {
	Name     *string `json:"name"`
	Category *string `json:"category"`
}

type itemResponse struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	CurrentStock decimal.Decimal `json:"current_stock"`
	Stock        decimal.Decimal `json:"stock"`
	OpeningStock decimal.Decimal `json:"opening_stock"`
	HasRecipe    bool            `json:"has_recipe"`
	CreatedAt    time.Time       `json:"created_at"`
}

func toItemResponse(p *model.FinishedProduct) itemResponse {
	return itemResponse{
		ID:           p.ID,
		Name:         p.Name,
		Category:     p.Category,
		CurrentStock: p.Quantity,
		Stock:        p.Quantity,
		OpeningStock: p.OpeningStock,
		HasRecipe:    p.HasRecipe,
		CreatedAt:    p.CreatedAt,
	}
}

type recipeLineRequest struct {
	PartID         string          `json:"part_id" validate:"required,uuid"`
	QuantityNeeded decimal.Decimal `json:"quantity_needed"`
}

type recipeRequest struct {
	FinishedProductID string              `json:"finished_product_id" validate:"required,uuid"`
	Parts             []recipeLineRequest `json:"parts" validate:"dive"`
}

func (r recipeRequest) toLines() []model.RecipeLine {
	lines := make([]model.RecipeLine, 0, len(r.Parts))
	for _, l := range r.Parts {
		lines = append(lines, model.RecipeLine{PartID: uuid.MustParse(l.PartID), QuantityNeeded: l.QuantityNeeded})
	}
	return lines
}

type recipeLineResponse struct {
	PartID            uuid.UUID       `json:"part_id"`
	PartName          string          `json:"part_name"`
	QuantityNeeded    decimal.Decimal `json:"quantity_needed"`
	AvailableQuantity decimal.Decimal `json:"available_quantity"`
}

type recipeResponse struct {
	ID                  uuid.UUID            `json:"id"`
	FinishedProductID   uuid.UUID            `json:"finished_product_id"`
	FinishedProductName string               `json:"finished_product_name"`
	Parts               []recipeLineResponse `json:"parts"`
	CreatedAt           time.Time            `json:"created_at"`
}

func toRecipeResponse(v *model.RecipeView) recipeResponse {
	out := recipeResponse{
		ID:                  v.ID,
		FinishedProductID:   v.FinishedProductID,
		FinishedProductName: v.FinishedProductName,
		Parts:               make([]recipeLineResponse, 0, len(v.Parts)),
		CreatedAt:           v.CreatedAt,
	}
	for _, l := range v.Parts {
		out.Parts = append(out.Parts, recipeLineResponse(l))
	}
	return out
}

type assembleRequest struct {
	FinishedProductID string           `json:"finished_product_id" validate:"required,uuid"`
	Quantity          *decimal.Decimal `json:"quantity"`
}

type partUsedResponse struct {
	PartID       uuid.UUID       `json:"part_id"`
	PartName     string          `json:"part_name"`
	QuantityUsed decimal.Decimal `json:"quantity_used"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
}

type insufficientPartResponse struct {
	PartID    uuid.UUID       `json:"part_id"`
	PartName  string          `json:"part_name"`
	Required  decimal.Decimal `json:"required"`
	Available decimal.Decimal `json:"available"`
}

type assembleResponse struct {
	Success           bool                       `json:"success"`
	Message           string                     `json:"message"`
	TransactionID     *uuid.UUID                 `json:"transaction_id,omitempty"`
	NewQuantity       *decimal.Decimal           `json:"new_quantity,omitempty"`
	Cost              *decimal.Decimal           `json:"cost,omitempty"`
	PartsUsed         []partUsedResponse         `json:"parts_used,omitempty"`
	InsufficientParts []insufficientPartResponse `json:"insufficient_parts,omitempty"`
}

func toAssembleResponse(res *model.AssemblyResult) assembleResponse {
	out := assembleResponse{Success: res.Success, Message: res.Message}
	if !res.Success {
		for _, p := range res.InsufficientParts {
			out.InsufficientParts = append(out.InsufficientParts, insufficientPartResponse(p))
		}
		return out
	}

	txID, qty, cost := res.TransactionID, res.NewQuantity, res.Cost
	out.TransactionID, out.NewQuantity, out.Cost = &txID, &qty, &cost
	out.PartsUsed = make([]partUsedResponse, 0, len(res.PartsUsed))
	for _, p := range res.PartsUsed {
		out.PartsUsed = append(out.PartsUsed, partUsedResponse(p))
	}
	return out
}

type recordRequest struct {
	Date      *time.Time      `json:"date"`
	ItemID    string          `json:"item_id" validate:"required,uuid"`
	ItemName  string          `json:"item_name"`
	Quantity  decimal.Decimal `json:"quantity"`
	PartyName string          `json:"party_name"`
}

func (r recordRequest) toParams(kind model.RecordKind) model.CreateRecordParams {
	p := model.CreateRecordParams{
		Kind:      kind,
		ItemID:    uuid.MustParse(r.ItemID),
		ItemName:  r.ItemName,
		Quantity:  r.Quantity,
		PartyName: r.PartyName,
	}
	if r.Date != nil {
		p.Date = *r.Date
	}
	return p
}

type recordBatchRequest struct {
	Records []recordRequest `json:"records" validate:"required,min=1,dive"`
}

type recordResponse struct {
	ID        uuid.UUID       `json:"id"`
	Date      time.Time       `json:"date"`
	ItemID    uuid.UUID       `json:"item_id"`
	ItemName  string          `json:"item_name"`
	Quantity  decimal.Decimal `json:"quantity"`
	PartyName string          `json:"party_name,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func toRecordResponse(r *model.Record) recordResponse {
	return recordResponse{
		ID:        r.ID,
		Date:      r.Date,
		ItemID:    r.ItemID,
		ItemName:  r.ItemName,
		Quantity:  r.Quantity,
		PartyName: r.PartyName,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func toRecordResponses(records []*model.Record) []recordResponse {
	out := make([]recordResponse, 0, len(records))
	for _, r := range records {
		out = append(out, toRecordResponse(r))
	}
	return out
}

type recordBatchResponse struct {
	Created     []recordResponse `json:"created"`
	FailedIndex int              `json:"failed_index"`
	Detail      string           `json:"detail,omitempty"`
}

type purchaseRequest struct {
	Date       *time.Time       `json:"date"`
	ItemID     *string          `json:"item_id"`
	PartID     *string          `json:"part_id"`
	PartName   string           `json:"part_name"`
	Quantity   decimal.Decimal  `json:"quantity"`
	UnitPrice  *decimal.Decimal `json:"unit_price"`
	SupplierID *string          `json:"supplier_id"`
}

func (r purchaseRequest) toParams() (model.CreatePurchaseParams, error) {
	itemID, err := optionalUUID(r.ItemID, "item_id")
	if err != nil {
		return model.CreatePurchaseParams{}, err
	}
	partID, err := optionalUUID(r.PartID, "part_id")
	if err != nil {
		return model.CreatePurchaseParams{}, err
	}
	supplierID, err := optionalUUID(r.SupplierID, "supplier_id")
	if err != nil {
		return model.CreatePurchaseParams{}, err
	}
	if partID == nil && strings.TrimSpace(r.PartName) == "" {
		return model.CreatePurchaseParams{}, model.ValidationError("part_id or part_name is required")
	}

	p := model.CreatePurchaseParams{
		ItemID:     itemID,
		PartID:     partID,
		PartName:   r.PartName,
		Quantity:   r.Quantity,
		UnitPrice:  r.UnitPrice,
		SupplierID: supplierID,
	}
	if r.Date != nil {
		p.Date = *r.Date
	}
	return p, nil
}

type purchaseResponse struct {
	ID         uuid.UUID       `json:"id"`
	Date       time.Time       `json:"date"`
	ItemID     *uuid.UUID      `json:"item_id"`
	ItemName   string          `json:"item_name"`
	PartID     uuid.UUID       `json:"part_id"`
	PartName   string          `json:"part_name"`
	Quantity   decimal.Decimal `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	SupplierID *uuid.UUID      `json:"supplier_id"`
	CreatedAt  time.Time       `json:"created_at"`
}

func toPurchaseResponse(p *model.Purchase) purchaseResponse {
	return purchaseResponse(*p)
}

type transactionResponse struct {
	ID      uuid.UUID       `json:"id"`
	Type    string          `json:"type"`
	Date    time.Time       `json:"date"`
	Details map[string]any  `json:"details"`
	Cost    decimal.Decimal `json:"cost"`
}

func toTransactionResponses(ts []*model.Transaction) []transactionResponse {
	out := make([]transactionResponse, 0, len(ts))
	for _, t := range ts {
		out = append(out, transactionResponse{
			ID:      t.ID,
			Type:    string(t.Type),
			Date:    t.Date,
			Details: t.Details,
			Cost:    t.Cost,
		})
	}
	return out
}

type movementResponse struct {
	ID          uuid.UUID       `json:"id"`
	EntityType  string          `json:"entity_type"`
	EntityID    uuid.UUID       `json:"entity_id"`
	Delta       decimal.Decimal `json:"delta"`
	Balance     decimal.Decimal `json:"balance"`
	Reason      string          `json:"reason"`
	ReferenceID uuid.UUID       `json:"reference_id"`
	CreatedAt   time.Time       `json:"created_at"`
}

func toMovementResponse(m model.StockMovement) movementResponse {
	return movementResponse{
		ID:          m.ID,
		EntityType:  string(m.Ref.Type),
		EntityID:    m.Ref.ID,
		Delta:       m.Delta,
		Balance:     m.Balance,
		Reason:      string(m.Reason),
		ReferenceID: m.ReferenceID,
		CreatedAt:   m.CreatedAt,
	}
}

type itemDetailsResponse struct {
	Item       itemResponse     `json:"item"`
	Production []recordResponse `json:"production"`
	Sales      []recordResponse `json:"sales"`
}

type dashboardResponse struct {
	TotalParts         int                   `json:"total_parts"`
	TotalProducts      int                   `json:"total_products"`
	LowStockCount      int                   `json:"low_stock_count"`
	RecentTransactions []transactionResponse `json:"recent_transactions"`
}

type emailReportRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type emailReportResponse struct {
	Message   string    `json:"message"`
	RequestID uuid.UUID `json:"request_id"`
}

func optionalUUID(s *string, field string) (*uuid.UUID, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	id, err := uuid.Parse(strings.TrimSpace(*s))
	if err != nil {
		return nil, model.ValidationError("invalid %s", field)
	}
	return &id, nil
}
