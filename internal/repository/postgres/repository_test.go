//go:build integration

package repository_test

import (
	"sync"
	"sync/atomic"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/bafnalights-dot/stock/internal/model"
	ledger "github.com/bafnalights-dot/stock/internal/service/ledger"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func newPart(qty, price int64) *model.Part {
	p, err := catalogSvc.CreatePart(ctx, model.CreatePartParams{
		Name:          gofakeit.UUID(),
		Category:      "hardware",
		Quantity:      dec(qty),
		PurchasePrice: dec(price),
	})
	Expect(err).NotTo(HaveOccurred())
	return p
}

func newProduct(opening int64, lines ...model.RecipeLine) *model.FinishedProduct {
	p, err := catalogSvc.CreateProduct(ctx, model.CreateProductParams{
		Name:         gofakeit.UUID(),
		Category:     "carts",
		OpeningStock: dec(opening),
	})
	Expect(err).NotTo(HaveOccurred())

	if len(lines) > 0 {
		_, err = recipeSvc.Set(ctx, p.ID, lines)
		Expect(err).NotTo(HaveOccurred())
	}
	return p
}

func stockOf(t model.EntityType, id uuid.UUID) decimal.Decimal {
	var qty decimal.Decimal
	table := "parts"
	if t == model.EntityProduct {
		table = "finished_products"
	}
	err := pgC.Pool().QueryRow(ctx, "SELECT quantity FROM "+table+" WHERE id = $1", id).Scan(&qty)
	Expect(err).NotTo(HaveOccurred())
	return qty
}

// movementSum must always equal the row's stored quantity.
func movementSum(t model.EntityType, id uuid.UUID) decimal.Decimal {
	movements, err := repo.ListMovements(ctx, &model.StockRef{Type: t, ID: id}, 1000)
	Expect(err).NotTo(HaveOccurred())

	sum := decimal.Zero
	for _, m := range movements {
		sum = sum.Add(m.Delta)
	}
	return sum
}

var _ = Describe("Catalog", func() {
	It("stores parts with a resolved supplier name", func() {
		s, err := catalogSvc.CreateSupplier(ctx, model.CreateSupplierParams{Name: "Bolt & Co", ContactInfo: gofakeit.Email()})
		Expect(err).NotTo(HaveOccurred())

		p, err := catalogSvc.CreatePart(ctx, model.CreatePartParams{
			Name:          "M8 bolt",
			Quantity:      dec(40),
			SupplierID:    &s.ID,
			PurchasePrice: decimal.RequireFromString("0.35"),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(p.LowStockThreshold.Equal(model.DefaultLowStockThreshold)).To(BeTrue())

		parts, err := catalogSvc.ListParts(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(parts).To(HaveLen(1))
		Expect(parts[0].SupplierName).To(Equal("Bolt & Co"))
		Expect(parts[0].Quantity.Equal(dec(40))).To(BeTrue())
		Expect(parts[0].PurchasePrice.String()).To(Equal("0.35"))

		Expect(movementSum(model.EntityPart, p.ID).Equal(dec(40))).To(BeTrue())
	})

	It("rejects a duplicate part name with a conflict", func() {
		p := newPart(1, 1)

		_, err := catalogSvc.CreatePart(ctx, model.CreatePartParams{Name: p.Name, Quantity: dec(1)})
		Expect(err).To(MatchError(model.ErrConflict))
	})

	It("creates missing parts named in a product bill of materials", func() {
		p, err := catalogSvc.CreateProduct(ctx, model.CreateProductParams{
			Name:         "Wheelbarrow",
			OpeningStock: dec(2),
			Parts: []model.NamedRecipeLine{
				{PartName: "Tray", QuantityNeeded: dec(1)},
				{PartName: "Wheel", QuantityNeeded: dec(1)},
			},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(p.HasRecipe).To(BeTrue())

		view, err := recipeSvc.View(ctx, p.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(view.Parts).To(HaveLen(2))
		Expect(view.Parts[0].PartName).To(Equal("Tray"))
		Expect(view.Parts[0].AvailableQuantity.IsZero()).To(BeTrue())
		Expect(stockOf(model.EntityProduct, p.ID).Equal(dec(2))).To(BeTrue())
	})
})

var _ = Describe("Concurrent part writes", func() {
	It("keeps every field when updates and purchases race", func() {
		p := newPart(0, 1)

		const purchases = 10
		var wg sync.WaitGroup
		for i := range purchases {
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()

				price := dec(int64(2 + i))
				_, err := journalSvc.CreatePurchase(ctx, model.CreatePurchaseParams{PartID: &p.ID, Quantity: dec(1), UnitPrice: &price})
				Expect(err).NotTo(HaveOccurred())
			}()
		}

		category := "brakes"
		threshold := dec(3)
		for _, params := range []model.UpdatePartParams{
			{ID: p.ID, Category: &category},
			{ID: p.ID, LowStockThreshold: &threshold},
		} {
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()

				_, err := catalogSvc.UpdatePart(ctx, params)
				Expect(err).NotTo(HaveOccurred())
			}()
		}
		wg.Wait()

		parts, err := catalogSvc.ListParts(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(parts).To(HaveLen(1))
		Expect(parts[0].Category).To(Equal("brakes"))
		Expect(parts[0].LowStockThreshold.Equal(dec(3))).To(BeTrue())
		Expect(parts[0].Quantity.Equal(dec(purchases))).To(BeTrue())
		Expect(movementSum(model.EntityPart, p.ID).Equal(dec(purchases))).To(BeTrue())
	})
})

var _ = Describe("Assembly", func() {
	It("consumes parts and produces stock in one transaction", func() {
		axle := newPart(10, 2)
		wheel := newPart(20, 5)
		cart := newProduct(0,
			model.RecipeLine{PartID: axle.ID, QuantityNeeded: dec(1)},
			model.RecipeLine{PartID: wheel.ID, QuantityNeeded: dec(4)},
		)

		res, err := assemblySvc.Assemble(ctx, model.AssembleParams{FinishedProductID: cart.ID, Quantity: dec(3)})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Success).To(BeTrue())
		Expect(res.NewQuantity.Equal(dec(3))).To(BeTrue())
		Expect(res.Cost.Equal(dec(66))).To(BeTrue())

		Expect(stockOf(model.EntityPart, axle.ID).Equal(dec(7))).To(BeTrue())
		Expect(stockOf(model.EntityPart, wheel.ID).Equal(dec(8))).To(BeTrue())
		Expect(stockOf(model.EntityProduct, cart.ID).Equal(dec(3))).To(BeTrue())

		By("journaling one movement per touched row")
		Expect(movementSum(model.EntityPart, wheel.ID).Equal(dec(8))).To(BeTrue())
		Expect(movementSum(model.EntityProduct, cart.ID).Equal(dec(3))).To(BeTrue())
	})

	It("reports every short part and leaves stock untouched", func() {
		axle := newPart(1, 2)
		wheel := newPart(3, 5)
		cart := newProduct(0,
			model.RecipeLine{PartID: axle.ID, QuantityNeeded: dec(1)},
			model.RecipeLine{PartID: wheel.ID, QuantityNeeded: dec(4)},
		)

		res, err := assemblySvc.Assemble(ctx, model.AssembleParams{FinishedProductID: cart.ID, Quantity: dec(2)})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Success).To(BeFalse())
		Expect(res.InsufficientParts).To(HaveLen(2))

		Expect(stockOf(model.EntityPart, axle.ID).Equal(dec(1))).To(BeTrue())
		Expect(stockOf(model.EntityPart, wheel.ID).Equal(dec(3))).To(BeTrue())
		Expect(stockOf(model.EntityProduct, cart.ID).IsZero()).To(BeTrue())
	})

	It("never overdraws a part under concurrent assemblies", func() {
		axle := newPart(10, 1)
		cart := newProduct(0, model.RecipeLine{PartID: axle.ID, QuantityNeeded: dec(3)})

		const workers = 8
		var (
			wg        sync.WaitGroup
			succeeded atomic.Int32
		)
		for range workers {
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()

				res, err := assemblySvc.Assemble(ctx, model.AssembleParams{FinishedProductID: cart.ID, Quantity: dec(1)})
				if err == nil && res.Success {
					succeeded.Add(1)
				}
			}()
		}
		wg.Wait()

		Expect(succeeded.Load()).To(Equal(int32(3)))
		Expect(stockOf(model.EntityPart, axle.ID).Equal(dec(1))).To(BeTrue())
		Expect(stockOf(model.EntityProduct, cart.ID).Equal(dec(3))).To(BeTrue())
		Expect(movementSum(model.EntityPart, axle.ID).Equal(dec(1))).To(BeTrue())
	})
})

var _ = Describe("Journal", func() {
	It("reverses records on edit and delete", func() {
		item := newProduct(0)

		prod, err := journalSvc.Create(ctx, model.CreateRecordParams{Kind: model.KindProduction, ItemID: item.ID, Quantity: dec(10)})
		Expect(err).NotTo(HaveOccurred())
		Expect(prod.ItemName).To(Equal(item.Name))

		sale, err := journalSvc.Create(ctx, model.CreateRecordParams{Kind: model.KindSale, ItemID: item.ID, Quantity: dec(4), PartyName: "Acme"})
		Expect(err).NotTo(HaveOccurred())
		Expect(stockOf(model.EntityProduct, item.ID).Equal(dec(6))).To(BeTrue())

		By("rejecting a sale beyond stock")
		_, err = journalSvc.Create(ctx, model.CreateRecordParams{Kind: model.KindSale, ItemID: item.ID, Quantity: dec(7), PartyName: "Acme"})
		Expect(err).To(MatchError(model.ErrInsufficientStock))

		By("editing the sale")
		party := "Globex"
		edited, err := journalSvc.Edit(ctx, model.EditRecordParams{ID: sale.ID, Kind: model.KindSale, NewQuantity: dec(9), NewPartyName: &party})
		Expect(err).NotTo(HaveOccurred())
		Expect(edited.PartyName).To(Equal("Globex"))
		Expect(stockOf(model.EntityProduct, item.ID).Equal(dec(1))).To(BeTrue())

		By("refusing to delete production that was already sold")
		Expect(journalSvc.Delete(ctx, model.KindProduction, prod.ID)).To(MatchError(model.ErrInsufficientStock))

		By("deleting the sale")
		Expect(journalSvc.Delete(ctx, model.KindSale, sale.ID)).To(Succeed())
		Expect(stockOf(model.EntityProduct, item.ID).Equal(dec(10))).To(BeTrue())
		Expect(movementSum(model.EntityProduct, item.ID).Equal(dec(10))).To(BeTrue())

		records, err := journalSvc.List(ctx, model.RecordFilter{Kind: model.KindSale, ItemID: &item.ID})
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(BeEmpty())

		_, err = journalSvc.Edit(ctx, model.EditRecordParams{ID: sale.ID, Kind: model.KindSale, NewQuantity: dec(1)})
		Expect(err).To(MatchError(model.ErrRecordNotFound))
	})

	It("journals only non-negative balances when sold production grows", func() {
		item := newProduct(0)

		prod, err := journalSvc.Create(ctx, model.CreateRecordParams{Kind: model.KindProduction, ItemID: item.ID, Quantity: dec(10)})
		Expect(err).NotTo(HaveOccurred())
		_, err = journalSvc.Create(ctx, model.CreateRecordParams{Kind: model.KindSale, ItemID: item.ID, Quantity: dec(10), PartyName: "Acme"})
		Expect(err).NotTo(HaveOccurred())

		_, err = journalSvc.Edit(ctx, model.EditRecordParams{ID: prod.ID, Kind: model.KindProduction, NewQuantity: dec(12)})
		Expect(err).NotTo(HaveOccurred())
		Expect(stockOf(model.EntityProduct, item.ID).Equal(dec(2))).To(BeTrue())

		var negative int
		err = pgC.Pool().QueryRow(ctx, "SELECT count(*) FROM stock_movements WHERE entity_id = $1 AND balance < 0", item.ID).Scan(&negative)
		Expect(err).NotTo(HaveOccurred())
		Expect(negative).To(BeZero())
	})

	It("rejects values the numeric columns would round or overflow", func() {
		item := newProduct(5)
		p := newPart(1, 1)

		_, err := journalSvc.Create(ctx, model.CreateRecordParams{Kind: model.KindSale, ItemID: item.ID, Quantity: decimal.RequireFromString("0.00001"), PartyName: "Acme"})
		Expect(err).To(MatchError(model.ErrInvalidQuantity))

		_, err = journalSvc.Create(ctx, model.CreateRecordParams{Kind: model.KindProduction, ItemID: item.ID, Quantity: decimal.New(1, 14)})
		Expect(err).To(MatchError(model.ErrInvalidQuantity))

		price := decimal.RequireFromString("1.23456")
		_, err = journalSvc.CreatePurchase(ctx, model.CreatePurchaseParams{PartID: &p.ID, Quantity: dec(1), UnitPrice: &price})
		Expect(err).To(MatchError(model.ErrValidation))

		exact, err := journalSvc.Create(ctx, model.CreateRecordParams{Kind: model.KindProduction, ItemID: item.ID, Quantity: decimal.RequireFromString("1.2345")})
		Expect(err).NotTo(HaveOccurred())

		records, err := journalSvc.List(ctx, model.RecordFilter{Kind: model.KindProduction, ItemID: &item.ID})
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(HaveLen(1))
		Expect(records[0].Quantity.Equal(exact.Quantity)).To(BeTrue())
		Expect(stockOf(model.EntityProduct, item.ID).Equal(decimal.RequireFromString("6.2345"))).To(BeTrue())
	})

	It("stops a batch at the first failing record", func() {
		item := newProduct(0)

		res := journalSvc.CreateBatch(ctx, []model.CreateRecordParams{
			{Kind: model.KindProduction, ItemID: item.ID, Quantity: dec(5)},
			{Kind: model.KindSale, ItemID: item.ID, Quantity: dec(2), PartyName: "Acme"},
			{Kind: model.KindSale, ItemID: item.ID, Quantity: dec(50), PartyName: "Acme"},
			{Kind: model.KindProduction, ItemID: item.ID, Quantity: dec(1)},
		})
		Expect(res.Created).To(HaveLen(2))
		Expect(res.FailedIndex).To(Equal(2))
		Expect(res.Err).To(MatchError(model.ErrInsufficientStock))
		Expect(stockOf(model.EntityProduct, item.ID).Equal(dec(3))).To(BeTrue())
	})

	It("records purchases against a part looked up by name", func() {
		p := newPart(2, 3)
		price := decimal.RequireFromString("3.50")

		purchase, err := journalSvc.CreatePurchase(ctx, model.CreatePurchaseParams{
			PartName:  p.Name,
			Quantity:  dec(8),
			UnitPrice: &price,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(purchase.PartID).To(Equal(p.ID))

		Expect(stockOf(model.EntityPart, p.ID).Equal(dec(10))).To(BeTrue())

		purchases, err := journalSvc.ListPurchases(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(purchases).To(HaveLen(1))
		Expect(purchases[0].UnitPrice.Equal(price)).To(BeTrue())

		movements, err := ledgerSvc.Movements(ctx, &model.StockRef{Type: model.EntityPart, ID: p.ID}, ledger.DefaultMovementsLimit)
		Expect(err).NotTo(HaveOccurred())
		Expect(movements).To(HaveLen(2))
		Expect(movements[0].Reason).To(Equal(model.ReasonPurchase))
		Expect(movements[0].Balance.Equal(dec(10))).To(BeTrue())
	})
})

var _ = Describe("Reports", func() {
	It("summarizes stock and exports a workbook", func() {
		newPart(3, 1)
		newPart(50, 1)
		newProduct(1)

		stats, err := reportSvc.DashboardStats(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(stats.TotalParts).To(Equal(2))
		Expect(stats.TotalProducts).To(Equal(1))
		Expect(stats.LowStockCount).To(Equal(1))

		wb, err := reportSvc.Export(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(wb.Filename).To(HaveSuffix(".xlsx"))
		Expect(wb.Content).NotTo(BeEmpty())
	})
})
