package pos_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"medeasy/pos/domain"
	"medeasy/pos/internal/pos"
	"medeasy/pos/internal/store"
	"medeasy/pos/internal/store/storetest"
)

var fixedNow = time.Date(2026, 10, 16, 10, 30, 0, 0, time.UTC)

type fixture struct {
	svc   *pos.Service
	store *store.Store
	a, b  int64
}

func newFixture(t *testing.T, opts ...pos.Option) fixture {
	t.Helper()
	return newFixtureWithLogger(t, zaptest.NewLogger(t), opts...)
}

func newFixtureWithLogger(t *testing.T, log *zap.Logger, opts ...pos.Option) fixture {
	t.Helper()
	st := storetest.Open(t)
	opts = append([]pos.Option{pos.WithClock(func() time.Time { return fixedNow })}, opts...)
	return fixture{
		svc:   pos.New(st, log, opts...),
		store: st,
		a:     storetest.Tenant(t, st, "a@store.test"),
		b:     storetest.Tenant(t, st, "b@store.test"),
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func medicine(name string, qty int64, price, discount string) pos.MedicineInput {
	return pos.MedicineInput{
		Name:       name,
		Category:   "tablet",
		ExpiryDate: time.Date(2027, 6, 30, 0, 0, 0, 0, time.UTC),
		Quantity:   qty,
		Price:      dec(price),
		Discount:   dec(discount),
	}
}

func (f fixture) quantity(t *testing.T, tenantID, id int64) int64 {
	t.Helper()
	m, err := f.store.GetMedicine(context.Background(), tenantID, id)
	require.NoError(t, err)
	return m.Quantity
}

func TestSaleAndPartialReturnScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	med, err := f.svc.AddMedicine(ctx, f.a, medicine("Paracetamol", 100, "10", "10"))
	require.NoError(t, err)

	sale, err := f.svc.RecordSaleLine(ctx, f.a, pos.SaleLineInput{
		InvoiceID: "INV-1",
		CartLine:  pos.CartLine{MedicineID: med.ID, Quantity: 20},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(80), f.quantity(t, f.a, med.ID))
	assert.True(t, sale.TotalAmount.Equal(dec("180")), "total %s", sale.TotalAmount)
	assert.True(t, sale.DiscountGiven.Equal(dec("10")))
	assert.Equal(t, domain.DefaultPatientName, sale.PatientName)
	assert.Equal(t, "Paracetamol", sale.MedicineName)
	assert.True(t, sale.SaleDate.Equal(fixedNow))

	res, err := f.svc.ProcessReturn(ctx, f.a, sale.ID, 5)
	require.NoError(t, err)
	assert.True(t, res.RefundAmount.Equal(dec("45")), "refund %s", res.RefundAmount)
	assert.True(t, res.StockRestored)
	require.NotNil(t, res.Sale)
	assert.Equal(t, int64(15), res.Sale.QuantitySold)
	assert.True(t, res.Sale.TotalAmount.Equal(dec("135")))
	assert.True(t, res.Sale.EffectiveUnitPrice().Equal(sale.EffectiveUnitPrice()))
	assert.Equal(t, int64(85), f.quantity(t, f.a, med.ID))

	stored, err := f.store.GetSale(ctx, f.a, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(15), stored.QuantitySold)
	assert.True(t, stored.TotalAmount.Equal(dec("135")))
}

func TestRecordSaleLine_ExplicitDiscount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	med, err := f.svc.AddMedicine(ctx, f.a, medicine("Omeprazole", 10, "3.33", "0"))
	require.NoError(t, err)

	sale, err := f.svc.RecordSaleLine(ctx, f.a, pos.SaleLineInput{
		InvoiceID:   "INV-7",
		PatientName: "  Rahim ",
		CartLine:    pos.CartLine{MedicineID: med.ID, Quantity: 3, Discount: decPtr("15")},
	})
	require.NoError(t, err)
	assert.True(t, sale.TotalAmount.Equal(dec("8.49")), "total %s", sale.TotalAmount)
	assert.Equal(t, "Rahim", sale.PatientName)
	assert.Equal(t, int64(7), f.quantity(t, f.a, med.ID))
}

func TestRecordSaleLine_Rejections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	med, err := f.svc.AddMedicine(ctx, f.a, medicine("Cetirizine", 5, "2", "0"))
	require.NoError(t, err)

	cases := []struct {
		name string
		in   pos.SaleLineInput
		want error
	}{
		{"missing invoice", pos.SaleLineInput{CartLine: pos.CartLine{MedicineID: med.ID, Quantity: 1}}, domain.ErrValidation},
		{"zero quantity", pos.SaleLineInput{InvoiceID: "I", CartLine: pos.CartLine{MedicineID: med.ID}}, domain.ErrInvalidQuantity},
		{"negative quantity", pos.SaleLineInput{InvoiceID: "I", CartLine: pos.CartLine{MedicineID: med.ID, Quantity: -2}}, domain.ErrInvalidQuantity},
		{"discount above 100", pos.SaleLineInput{InvoiceID: "I", CartLine: pos.CartLine{MedicineID: med.ID, Quantity: 1, Discount: decPtr("101")}}, domain.ErrValidation},
		{"unknown medicine", pos.SaleLineInput{InvoiceID: "I", CartLine: pos.CartLine{MedicineID: 9999, Quantity: 1}}, domain.ErrNotFound},
		{"not enough stock", pos.SaleLineInput{InvoiceID: "I", CartLine: pos.CartLine{MedicineID: med.ID, Quantity: 6}}, domain.ErrInsufficientStock},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.RecordSaleLine(ctx, f.a, tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	_, err = f.svc.RecordSaleLine(ctx, f.a, pos.SaleLineInput{InvoiceID: "I", CartLine: pos.CartLine{MedicineID: med.ID, Quantity: 6}})
	assert.EqualError(t, err, "Insufficient Stock for Cetirizine")
	assert.Equal(t, int64(5), f.quantity(t, f.a, med.ID))

	history, err := f.svc.SalesHistory(ctx, f.a)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestProcessReturn_OverReturnChangesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	med, err := f.svc.AddMedicine(ctx, f.a, medicine("Ibuprofen", 50, "4", "0"))
	require.NoError(t, err)
	sale, err := f.svc.RecordSaleLine(ctx, f.a, pos.SaleLineInput{InvoiceID: "INV-2", CartLine: pos.CartLine{MedicineID: med.ID, Quantity: 10}})
	require.NoError(t, err)

	for _, qty := range []int64{11, 0, -1} {
		_, err = f.svc.ProcessReturn(ctx, f.a, sale.ID, qty)
		assert.ErrorIs(t, err, domain.ErrInvalidQuantity, "qty %d", qty)
	}

	assert.Equal(t, int64(40), f.quantity(t, f.a, med.ID))
	stored, err := f.store.GetSale(ctx, f.a, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), stored.QuantitySold)
	assert.True(t, stored.TotalAmount.Equal(dec("40")))
}

func TestProcessReturn_FullReturnDeletesLine(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	med, err := f.svc.AddMedicine(ctx, f.a, medicine("Amoxicillin", 30, "10", "0"))
	require.NoError(t, err)
	sale, err := f.svc.RecordSaleLine(ctx, f.a, pos.SaleLineInput{
		InvoiceID: "INV-3",
		CartLine:  pos.CartLine{MedicineID: med.ID, Quantity: 3, Discount: decPtr("0")},
	})
	require.NoError(t, err)

	first, err := f.svc.ProcessReturn(ctx, f.a, sale.ID, 1)
	require.NoError(t, err)
	last, err := f.svc.ProcessReturn(ctx, f.a, sale.ID, 2)
	require.NoError(t, err)

	assert.Nil(t, last.Sale)
	assert.True(t, first.RefundAmount.Add(last.RefundAmount).Equal(sale.TotalAmount))
	assert.Equal(t, int64(30), f.quantity(t, f.a, med.ID))

	_, err = f.store.GetSale(ctx, f.a, sale.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.svc.ProcessReturn(ctx, f.a, sale.ID, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProcessReturn_DeletedMedicineIsReported(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zap.InfoLevel)
	f := newFixtureWithLogger(t, zap.New(core))

	med, err := f.svc.AddMedicine(ctx, f.a, medicine("Insulin", 10, "25", "0"))
	require.NoError(t, err)
	sale, err := f.svc.RecordSaleLine(ctx, f.a, pos.SaleLineInput{InvoiceID: "INV-4", CartLine: pos.CartLine{MedicineID: med.ID, Quantity: 4}})
	require.NoError(t, err)
	require.NoError(t, f.svc.DeleteMedicine(ctx, f.a, med.ID))

	res, err := f.svc.ProcessReturn(ctx, f.a, sale.ID, 2)
	require.NoError(t, err)
	assert.False(t, res.StockRestored)
	assert.True(t, res.RefundAmount.Equal(dec("50")))

	warnings := logs.FilterLevelExact(zap.WarnLevel).All()
	require.Len(t, warnings, 1)
	assert.Equal(t, "Insulin", warnings[0].ContextMap()["medicine_name"])
}

func TestTenantIsolation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	med, err := f.svc.AddMedicine(ctx, f.a, medicine("Paracetamol", 100, "10", "0"))
	require.NoError(t, err)
	sale, err := f.svc.RecordSaleLine(ctx, f.a, pos.SaleLineInput{InvoiceID: "INV-1", CartLine: pos.CartLine{MedicineID: med.ID, Quantity: 1}})
	require.NoError(t, err)

	meds, err := f.svc.ListMedicines(ctx, f.b)
	require.NoError(t, err)
	assert.Empty(t, meds)

	history, err := f.svc.SalesHistory(ctx, f.b)
	require.NoError(t, err)
	assert.Empty(t, history)

	_, err = f.svc.RecordSaleLine(ctx, f.b, pos.SaleLineInput{InvoiceID: "X", CartLine: pos.CartLine{MedicineID: med.ID, Quantity: 1}})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.ProcessReturn(ctx, f.b, sale.ID, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.UpdateMedicine(ctx, f.b, med.ID, medicine("Hijacked", 1, "1", "0"))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, f.svc.DeleteMedicine(ctx, f.b, med.ID))
	assert.Equal(t, int64(99), f.quantity(t, f.a, med.ID))
}

func TestShortageGatingAndClearing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.AddMedicine(ctx, f.a, medicine("Napa Extra", 5, "2", "0"))
	require.NoError(t, err)

	_, err = f.svc.AddDemand(ctx, f.a, "napa")
	assert.ErrorIs(t, err, domain.ErrAlreadyInStock)
	assert.EqualError(t, err, "Napa Extra is already in stock (Qty: 5)")

	_, err = f.svc.AddDemand(ctx, f.a, "   ")
	assert.ErrorIs(t, err, domain.ErrValidation)

	// another tenant's stock does not gate
	_, err = f.svc.AddDemand(ctx, f.b, "Napa")
	require.NoError(t, err)

	note, err := f.svc.AddDemand(ctx, f.a, "Seclo 20mg")
	require.NoError(t, err)
	assert.True(t, note.NoteDate.Equal(fixedNow))

	_, err = f.svc.AddMedicine(ctx, f.a, medicine("seclo", 0, "5", "0"))
	require.NoError(t, err)
	demands, err := f.svc.ListDemands(ctx, f.a)
	require.NoError(t, err)
	assert.Len(t, demands, 1, "items added without stock keep the note")

	_, err = f.svc.AddMedicine(ctx, f.a, medicine("Seclo", 10, "5", "0"))
	require.NoError(t, err)
	demands, err = f.svc.ListDemands(ctx, f.a)
	require.NoError(t, err)
	assert.Empty(t, demands)

	other, err := f.svc.ListDemands(ctx, f.b)
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

func TestShortageClearedByUpdateAndReturn(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	med, err := f.svc.AddMedicine(ctx, f.a, medicine("Ventolin", 2, "100", "0"))
	require.NoError(t, err)
	sale, err := f.svc.RecordSaleLine(ctx, f.a, pos.SaleLineInput{InvoiceID: "I", CartLine: pos.CartLine{MedicineID: med.ID, Quantity: 2}})
	require.NoError(t, err)

	_, err = f.svc.AddDemand(ctx, f.a, "Ventolin Inhaler")
	require.NoError(t, err)
	_, err = f.svc.ProcessReturn(ctx, f.a, sale.ID, 1)
	require.NoError(t, err)
	demands, err := f.svc.ListDemands(ctx, f.a)
	require.NoError(t, err)
	assert.Empty(t, demands)

	_, err = f.svc.UpdateMedicine(ctx, f.a, med.ID, medicine("Ventolin", 0, "100", "0"))
	require.NoError(t, err)
	_, err = f.svc.AddDemand(ctx, f.a, "Ventolin Inhaler")
	require.NoError(t, err)

	updated, err := f.svc.UpdateMedicine(ctx, f.a, med.ID, medicine("Ventolin", 12, "110", "5"))
	require.NoError(t, err)
	assert.Equal(t, int64(12), updated.Quantity)
	assert.True(t, updated.Price.Equal(dec("110")))
	demands, err = f.svc.ListDemands(ctx, f.a)
	require.NoError(t, err)
	assert.Empty(t, demands)

	note, err := f.svc.AddDemand(ctx, f.a, "Montelukast")
	require.NoError(t, err)
	require.NoError(t, f.svc.RemoveDemand(ctx, f.b, note.ID))
	require.NoError(t, f.svc.RemoveDemand(ctx, f.a, note.ID))
	demands, err = f.svc.ListDemands(ctx, f.a)
	require.NoError(t, err)
	assert.Empty(t, demands)
}

func TestAddMedicine_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	bad := medicine("X", 1, "1", "0")
	bad.Category = "Powder"
	_, err := f.svc.AddMedicine(ctx, f.a, bad)
	assert.ErrorIs(t, err, domain.ErrValidation)

	bad = medicine("X", -1, "1", "0")
	_, err = f.svc.AddMedicine(ctx, f.a, bad)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	bad = medicine("X", 1, "-1", "0")
	_, err = f.svc.AddMedicine(ctx, f.a, bad)
	assert.ErrorIs(t, err, domain.ErrValidation)

	bad = medicine("X", 1, "1", "120")
	_, err = f.svc.AddMedicine(ctx, f.a, bad)
	assert.ErrorIs(t, err, domain.ErrValidation)

	bad = medicine("", 1, "1", "0")
	_, err = f.svc.AddMedicine(ctx, f.a, bad)
	assert.ErrorIs(t, err, domain.ErrValidation)

	meds, err := f.svc.ListMedicines(ctx, f.a)
	require.NoError(t, err)
	assert.Empty(t, meds)
}

func TestConcurrentSales_OneWins(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	med, err := f.svc.AddMedicine(ctx, f.a, medicine("Paracetamol", 100, "10", "0"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.RecordSaleLine(ctx, f.a, pos.SaleLineInput{
				InvoiceID: "INV-C",
				CartLine:  pos.CartLine{MedicineID: med.ID, Quantity: 60},
			})
		}(i)
	}
	wg.Wait()

	var ok, short int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case assert.ErrorIs(t, err, domain.ErrInsufficientStock):
			short++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, short)
	assert.Equal(t, int64(40), f.quantity(t, f.a, med.ID))
}

func TestCheckout(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	para, err := f.svc.AddMedicine(ctx, f.a, medicine("Paracetamol", 100, "10", "10"))
	require.NoError(t, err)
	amox, err := f.svc.AddMedicine(ctx, f.a, medicine("Amoxicillin", 5, "20", "0"))
	require.NoError(t, err)

	invoice, err := f.svc.Checkout(ctx, f.a, pos.CheckoutInput{
		PatientName: "Karim",
		Items: []pos.CartLine{
			{MedicineID: para.ID, Quantity: 20},
			{MedicineID: amox.ID, Quantity: 2, Discount: decPtr("50")},
		},
	})
	require.NoError(t, err)
	assert.Regexp(t, `^INV-[0-9a-f-]{36}$`, invoice.InvoiceID)
	require.Len(t, invoice.Lines, 2)
	assert.True(t, invoice.GrandTotal.Equal(dec("200")), "grand total %s", invoice.GrandTotal)
	for _, l := range invoice.Lines {
		assert.Equal(t, invoice.InvoiceID, l.InvoiceID)
		assert.Equal(t, "Karim", l.PatientName)
	}

	read, err := f.svc.Invoice(ctx, f.a, invoice.InvoiceID)
	require.NoError(t, err)
	assert.Len(t, read.Lines, 2)
	assert.True(t, read.GrandTotal.Equal(invoice.GrandTotal))

	_, err = f.svc.Invoice(ctx, f.b, invoice.InvoiceID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCheckout_RollsBackWholeCart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	para, err := f.svc.AddMedicine(ctx, f.a, medicine("Paracetamol", 100, "10", "0"))
	require.NoError(t, err)
	amox, err := f.svc.AddMedicine(ctx, f.a, medicine("Amoxicillin", 5, "20", "0"))
	require.NoError(t, err)

	_, err = f.svc.Checkout(ctx, f.a, pos.CheckoutInput{
		InvoiceID: "INV-R",
		Items: []pos.CartLine{
			{MedicineID: para.ID, Quantity: 10},
			{MedicineID: amox.ID, Quantity: 3},
			{MedicineID: amox.ID, Quantity: 3},
		},
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.EqualError(t, err, "item 3: Insufficient Stock for Amoxicillin")

	assert.Equal(t, int64(100), f.quantity(t, f.a, para.ID))
	assert.Equal(t, int64(5), f.quantity(t, f.a, amox.ID))
	_, err = f.svc.Invoice(ctx, f.a, "INV-R")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.Checkout(ctx, f.a, pos.CheckoutInput{})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.Checkout(ctx, f.a, pos.CheckoutInput{Items: []pos.CartLine{{MedicineID: para.ID}}})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	assert.EqualError(t, err, "item 1: quantity must be greater than zero")
}

func TestDashboard(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, pos.WithLowStockThreshold(10), pos.WithExpiryWindow(30))

	soon := medicine("Soon", 5, "2", "0")
	soon.ExpiryDate = time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	sooner := medicine("Sooner", 50, "1", "0")
	sooner.ExpiryDate = time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)
	expired := medicine("Expired", 20, "3", "0")
	expired.ExpiryDate = time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	for _, in := range []pos.MedicineInput{soon, sooner, expired, medicine("Later", 0, "9", "0")} {
		_, err := f.svc.AddMedicine(ctx, f.a, in)
		require.NoError(t, err)
	}

	stats, err := f.svc.Stats(ctx, f.a)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalMedicines)
	assert.Equal(t, 2, stats.LowStockItems)
	assert.Equal(t, 2, stats.ExpiringSoon)
	assert.True(t, stats.TotalStockValue.Equal(dec("120")), "stock value %s", stats.TotalStockValue)

	expiring, err := f.svc.ExpiringSoon(ctx, f.a)
	require.NoError(t, err)
	require.Len(t, expiring, 2)
	assert.Equal(t, "Sooner", expiring[0].Name)
	assert.Equal(t, "Soon", expiring[1].Name)

	low, err := f.svc.LowStock(ctx, f.a)
	require.NoError(t, err)
	require.Len(t, low, 2)
	assert.Equal(t, "Later", low[0].Name)

	empty, err := f.svc.Stats(ctx, f.b)
	require.NoError(t, err)
	assert.Zero(t, empty.TotalMedicines)
	assert.True(t, empty.TotalStockValue.IsZero())
}

func TestSalesChart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	med, err := f.svc.AddMedicine(ctx, f.a, medicine("Paracetamol", 100, "10", "0"))
	require.NoError(t, err)

	old := domain.SaleLine{
		InvoiceID: "OLD", MedicineID: med.ID, MedicineName: med.Name, PatientName: domain.DefaultPatientName,
		QuantitySold: 1, PricePerUnit: dec("10"), DiscountGiven: dec("0"), TotalAmount: dec("10"),
		SaleDate: fixedNow.AddDate(0, 0, -3),
	}
	require.NoError(t, f.store.InsertSale(ctx, f.a, &old))
	ancient := old
	ancient.SaleDate = fixedNow.AddDate(0, 0, -30)
	require.NoError(t, f.store.InsertSale(ctx, f.a, &ancient))

	_, err = f.svc.RecordSaleLine(ctx, f.a, pos.SaleLineInput{InvoiceID: "NOW", CartLine: pos.CartLine{MedicineID: med.ID, Quantity: 2}})
	require.NoError(t, err)

	points, err := f.svc.SalesChart(ctx, f.a)
	require.NoError(t, err)
	require.Len(t, points, 7)
	assert.Equal(t, "2026-10-10", points[0].Date)
	assert.Equal(t, "2026-10-16", points[6].Date)
	assert.True(t, points[3].TotalSales.Equal(dec("10")), "day -3 %s", points[3].TotalSales)
	assert.True(t, points[6].TotalSales.Equal(dec("20")), "today %s", points[6].TotalSales)
	assert.True(t, points[0].TotalSales.IsZero())
}
