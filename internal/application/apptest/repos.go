// Package apptest provides in-memory repository implementations backing the
// application-service tests. The fakes keep real state (ledger rows, derived
// sums, document numbers) so multi-step workflows can be exercised end to end
// without a database.
package apptest

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tradecore/backoffice/internal/domain/catalog"
	"github.com/tradecore/backoffice/internal/domain/finance"
	"github.com/tradecore/backoffice/internal/domain/inventory"
	"github.com/tradecore/backoffice/internal/domain/partner"
	"github.com/tradecore/backoffice/internal/domain/shared"
	"github.com/tradecore/backoffice/internal/domain/trade"
	"github.com/tradecore/backoffice/internal/domain/treasury"
)

// Repos is an in-memory implementation of every repository interface the
// application layer consumes. Its getter methods satisfy the per-context
// Repositories interfaces structurally, so one instance serves all services.
type Repos struct {
	Products    map[uuid.UUID]*catalog.Product
	Partners    map[uuid.UUID]*partner.Partner
	Warehouses  map[uuid.UUID]*partner.Warehouse
	Treasuries  map[uuid.UUID]*treasury.Treasury
	Invoices    map[uuid.UUID]*trade.Invoice
	Returns     map[uuid.UUID]*trade.Return
	Adjustments map[uuid.UUID]*trade.StockAdjustment
	Transfers   map[uuid.UUID]*trade.WarehouseTransfer
	Periods     map[uuid.UUID]*finance.EquityPeriod

	Movements    []*inventory.StockMovement
	Levels       map[string]*inventory.StockLevel
	TreasuryTxs  []*treasury.Transaction
	Installments []*finance.Installment
	Payments     []*finance.InvoicePayment

	seq map[string]int
}

// NewRepos creates an empty in-memory repository set
func NewRepos() *Repos {
	return &Repos{
		Products:    make(map[uuid.UUID]*catalog.Product),
		Partners:    make(map[uuid.UUID]*partner.Partner),
		Warehouses:  make(map[uuid.UUID]*partner.Warehouse),
		Treasuries:  make(map[uuid.UUID]*treasury.Treasury),
		Invoices:    make(map[uuid.UUID]*trade.Invoice),
		Returns:     make(map[uuid.UUID]*trade.Return),
		Adjustments: make(map[uuid.UUID]*trade.StockAdjustment),
		Transfers:   make(map[uuid.UUID]*trade.WarehouseTransfer),
		Periods:     make(map[uuid.UUID]*finance.EquityPeriod),
		Levels:      make(map[string]*inventory.StockLevel),
		seq:         make(map[string]int),
	}
}

func (r *Repos) next(prefix string) string {
	r.seq[prefix]++
	return fmt.Sprintf("%s-%05d", prefix, r.seq[prefix])
}

func levelKey(warehouseID, productID uuid.UUID) string {
	return warehouseID.String() + "/" + productID.String()
}

func inWindow(at, from, to time.Time) bool {
	return !at.Before(from) && at.Before(to)
}

// ProductRepo returns the product repository fake
func (r *Repos) ProductRepo() catalog.ProductRepository { return productRepo{r} }

// PartnerRepo returns the partner repository fake
func (r *Repos) PartnerRepo() partner.PartnerRepository { return partnerRepo{r} }

// WarehouseRepo returns the warehouse repository fake
func (r *Repos) WarehouseRepo() partner.WarehouseRepository { return warehouseRepo{r} }

// MovementRepo returns the stock movement repository fake
func (r *Repos) MovementRepo() inventory.StockMovementRepository { return movementRepo{r} }

// StockLevelRepo returns the stock level repository fake
func (r *Repos) StockLevelRepo() inventory.StockLevelRepository { return stockLevelRepo{r} }

// TreasuryRepo returns the treasury repository fake
func (r *Repos) TreasuryRepo() treasury.TreasuryRepository { return treasuryRepo{r} }

// TreasuryTxRepo returns the treasury transaction repository fake
func (r *Repos) TreasuryTxRepo() treasury.TransactionRepository { return treasuryTxRepo{r} }

// InvoiceRepo returns the invoice repository fake
func (r *Repos) InvoiceRepo() trade.InvoiceRepository { return invoiceRepo{r} }

// ReturnRepo returns the return repository fake
func (r *Repos) ReturnRepo() trade.ReturnRepository { return returnRepo{r} }

// AdjustmentRepo returns the adjustment repository fake
func (r *Repos) AdjustmentRepo() trade.AdjustmentRepository { return adjustmentRepo{r} }

// TransferRepo returns the transfer repository fake
func (r *Repos) TransferRepo() trade.TransferRepository { return transferRepo{r} }

// InstallmentRepo returns the installment repository fake
func (r *Repos) InstallmentRepo() finance.InstallmentRepository { return installmentRepo{r} }

// PaymentRepo returns the payment repository fake
func (r *Repos) PaymentRepo() finance.PaymentRepository { return paymentRepo{r} }

// EquityPeriodRepo returns the equity period repository fake
func (r *Repos) EquityPeriodRepo() finance.EquityPeriodRepository { return equityPeriodRepo{r} }

// ==================== catalog ====================

type productRepo struct{ r *Repos }

func (f productRepo) FindByID(_ context.Context, id uuid.UUID) (*catalog.Product, error) {
	p, ok := f.r.Products[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return p, nil
}

func (f productRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	out := make([]catalog.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := f.r.Products[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f productRepo) FindByCode(_ context.Context, code string) (*catalog.Product, error) {
	for _, p := range f.r.Products {
		if p.Code == code {
			return p, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (f productRepo) FindAll(_ context.Context, _ shared.Filter) ([]catalog.Product, error) {
	out := make([]catalog.Product, 0, len(f.r.Products))
	for _, p := range f.r.Products {
		out = append(out, *p)
	}
	return out, nil
}

func (f productRepo) Save(_ context.Context, product *catalog.Product) error {
	f.r.Products[product.ID] = product
	return nil
}

// ==================== partner ====================

type partnerRepo struct{ r *Repos }

func (f partnerRepo) FindByID(_ context.Context, id uuid.UUID) (*partner.Partner, error) {
	p, ok := f.r.Partners[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return p, nil
}

func (f partnerRepo) FindByType(_ context.Context, partnerType partner.PartnerType) ([]partner.Partner, error) {
	out := make([]partner.Partner, 0)
	ids := make([]uuid.UUID, 0, len(f.r.Partners))
	for id := range f.r.Partners {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	for _, id := range ids {
		if f.r.Partners[id].Type == partnerType {
			out = append(out, *f.r.Partners[id])
		}
	}
	return out, nil
}

func (f partnerRepo) FindAll(_ context.Context, _ shared.Filter) ([]partner.Partner, error) {
	out := make([]partner.Partner, 0, len(f.r.Partners))
	for _, p := range f.r.Partners {
		out = append(out, *p)
	}
	return out, nil
}

func (f partnerRepo) Save(_ context.Context, p *partner.Partner) error {
	f.r.Partners[p.ID] = p
	return nil
}

type warehouseRepo struct{ r *Repos }

func (f warehouseRepo) FindByID(_ context.Context, id uuid.UUID) (*partner.Warehouse, error) {
	w, ok := f.r.Warehouses[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return w, nil
}

func (f warehouseRepo) FindAll(_ context.Context, _ shared.Filter) ([]partner.Warehouse, error) {
	out := make([]partner.Warehouse, 0, len(f.r.Warehouses))
	for _, w := range f.r.Warehouses {
		out = append(out, *w)
	}
	return out, nil
}

func (f warehouseRepo) Save(_ context.Context, w *partner.Warehouse) error {
	f.r.Warehouses[w.ID] = w
	return nil
}

// ==================== inventory ====================

type movementRepo struct{ r *Repos }

func (f movementRepo) Append(_ context.Context, movement *inventory.StockMovement) error {
	f.r.Movements = append(f.r.Movements, movement)
	return nil
}

func (f movementRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	for _, m := range f.r.Movements {
		if m.ID == id {
			m.Deleted = true
			return nil
		}
	}
	return shared.ErrNotFound
}

func (f movementRepo) SumQuantity(_ context.Context, warehouseID, productID uuid.UUID) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, m := range f.r.Movements {
		if m.Deleted || m.WarehouseID != warehouseID || m.ProductID != productID {
			continue
		}
		sum = sum.Add(m.Quantity)
	}
	return sum, nil
}

func (f movementRepo) PurchaseCostPool(_ context.Context, productID uuid.UUID, asOf *time.Time) (inventory.CostPool, error) {
	pool := inventory.CostPool{TotalCost: decimal.Zero, TotalQuantity: decimal.Zero}
	for _, m := range f.r.Movements {
		if m.Deleted || m.ProductID != productID || !m.Kind.IsPurchaseSide() {
			continue
		}
		if asOf != nil && m.MovedAt.After(*asOf) {
			continue
		}
		pool.TotalCost = pool.TotalCost.Add(m.UnitCost.Mul(m.Quantity))
		pool.TotalQuantity = pool.TotalQuantity.Add(m.Quantity)
	}
	return pool, nil
}

func (f movementRepo) ListByWarehouseProduct(_ context.Context, warehouseID, productID uuid.UUID, from, to *time.Time) ([]inventory.StockMovement, error) {
	out := make([]inventory.StockMovement, 0)
	for _, m := range f.r.Movements {
		if m.Deleted || m.WarehouseID != warehouseID || m.ProductID != productID {
			continue
		}
		if from != nil && m.MovedAt.Before(*from) {
			continue
		}
		if to != nil && m.MovedAt.After(*to) {
			continue
		}
		out = append(out, *m)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].MovedAt.Before(out[j].MovedAt) })
	return out, nil
}

func (f movementRepo) ExistsBySource(_ context.Context, source shared.DocumentRef) (bool, error) {
	for _, m := range f.r.Movements {
		if !m.Deleted && m.Source == source {
			return true, nil
		}
	}
	return false, nil
}

func (f movementRepo) SumSaleCost(_ context.Context, from, to time.Time) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, m := range f.r.Movements {
		if m.Deleted || m.Kind != inventory.MovementKindSale {
			continue
		}
		if !inWindow(m.MovedAt, from, to) {
			continue
		}
		sum = sum.Add(m.Quantity.Neg().Mul(m.UnitCost))
	}
	return sum, nil
}

type stockLevelRepo struct{ r *Repos }

func (f stockLevelRepo) FindOrCreate(_ context.Context, warehouseID, productID uuid.UUID) (*inventory.StockLevel, error) {
	key := levelKey(warehouseID, productID)
	if level, ok := f.r.Levels[key]; ok {
		return level, nil
	}
	level, err := inventory.NewStockLevel(warehouseID, productID)
	if err != nil {
		return nil, err
	}
	f.r.Levels[key] = level
	return level, nil
}

func (f stockLevelRepo) FindForUpdate(ctx context.Context, warehouseID, productID uuid.UUID) (*inventory.StockLevel, error) {
	return f.FindOrCreate(ctx, warehouseID, productID)
}

func (f stockLevelRepo) Save(_ context.Context, level *inventory.StockLevel) error {
	f.r.Levels[levelKey(level.WarehouseID, level.ProductID)] = level
	return nil
}

// ==================== treasury ====================

type treasuryRepo struct{ r *Repos }

func (f treasuryRepo) FindByID(_ context.Context, id uuid.UUID) (*treasury.Treasury, error) {
	t, ok := f.r.Treasuries[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return t, nil
}

func (f treasuryRepo) FindForUpdate(ctx context.Context, id uuid.UUID) (*treasury.Treasury, error) {
	return f.FindByID(ctx, id)
}

func (f treasuryRepo) FindAll(_ context.Context, _ shared.Filter) ([]treasury.Treasury, error) {
	out := make([]treasury.Treasury, 0, len(f.r.Treasuries))
	for _, t := range f.r.Treasuries {
		out = append(out, *t)
	}
	return out, nil
}

func (f treasuryRepo) Save(_ context.Context, t *treasury.Treasury) error {
	f.r.Treasuries[t.ID] = t
	return nil
}

type treasuryTxRepo struct{ r *Repos }

func (f treasuryTxRepo) Append(_ context.Context, tx *treasury.Transaction) error {
	f.r.TreasuryTxs = append(f.r.TreasuryTxs, tx)
	return nil
}

func (f treasuryTxRepo) SumAmount(_ context.Context, treasuryID uuid.UUID) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, tx := range f.r.TreasuryTxs {
		if tx.TreasuryID == treasuryID {
			sum = sum.Add(tx.Amount)
		}
	}
	return sum, nil
}

func (f treasuryTxRepo) SumAmountBetween(_ context.Context, treasuryID uuid.UUID, from, to time.Time) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, tx := range f.r.TreasuryTxs {
		if tx.TreasuryID == treasuryID && inWindow(tx.OccurredAt, from, to) {
			sum = sum.Add(tx.Amount)
		}
	}
	return sum, nil
}

func (f treasuryTxRepo) SumByTypes(_ context.Context, types []treasury.TransactionType, from, to time.Time) (decimal.Decimal, error) {
	wanted := make(map[treasury.TransactionType]struct{}, len(types))
	for _, t := range types {
		wanted[t] = struct{}{}
	}
	sum := decimal.Zero
	for _, tx := range f.r.TreasuryTxs {
		if _, ok := wanted[tx.Type]; !ok {
			continue
		}
		if inWindow(tx.OccurredAt, from, to) {
			sum = sum.Add(tx.Amount)
		}
	}
	return sum, nil
}

func (f treasuryTxRepo) ListByPartner(_ context.Context, partnerID uuid.UUID) ([]treasury.Transaction, error) {
	out := make([]treasury.Transaction, 0)
	for _, tx := range f.r.TreasuryTxs {
		if tx.PartnerID != nil && *tx.PartnerID == partnerID {
			out = append(out, *tx)
		}
	}
	return out, nil
}

func (f treasuryTxRepo) ListByTreasury(_ context.Context, treasuryID uuid.UUID, from, to *time.Time) ([]treasury.Transaction, error) {
	out := make([]treasury.Transaction, 0)
	for _, tx := range f.r.TreasuryTxs {
		if tx.TreasuryID != treasuryID {
			continue
		}
		if from != nil && tx.OccurredAt.Before(*from) {
			continue
		}
		if to != nil && tx.OccurredAt.After(*to) {
			continue
		}
		out = append(out, *tx)
	}
	return out, nil
}

func (f treasuryTxRepo) ExistsBySource(_ context.Context, source shared.DocumentRef) (bool, error) {
	for _, tx := range f.r.TreasuryTxs {
		if tx.Source == source {
			return true, nil
		}
	}
	return false, nil
}

// ==================== trade ====================

type invoiceRepo struct{ r *Repos }

func (f invoiceRepo) FindByID(_ context.Context, id uuid.UUID) (*trade.Invoice, error) {
	inv, ok := f.r.Invoices[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return inv, nil
}

func (f invoiceRepo) FindForUpdate(ctx context.Context, id uuid.UUID) (*trade.Invoice, error) {
	return f.FindByID(ctx, id)
}

func (f invoiceRepo) FindAll(_ context.Context, _ shared.Filter) ([]trade.Invoice, error) {
	out := make([]trade.Invoice, 0, len(f.r.Invoices))
	for _, inv := range f.r.Invoices {
		out = append(out, *inv)
	}
	return out, nil
}

func (f invoiceRepo) ListPostedByPartner(_ context.Context, partnerID uuid.UUID) ([]trade.Invoice, error) {
	out := make([]trade.Invoice, 0)
	for _, inv := range f.r.Invoices {
		if inv.PartnerID == partnerID && inv.IsPosted() {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (f invoiceRepo) Save(_ context.Context, invoice *trade.Invoice) error {
	f.r.Invoices[invoice.ID] = invoice
	return nil
}

func (f invoiceRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.r.Invoices, id)
	return nil
}

func (f invoiceRepo) NextNumber(_ context.Context, kind trade.InvoiceKind) (string, error) {
	if kind == trade.InvoiceKindPurchase {
		return f.r.next("PI"), nil
	}
	return f.r.next("SI"), nil
}

func (f invoiceRepo) SumPostedTotals(_ context.Context, kind trade.InvoiceKind, from, to time.Time) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, inv := range f.r.Invoices {
		if inv.Kind != kind || !inv.IsPosted() || inv.PostedAt == nil {
			continue
		}
		if inWindow(*inv.PostedAt, from, to) {
			sum = sum.Add(inv.Total)
		}
	}
	return sum, nil
}

type returnRepo struct{ r *Repos }

func (f returnRepo) FindByID(_ context.Context, id uuid.UUID) (*trade.Return, error) {
	ret, ok := f.r.Returns[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return ret, nil
}

func (f returnRepo) FindForUpdate(ctx context.Context, id uuid.UUID) (*trade.Return, error) {
	return f.FindByID(ctx, id)
}

func (f returnRepo) FindAll(_ context.Context, _ shared.Filter) ([]trade.Return, error) {
	out := make([]trade.Return, 0, len(f.r.Returns))
	for _, ret := range f.r.Returns {
		out = append(out, *ret)
	}
	return out, nil
}

func (f returnRepo) ListPostedByPartner(_ context.Context, partnerID uuid.UUID) ([]trade.Return, error) {
	out := make([]trade.Return, 0)
	for _, ret := range f.r.Returns {
		if ret.PartnerID == partnerID && ret.IsPosted() {
			out = append(out, *ret)
		}
	}
	return out, nil
}

func (f returnRepo) Save(_ context.Context, ret *trade.Return) error {
	f.r.Returns[ret.ID] = ret
	return nil
}

func (f returnRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.r.Returns, id)
	return nil
}

func (f returnRepo) NextNumber(_ context.Context, kind trade.ReturnKind) (string, error) {
	if kind == trade.ReturnKindPurchase {
		return f.r.next("PR"), nil
	}
	return f.r.next("SR"), nil
}

func (f returnRepo) SumPostedLineQuantity(_ context.Context, invoiceID, productID uuid.UUID) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, ret := range f.r.Returns {
		if ret.InvoiceID != invoiceID || !ret.IsPosted() {
			continue
		}
		sum = sum.Add(ret.LineQuantity(productID))
	}
	return sum, nil
}

func (f returnRepo) SumPostedTotalsByInvoice(_ context.Context, invoiceID uuid.UUID) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, ret := range f.r.Returns {
		if ret.InvoiceID == invoiceID && ret.IsPosted() {
			sum = sum.Add(ret.Total)
		}
	}
	return sum, nil
}

func (f returnRepo) SumPostedTotals(_ context.Context, kind trade.ReturnKind, from, to time.Time) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, ret := range f.r.Returns {
		if ret.Kind != kind || !ret.IsPosted() || ret.PostedAt == nil {
			continue
		}
		if inWindow(*ret.PostedAt, from, to) {
			sum = sum.Add(ret.Total)
		}
	}
	return sum, nil
}

type adjustmentRepo struct{ r *Repos }

func (f adjustmentRepo) FindByID(_ context.Context, id uuid.UUID) (*trade.StockAdjustment, error) {
	adj, ok := f.r.Adjustments[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return adj, nil
}

func (f adjustmentRepo) FindForUpdate(ctx context.Context, id uuid.UUID) (*trade.StockAdjustment, error) {
	return f.FindByID(ctx, id)
}

func (f adjustmentRepo) Save(_ context.Context, adjustment *trade.StockAdjustment) error {
	f.r.Adjustments[adjustment.ID] = adjustment
	return nil
}

func (f adjustmentRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.r.Adjustments, id)
	return nil
}

func (f adjustmentRepo) NextNumber(_ context.Context) (string, error) {
	return f.r.next("ADJ"), nil
}

type transferRepo struct{ r *Repos }

func (f transferRepo) FindByID(_ context.Context, id uuid.UUID) (*trade.WarehouseTransfer, error) {
	tr, ok := f.r.Transfers[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return tr, nil
}

func (f transferRepo) FindForUpdate(ctx context.Context, id uuid.UUID) (*trade.WarehouseTransfer, error) {
	return f.FindByID(ctx, id)
}

func (f transferRepo) Save(_ context.Context, transfer *trade.WarehouseTransfer) error {
	f.r.Transfers[transfer.ID] = transfer
	return nil
}

func (f transferRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.r.Transfers, id)
	return nil
}

func (f transferRepo) NextNumber(_ context.Context) (string, error) {
	return f.r.next("TRF"), nil
}

// ==================== finance ====================

type installmentRepo struct{ r *Repos }

func (f installmentRepo) ExistsByInvoice(_ context.Context, invoiceID uuid.UUID) (bool, error) {
	for _, inst := range f.r.Installments {
		if inst.InvoiceID == invoiceID {
			return true, nil
		}
	}
	return false, nil
}

func (f installmentRepo) FindOpenByInvoiceForUpdate(_ context.Context, invoiceID uuid.UUID) ([]finance.Installment, error) {
	out := make([]finance.Installment, 0)
	for _, inst := range f.r.Installments {
		if inst.InvoiceID == invoiceID && inst.Status != finance.InstallmentStatusPaid {
			out = append(out, *inst)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out, nil
}

func (f installmentRepo) ListByInvoice(_ context.Context, invoiceID uuid.UUID) ([]finance.Installment, error) {
	out := make([]finance.Installment, 0)
	for _, inst := range f.r.Installments {
		if inst.InvoiceID == invoiceID {
			out = append(out, *inst)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out, nil
}

func (f installmentRepo) ListDueBefore(_ context.Context, asOf time.Time) ([]finance.Installment, error) {
	out := make([]finance.Installment, 0)
	for _, inst := range f.r.Installments {
		if inst.Status == finance.InstallmentStatusPending && inst.DueDate.Before(asOf) {
			out = append(out, *inst)
		}
	}
	return out, nil
}

func (f installmentRepo) SaveAll(ctx context.Context, installments []finance.Installment) error {
	for idx := range installments {
		inst := installments[idx]
		if err := f.Save(ctx, &inst); err != nil {
			return err
		}
	}
	return nil
}

func (f installmentRepo) Save(_ context.Context, installment *finance.Installment) error {
	for idx, inst := range f.r.Installments {
		if inst.ID == installment.ID {
			f.r.Installments[idx] = installment
			return nil
		}
	}
	f.r.Installments = append(f.r.Installments, installment)
	return nil
}

type paymentRepo struct{ r *Repos }

func (f paymentRepo) FindByID(_ context.Context, id uuid.UUID) (*finance.InvoicePayment, error) {
	for _, p := range f.r.Payments {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (f paymentRepo) ListByInvoice(_ context.Context, invoiceID uuid.UUID) ([]finance.InvoicePayment, error) {
	out := make([]finance.InvoicePayment, 0)
	for _, p := range f.r.Payments {
		if p.InvoiceID == invoiceID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f paymentRepo) ListByPartner(_ context.Context, partnerID uuid.UUID) ([]finance.InvoicePayment, error) {
	out := make([]finance.InvoicePayment, 0)
	for _, p := range f.r.Payments {
		if p.PartnerID == partnerID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f paymentRepo) SumSettledByInvoice(_ context.Context, invoiceID uuid.UUID) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, p := range f.r.Payments {
		if p.InvoiceID == invoiceID {
			sum = sum.Add(p.SettlementValue())
		}
	}
	return sum, nil
}

func (f paymentRepo) SumSettledByPartner(_ context.Context, partnerID uuid.UUID) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, p := range f.r.Payments {
		if p.PartnerID == partnerID {
			sum = sum.Add(p.SettlementValue())
		}
	}
	return sum, nil
}

func (f paymentRepo) Save(_ context.Context, payment *finance.InvoicePayment) error {
	for idx, p := range f.r.Payments {
		if p.ID == payment.ID {
			f.r.Payments[idx] = payment
			return nil
		}
	}
	f.r.Payments = append(f.r.Payments, payment)
	return nil
}

type equityPeriodRepo struct{ r *Repos }

func (f equityPeriodRepo) FindByID(_ context.Context, id uuid.UUID) (*finance.EquityPeriod, error) {
	p, ok := f.r.Periods[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return p, nil
}

func (f equityPeriodRepo) FindOpenForUpdate(_ context.Context) (*finance.EquityPeriod, error) {
	for _, p := range f.r.Periods {
		if p.IsOpen() {
			return p, nil
		}
	}
	return nil, nil
}

func (f equityPeriodRepo) FindOpen(ctx context.Context) (*finance.EquityPeriod, error) {
	return f.FindOpenForUpdate(ctx)
}

func (f equityPeriodRepo) ListClosed(_ context.Context) ([]finance.EquityPeriod, error) {
	out := make([]finance.EquityPeriod, 0)
	for _, p := range f.r.Periods {
		if !p.IsOpen() {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

func (f equityPeriodRepo) Save(_ context.Context, period *finance.EquityPeriod) error {
	f.r.Periods[period.ID] = period
	return nil
}
