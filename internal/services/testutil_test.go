package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/atiaa9916/stp-backend/internal/config"
	"github.com/atiaa9916/stp-backend/internal/models"
	"github.com/atiaa9916/stp-backend/internal/repositories/interfaces"
	"github.com/atiaa9916/stp-backend/internal/utils"
	"github.com/atiaa9916/stp-backend/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// passthroughRunner satisfies TransactionRunner without a database. Tests
// arrange preconditions so failures happen before any mutation, matching the
// all-or-nothing behavior the real runner provides.
type passthroughRunner struct{}

func (passthroughRunner) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func testLogger() *logger.Logger {
	log, _ := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Format: "text"})
	return log
}

func duplicateKeyError() error {
	return mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000}}}
}

// fakeWalletRepo keeps wallets in memory, keyed by wallet id.
type fakeWalletRepo struct {
	mu      sync.Mutex
	wallets map[primitive.ObjectID]*models.Wallet
}

func newFakeWalletRepo() *fakeWalletRepo {
	return &fakeWalletRepo{wallets: make(map[primitive.ObjectID]*models.Wallet)}
}

func (f *fakeWalletRepo) Create(ctx context.Context, wallet *models.Wallet) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	wallet.ID = primitive.NewObjectID()
	wallet.CreatedAt = time.Now()
	wallet.UpdatedAt = wallet.CreatedAt
	copied := *wallet
	f.wallets[wallet.ID] = &copied
	return nil
}

func (f *fakeWalletRepo) GetByUser(ctx context.Context, userID primitive.ObjectID) (*models.Wallet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var best *models.Wallet
	for _, w := range f.wallets {
		if w.UserID != userID {
			continue
		}
		if best == nil || w.Balance > best.Balance ||
			(w.Balance == best.Balance && w.UpdatedAt.After(best.UpdatedAt)) {
			best = w
		}
	}
	if best == nil {
		return nil, nil
	}
	copied := *best
	return &copied, nil
}

func (f *fakeWalletRepo) SetBalance(ctx context.Context, id primitive.ObjectID, balance int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	wallet, ok := f.wallets[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	wallet.Balance = balance
	wallet.UpdatedAt = time.Now()
	return nil
}

// seed creates a wallet with a balance and returns the user id.
func (f *fakeWalletRepo) seed(userID primitive.ObjectID, balance int64) {
	wallet := &models.Wallet{UserID: userID, Balance: balance, Currency: utils.DefaultCurrency}
	_ = f.Create(context.Background(), wallet)
}

type fakeTransactionRepo struct {
	mu      sync.Mutex
	entries []*models.Transaction
}

func newFakeTransactionRepo() *fakeTransactionRepo {
	return &fakeTransactionRepo{}
}

func (f *fakeTransactionRepo) Create(ctx context.Context, transaction *models.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	transaction.ID = primitive.NewObjectID()
	transaction.CreatedAt = time.Now()
	transaction.UpdatedAt = transaction.CreatedAt
	copied := *transaction
	f.entries = append(f.entries, &copied)
	return nil
}

func (f *fakeTransactionRepo) GetByUser(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Transaction, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Transaction
	for _, e := range f.entries {
		if e.UserID == userID {
			copied := *e
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, int64(len(out)), nil
}

func (f *fakeTransactionRepo) List(ctx context.Context, filter *interfaces.TransactionFilter, params *utils.PaginationParams) ([]*models.Transaction, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Transaction
	for _, e := range f.entries {
		if filter != nil {
			if filter.UserID != nil && e.UserID != *filter.UserID {
				continue
			}
			if filter.TripID != nil && (e.RelatedTrip == nil || *e.RelatedTrip != *filter.TripID) {
				continue
			}
			if filter.Type != "" && e.Type != filter.Type {
				continue
			}
		}
		copied := *e
		out = append(out, &copied)
	}
	return out, int64(len(out)), nil
}

func (f *fakeTransactionRepo) SumByUser(ctx context.Context, userID primitive.ObjectID) (*interfaces.LedgerSums, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sums := &interfaces.LedgerSums{}
	for _, e := range f.entries {
		if e.UserID != userID {
			continue
		}
		if e.Type == models.TransactionTypeCredit {
			sums.Credit += e.Amount
		} else {
			sums.Debit += e.Amount
		}
	}
	return sums, nil
}

func (f *fakeTransactionRepo) CountByTrip(ctx context.Context, tripID primitive.ObjectID, txType models.TransactionType) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, e := range f.entries {
		if e.RelatedTrip != nil && *e.RelatedTrip == tripID && e.Type == txType {
			count++
		}
	}
	return count, nil
}

// countByTripAndUser narrows CountByTrip to one user, for the
// one-debit-per-trip assertions.
func (f *fakeTransactionRepo) countByTripAndUser(tripID, userID primitive.ObjectID, txType models.TransactionType) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, e := range f.entries {
		if e.RelatedTrip != nil && *e.RelatedTrip == tripID && e.UserID == userID && e.Type == txType {
			count++
		}
	}
	return count
}

type fakeTripRepo struct {
	mu    sync.Mutex
	trips map[primitive.ObjectID]*models.Trip
}

func newFakeTripRepo() *fakeTripRepo {
	return &fakeTripRepo{trips: make(map[primitive.ObjectID]*models.Trip)}
}

func (f *fakeTripRepo) Create(ctx context.Context, trip *models.Trip) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if trip.UniqueRequestID != "" {
		for _, t := range f.trips {
			if t.UniqueRequestID == trip.UniqueRequestID {
				return duplicateKeyError()
			}
		}
	}
	trip.ID = primitive.NewObjectID()
	trip.CreatedAt = time.Now()
	trip.UpdatedAt = trip.CreatedAt
	copied := *trip
	f.trips[trip.ID] = &copied
	return nil
}

func (f *fakeTripRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Trip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	trip, ok := f.trips[id]
	if !ok {
		return nil, nil
	}
	copied := *trip
	return &copied, nil
}

func (f *fakeTripRepo) GetByRequestID(ctx context.Context, requestID string) (*models.Trip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.trips {
		if t.UniqueRequestID == requestID {
			copied := *t
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeTripRepo) UpdateGuarded(ctx context.Context, trip *models.Trip, expectedStatus models.TripStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.trips[trip.ID]
	if !ok || stored.Status != expectedStatus {
		return interfaces.ErrTripConflict
	}
	trip.UpdatedAt = time.Now()
	copied := *trip
	f.trips[trip.ID] = &copied
	return nil
}

func (f *fakeTripRepo) List(ctx context.Context, filter *interfaces.TripFilter, params *utils.PaginationParams) ([]*models.Trip, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Trip
	for _, t := range f.trips {
		if filter != nil {
			if filter.PassengerID != nil && t.PassengerID != *filter.PassengerID {
				continue
			}
			if filter.DriverID != nil && (t.DriverID == nil || *t.DriverID != *filter.DriverID) {
				continue
			}
			if filter.Status != "" && t.Status != filter.Status {
				continue
			}
		}
		copied := *t
		out = append(out, &copied)
	}
	return out, int64(len(out)), nil
}

func (f *fakeTripRepo) ListDueScheduled(ctx context.Context, now time.Time, maxAttempts int) ([]*models.Trip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Trip
	for _, t := range f.trips {
		if t.IsScheduled && t.Status == models.TripStatusScheduled &&
			t.ScheduledDateTime != nil && !t.ScheduledDateTime.After(now) &&
			t.SweepAttempts < maxAttempts {
			copied := *t
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeTripRepo) IncrementSweepAttempts(ctx context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if trip, ok := f.trips[id]; ok {
		trip.SweepAttempts++
	}
	return nil
}

type fakeAcceptanceRepo struct {
	mu      sync.Mutex
	entries []*models.TripAcceptanceLog
}

func (f *fakeAcceptanceRepo) Create(ctx context.Context, entry *models.TripAcceptanceLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry.ID = primitive.NewObjectID()
	copied := *entry
	f.entries = append(f.entries, &copied)
	return nil
}

type fakeCommissionSettingsRepo struct {
	mu   sync.Mutex
	rows []*models.CommissionSettings
}

func (f *fakeCommissionSettingsRepo) GetActive(ctx context.Context) (*models.CommissionSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.IsActive {
			copied := *row
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeCommissionSettingsRepo) GetLatest(ctx context.Context) (*models.CommissionSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.rows) == 0 {
		return nil, nil
	}
	copied := *f.rows[len(f.rows)-1]
	return &copied, nil
}

func (f *fakeCommissionSettingsRepo) Create(ctx context.Context, settings *models.CommissionSettings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	settings.ID = primitive.NewObjectID()
	settings.CreatedAt = time.Now()
	settings.UpdatedAt = settings.CreatedAt
	copied := *settings
	f.rows = append(f.rows, &copied)
	return nil
}

func (f *fakeCommissionSettingsRepo) Update(ctx context.Context, settings *models.CommissionSettings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, row := range f.rows {
		if row.ID == settings.ID {
			copied := *settings
			f.rows[i] = &copied
			return nil
		}
	}
	return mongo.ErrNoDocuments
}

func (f *fakeCommissionSettingsRepo) DeactivateAll(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		row.IsActive = false
	}
	return nil
}

func (f *fakeCommissionSettingsRepo) activeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, row := range f.rows {
		if row.IsActive {
			count++
		}
	}
	return count
}

type fakeSettingRepo struct {
	settings map[string]*models.Setting
}

func (f *fakeSettingRepo) GetByKey(ctx context.Context, key string) (*models.Setting, error) {
	if f.settings == nil {
		return nil, nil
	}
	setting, ok := f.settings[key]
	if !ok {
		return nil, nil
	}
	copied := *setting
	return &copied, nil
}

type fakeRechargeCodeRepo struct {
	mu    sync.Mutex
	codes map[primitive.ObjectID]*models.RechargeCode
}

func newFakeRechargeCodeRepo() *fakeRechargeCodeRepo {
	return &fakeRechargeCodeRepo{codes: make(map[primitive.ObjectID]*models.RechargeCode)}
}

func (f *fakeRechargeCodeRepo) Create(ctx context.Context, code *models.RechargeCode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	code.ID = primitive.NewObjectID()
	code.CreatedAt = time.Now()
	code.UpdatedAt = code.CreatedAt
	copied := *code
	f.codes[code.ID] = &copied
	return nil
}

func (f *fakeRechargeCodeRepo) CreateMany(ctx context.Context, codes []*models.RechargeCode) error {
	for _, code := range codes {
		if err := f.Create(ctx, code); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeRechargeCodeRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.RechargeCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	code, ok := f.codes[id]
	if !ok {
		return nil, nil
	}
	copied := *code
	return &copied, nil
}

func (f *fakeRechargeCodeRepo) GetByCode(ctx context.Context, codeValue string) (*models.RechargeCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, code := range f.codes {
		if code.Code == codeValue {
			copied := *code
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeRechargeCodeRepo) List(ctx context.Context, filter *interfaces.RechargeCodeFilter, params *utils.PaginationParams) ([]*models.RechargeCode, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.RechargeCode
	for _, code := range f.codes {
		if filter != nil {
			if filter.VendorID != nil && code.VendorID != *filter.VendorID {
				continue
			}
			if filter.IsUsed != nil && code.IsUsed != *filter.IsUsed {
				continue
			}
			if filter.IsDisabled != nil && code.IsDisabled != *filter.IsDisabled {
				continue
			}
		}
		copied := *code
		out = append(out, &copied)
	}
	return out, int64(len(out)), nil
}

func (f *fakeRechargeCodeRepo) ListByVendor(ctx context.Context, vendorID primitive.ObjectID) ([]*models.RechargeCode, error) {
	codes, _, err := f.List(ctx, &interfaces.RechargeCodeFilter{VendorID: &vendorID}, nil)
	return codes, err
}

func (f *fakeRechargeCodeRepo) MarkUsed(ctx context.Context, id primitive.ObjectID, usedBy primitive.ObjectID, usedAt time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	code, ok := f.codes[id]
	if !ok || code.IsUsed || code.IsDisabled {
		return false, nil
	}
	code.IsUsed = true
	code.UsedBy = &usedBy
	code.UsedAt = &usedAt
	return true, nil
}

func (f *fakeRechargeCodeRepo) Disable(ctx context.Context, id primitive.ObjectID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	code, ok := f.codes[id]
	if !ok || code.IsUsed || code.IsDisabled {
		return false, nil
	}
	code.IsDisabled = true
	return true, nil
}

func (f *fakeRechargeCodeRepo) Revert(ctx context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	code, ok := f.codes[id]
	if !ok || !code.IsUsed {
		return mongo.ErrNoDocuments
	}
	code.IsUsed = false
	code.IsDisabled = true
	code.UsedBy = nil
	code.UsedAt = nil
	return nil
}

func (f *fakeRechargeCodeRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if code, ok := f.codes[id]; ok && !code.IsUsed {
		delete(f.codes, id)
	}
	return nil
}

type fakePaymentRequestRepo struct {
	mu       sync.Mutex
	requests map[primitive.ObjectID]*models.PaymentRequest
}

func newFakePaymentRequestRepo() *fakePaymentRequestRepo {
	return &fakePaymentRequestRepo{requests: make(map[primitive.ObjectID]*models.PaymentRequest)}
}

func (f *fakePaymentRequestRepo) Create(ctx context.Context, request *models.PaymentRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	request.ID = primitive.NewObjectID()
	request.CreatedAt = time.Now()
	request.UpdatedAt = request.CreatedAt
	copied := *request
	f.requests[request.ID] = &copied
	return nil
}

func (f *fakePaymentRequestRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.PaymentRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	request, ok := f.requests[id]
	if !ok {
		return nil, nil
	}
	copied := *request
	return &copied, nil
}

func (f *fakePaymentRequestRepo) GetByUser(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.PaymentRequest, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.PaymentRequest
	for _, r := range f.requests {
		if r.UserID == userID {
			copied := *r
			out = append(out, &copied)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakePaymentRequestRepo) ResolvePending(ctx context.Context, id primitive.ObjectID, status models.PaymentRequestStatus, adminNotes string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	request, ok := f.requests[id]
	if !ok || request.Status != models.PaymentRequestPending {
		return false, nil
	}
	request.Status = status
	request.AdminNotes = adminNotes
	return true, nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[primitive.ObjectID]*models.User)}
}

func (f *fakeUserRepo) add(role, name, phone string) primitive.ObjectID {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := primitive.NewObjectID()
	f.users[id] = &models.User{ID: id, Name: name, Phone: phone, Role: role}
	return id
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Phone == phone {
			copied := *user
			return &copied, nil
		}
	}
	return nil, nil
}

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []*models.AuditLog
}

func (f *fakeAuditRepo) Create(ctx context.Context, entry *models.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry.ID = primitive.NewObjectID()
	copied := *entry
	f.entries = append(f.entries, &copied)
	return nil
}

// fixture wires the full service stack over in-memory storage.
type fixture struct {
	wallets      *fakeWalletRepo
	transactions *fakeTransactionRepo
	trips        *fakeTripRepo
	acceptances  *fakeAcceptanceRepo
	settings     *fakeCommissionSettingsRepo
	legacy       *fakeSettingRepo
	codes        *fakeRechargeCodeRepo
	payments     *fakePaymentRequestRepo
	users        *fakeUserRepo
	audits       *fakeAuditRepo

	walletConfig *config.WalletConfig

	commission CommissionService
	wallet     WalletService
	trip       TripService
	recharge   RechargeService
	payment    PaymentService
	sweeper    SweeperService
}

func newFixture() *fixture {
	f := &fixture{
		wallets:      newFakeWalletRepo(),
		transactions: newFakeTransactionRepo(),
		trips:        newFakeTripRepo(),
		acceptances:  &fakeAcceptanceRepo{},
		settings:     &fakeCommissionSettingsRepo{},
		legacy:       &fakeSettingRepo{},
		codes:        newFakeRechargeCodeRepo(),
		payments:     newFakePaymentRequestRepo(),
		users:        newFakeUserRepo(),
		audits:       &fakeAuditRepo{},
		walletConfig: &config.WalletConfig{
			PrechargeEnabled:          false,
			MinRechargeAmount:         utils.MinRechargeAmount,
			MinTopUpAmount:            utils.MinTopUpAmount,
			MinRemainingAfterTransfer: utils.MinRemainingAfterTransfer,
		},
	}

	runner := passthroughRunner{}
	log := testLogger()
	defaults := &config.CommissionConfig{Model: "flat", FlatValue: 0, ChargeStage: "completed"}

	f.commission = NewCommissionService(f.settings, f.legacy, runner, nil, defaults, log)
	f.wallet = NewWalletService(f.wallets, f.transactions, f.users, runner, f.walletConfig, utils.DefaultCurrency, log)
	f.trip = NewTripService(f.trips, f.acceptances, f.wallet, f.commission, runner, f.walletConfig, log)
	f.recharge = NewRechargeService(f.codes, f.users, f.audits, f.wallet, runner, log)
	f.payment = NewPaymentService(f.payments, f.wallet, runner, f.walletConfig.MinTopUpAmount, log)
	f.sweeper = NewSweeperService(f.trips, f.wallet, f.commission, runner, &config.SweeperConfig{
		Enabled:     true,
		Interval:    time.Minute,
		MaxAttempts: utils.DefaultMaxSweepAttempts,
	}, log)

	return f
}

// activatePolicy installs an active commission settings row.
func (f *fixture) activatePolicy(t models.CommissionType, value float64, applies models.CommissionApplies, stage models.ChargeStage) {
	_ = f.settings.Create(context.Background(), &models.CommissionSettings{
		Type:        t,
		Value:       value,
		Applies:     applies,
		ChargeStage: stage,
		IsActive:    true,
	})
}

// balance reads the stored wallet balance directly, bypassing reconciliation.
func (f *fixture) balance(userID primitive.ObjectID) int64 {
	wallet, _ := f.wallets.GetByUser(context.Background(), userID)
	if wallet == nil {
		return 0
	}
	return wallet.Balance
}
