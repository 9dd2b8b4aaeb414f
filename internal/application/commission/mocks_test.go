package commission

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/zenithcrm/backend/internal/domain/commission"
	"github.com/zenithcrm/backend/internal/domain/settlement"
)

type MockCommissionRepository struct {
	mock.Mock
}

func (m *MockCommissionRepository) FindByID(ctx context.Context, id uuid.UUID) (*commission.Commission, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commission.Commission), args.Error(1)
}

func (m *MockCommissionRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*commission.Commission, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commission.Commission), args.Error(1)
}

func (m *MockCommissionRepository) FindByDeal(ctx context.Context, dealID uuid.UUID) ([]commission.Commission, error) {
	args := m.Called(ctx, dealID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]commission.Commission), args.Error(1)
}

func (m *MockCommissionRepository) FindByAgent(ctx context.Context, agentID uuid.UUID, filter commission.CommissionFilter) ([]commission.Commission, error) {
	args := m.Called(ctx, agentID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]commission.Commission), args.Error(1)
}

func (m *MockCommissionRepository) FindAll(ctx context.Context, filter commission.CommissionFilter) ([]commission.Commission, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]commission.Commission), args.Error(1)
}

func (m *MockCommissionRepository) Count(ctx context.Context, filter commission.CommissionFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCommissionRepository) Save(ctx context.Context, comm *commission.Commission) error {
	args := m.Called(ctx, comm)
	return args.Error(0)
}

func (m *MockCommissionRepository) SaveWithLock(ctx context.Context, comm *commission.Commission, expectedVersion int) error {
	args := m.Called(ctx, comm, expectedVersion)
	return args.Error(0)
}

type MockAgentDirectory struct {
	mock.Mock
}

func (m *MockAgentDirectory) ActiveAgents(ctx context.Context) ([]commission.AgentCandidate, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]commission.AgentCandidate), args.Error(1)
}

type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) FindByID(ctx context.Context, id uuid.UUID) (*settlement.LedgerEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settlement.LedgerEntry), args.Error(1)
}

func (m *MockLedgerRepository) FindByScope(ctx context.Context, ledgerType settlement.LedgerType, scopeID uuid.UUID, filter settlement.LedgerFilter) ([]settlement.LedgerEntry, error) {
	args := m.Called(ctx, ledgerType, scopeID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]settlement.LedgerEntry), args.Error(1)
}

func (m *MockLedgerRepository) FindAll(ctx context.Context, filter settlement.LedgerFilter) ([]settlement.LedgerEntry, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]settlement.LedgerEntry), args.Error(1)
}

func (m *MockLedgerRepository) Count(ctx context.Context, filter settlement.LedgerFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLedgerRepository) LastBalance(ctx context.Context, ledgerType settlement.LedgerType, scopeID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, ledgerType, scopeID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockLedgerRepository) Append(ctx context.Context, entry *settlement.LedgerEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

var _ commission.CommissionRepository = (*MockCommissionRepository)(nil)
var _ commission.AgentDirectory = (*MockAgentDirectory)(nil)
var _ settlement.LedgerRepository = (*MockLedgerRepository)(nil)
