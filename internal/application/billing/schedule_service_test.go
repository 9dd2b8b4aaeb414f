package billing

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/google/uuid"
	"github.com/zenithcrm/backend/internal/domain/billing"
	"github.com/zenithcrm/backend/internal/domain/shared"
	"github.com/zenithcrm/backend/internal/domain/shared/valueobject"
)

func TestCreateSchedule_EvenSplit(t *testing.T) {
	scheduleRepo := new(MockScheduleRepository)
	svc := NewScheduleService(scheduleRepo, nil, nil)

	scheduleRepo.On("Save", mock.Anything, mock.AnythingOfType("*billing.PaymentSchedule")).Return(nil)

	schedule, err := svc.CreateSchedule(context.Background(), CreateScheduleRequest{
		DealID:             uuid.New(),
		PlanType:           billing.PlanTypeTimeBased,
		TotalContractValue: decimal.NewFromInt(1000000),
		BookingAmount:      decimal.NewFromInt(100000),
		StartDate:          time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		Frequency:          billing.FrequencyMonthly,
		InstallmentCount:   4,
		ReminderOffsetDays: []int{7, 3},
	})

	require.NoError(t, err)
	require.Len(t, schedule.Installments, 4)
	for _, inst := range schedule.Installments {
		assert.True(t, inst.Amount.Equal(decimal.NewFromInt(225000)))
		assert.False(t, inst.IsPaid)
	}
	// First installment falls due at the start date; month-end dates clamp
	// instead of spilling into the next month
	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), schedule.Installments[0].DueDate)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), schedule.Installments[1].DueDate)
	assert.Equal(t, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), schedule.Installments[2].DueDate)
	scheduleRepo.AssertExpectations(t)
}

func TestCreateSchedule_MilestonePlan(t *testing.T) {
	scheduleRepo := new(MockScheduleRepository)
	svc := NewScheduleService(scheduleRepo, nil, nil)

	scheduleRepo.On("Save", mock.Anything, mock.AnythingOfType("*billing.PaymentSchedule")).Return(nil)

	schedule, err := svc.CreateSchedule(context.Background(), CreateScheduleRequest{
		DealID:             uuid.New(),
		PlanType:           billing.PlanTypeConstructionLinked,
		TotalContractValue: decimal.NewFromInt(5000000),
		BookingAmount:      decimal.Zero,
		StartDate:          time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Frequency:          billing.FrequencyCustom,
		IntervalMonths:     1,
		Milestones: []MilestoneInput{
			{Name: "Foundation", Percentage: decimal.NewFromInt(30), DueDate: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)},
			{Name: "Structure", Percentage: decimal.NewFromInt(40), DueDate: time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)},
			{Name: "Possession", Percentage: decimal.NewFromInt(30), DueDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)},
		},
	})

	require.NoError(t, err)
	require.Len(t, schedule.Installments, 3)
	assert.Equal(t, "Foundation", schedule.Installments[0].MilestoneName)
	assert.True(t, schedule.Installments[0].Amount.Equal(decimal.NewFromInt(1500000)))
	assert.True(t, schedule.Installments[1].Amount.Equal(decimal.NewFromInt(2000000)))
	assert.True(t, schedule.InstallmentTotal().Equal(decimal.NewFromInt(5000000)))
}

func TestCreateSchedule_AmountMismatchRejected(t *testing.T) {
	scheduleRepo := new(MockScheduleRepository)
	svc := NewScheduleService(scheduleRepo, nil, nil)

	override := decimal.NewFromInt(200000)
	_, err := svc.CreateSchedule(context.Background(), CreateScheduleRequest{
		DealID:             uuid.New(),
		PlanType:           billing.PlanTypeTimeBased,
		TotalContractValue: decimal.NewFromInt(1000000),
		BookingAmount:      decimal.NewFromInt(100000),
		StartDate:          time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Frequency:          billing.FrequencyMonthly,
		InstallmentCount:   4,
		InstallmentAmount:  &override,
	})

	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	scheduleRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestActivateSchedule(t *testing.T) {
	scheduleRepo := new(MockScheduleRepository)
	svc := NewScheduleService(scheduleRepo, nil, nil)

	schedule := timeBasedSchedule(t)
	versionBefore := schedule.GetVersion()

	scheduleRepo.On("FindByID", mock.Anything, schedule.ID).Return(schedule, nil)
	scheduleRepo.On("SaveWithLock", mock.Anything, schedule, versionBefore).Return(nil)

	activated, err := svc.ActivateSchedule(context.Background(), schedule.ID)

	require.NoError(t, err)
	assert.Equal(t, billing.ScheduleStatusActive, activated.Status)
	scheduleRepo.AssertExpectations(t)
}

func TestActivateSchedule_NotFound(t *testing.T) {
	scheduleRepo := new(MockScheduleRepository)
	svc := NewScheduleService(scheduleRepo, nil, nil)

	scheduleID := uuid.New()
	scheduleRepo.On("FindByID", mock.Anything, scheduleID).Return(nil, nil)

	_, err := svc.ActivateSchedule(context.Background(), scheduleID)

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "SCHEDULE_NOT_FOUND", domainErr.Code)
}

func TestCompleteMilestone_RaisesInvoice(t *testing.T) {
	scheduleRepo := new(MockScheduleRepository)
	invoiceRepo := new(MockInvoiceRepository)
	invoiceService := NewInvoiceService(invoiceRepo, scheduleRepo, nil)
	svc := NewScheduleService(scheduleRepo, invoiceService, nil)

	schedule := milestoneSchedule(t)
	clientID := uuid.New()

	scheduleRepo.On("FindByID", mock.Anything, schedule.ID).Return(schedule, nil)
	scheduleRepo.On("SaveWithLock", mock.Anything, schedule, mock.AnythingOfType("int")).Return(nil)
	invoiceRepo.On("Save", mock.Anything, mock.AnythingOfType("*billing.Invoice")).Return(nil)

	updated, invoice, err := svc.CompleteMilestone(context.Background(), CompleteMilestoneRequest{
		ScheduleID: schedule.ID,
		Sequence:   1,
		ClientID:   clientID,
		ClientName: "Meera Joshi",
	})

	require.NoError(t, err)
	require.NotNil(t, invoice)
	assert.Equal(t, billing.TriggerMilestoneReached, invoice.TriggerPoint)
	assert.True(t, invoice.BaseAmount.Equal(decimal.NewFromInt(1500000)))
	assert.Equal(t, clientID, invoice.ClientID)

	inst, ok := updated.FindInstallment(1)
	require.True(t, ok)
	assert.True(t, inst.MilestoneCompleted)
	require.NotNil(t, inst.InvoiceID)
	assert.Equal(t, invoice.ID, *inst.InvoiceID)
}

func TestCompleteMilestone_NonMilestoneRejected(t *testing.T) {
	scheduleRepo := new(MockScheduleRepository)
	invoiceRepo := new(MockInvoiceRepository)
	invoiceService := NewInvoiceService(invoiceRepo, scheduleRepo, nil)
	svc := NewScheduleService(scheduleRepo, invoiceService, nil)

	schedule := timeBasedSchedule(t)
	require.NoError(t, schedule.Activate())
	schedule.ClearDomainEvents()
	scheduleRepo.On("FindByID", mock.Anything, schedule.ID).Return(schedule, nil)

	_, _, err := svc.CompleteMilestone(context.Background(), CompleteMilestoneRequest{
		ScheduleID: schedule.ID,
		Sequence:   1,
		ClientID:   uuid.New(),
		ClientName: "Meera Joshi",
	})

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "NOT_A_MILESTONE", domainErr.Code)
	invoiceRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCompleteMilestone_CompletesOnce(t *testing.T) {
	scheduleRepo := new(MockScheduleRepository)
	svc := NewScheduleService(scheduleRepo, nil, nil)

	schedule := milestoneSchedule(t)
	scheduleRepo.On("FindByID", mock.Anything, schedule.ID).Return(schedule, nil)
	scheduleRepo.On("SaveWithLock", mock.Anything, schedule, mock.AnythingOfType("int")).Return(nil)

	_, _, err := svc.CompleteMilestone(context.Background(), CompleteMilestoneRequest{
		ScheduleID: schedule.ID,
		Sequence:   1,
	})
	require.NoError(t, err)

	_, _, err = svc.CompleteMilestone(context.Background(), CompleteMilestoneRequest{
		ScheduleID: schedule.ID,
		Sequence:   1,
	})

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_STATE", domainErr.Code)
}

func TestUpcomingReminders(t *testing.T) {
	scheduleRepo := new(MockScheduleRepository)
	svc := NewScheduleService(scheduleRepo, nil, nil)

	schedule := timeBasedSchedule(t)
	scheduleRepo.On("FindByID", mock.Anything, schedule.ID).Return(schedule, nil)

	// Second installment due 2024-02-15; seven days before matches offset 7
	asOf := time.Date(2024, 2, 8, 10, 30, 0, 0, time.UTC)
	reminders, err := svc.UpcomingReminders(context.Background(), schedule.ID, asOf)

	require.NoError(t, err)
	require.Len(t, reminders, 1)
	assert.Equal(t, 2, reminders[0].Sequence)
	assert.Equal(t, 7, reminders[0].DaysUntil)
	assert.Equal(t, 7, reminders[0].OffsetMatch)
}

func TestUpcomingReminders_SkipsPaidInstallments(t *testing.T) {
	scheduleRepo := new(MockScheduleRepository)
	svc := NewScheduleService(scheduleRepo, nil, nil)

	schedule := timeBasedSchedule(t)
	require.NoError(t, schedule.Activate())
	require.NoError(t, schedule.ApplyInstallmentPayment(2, valueobject.NewMoneyINRFromFloat(250000)))
	schedule.ClearDomainEvents()
	scheduleRepo.On("FindByID", mock.Anything, schedule.ID).Return(schedule, nil)

	asOf := time.Date(2024, 2, 8, 0, 0, 0, 0, time.UTC)
	reminders, err := svc.UpcomingReminders(context.Background(), schedule.ID, asOf)

	require.NoError(t, err)
	assert.Empty(t, reminders)
}

func milestoneSchedule(t *testing.T) *billing.PaymentSchedule {
	t.Helper()
	schedule, err := billing.NewPaymentSchedule(
		uuid.New(), billing.PlanTypeConstructionLinked,
		valueobject.NewMoneyINRFromFloat(5000000), valueobject.ZeroINR(),
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		billing.FrequencyCustom, 1, 3, nil,
	)
	require.NoError(t, err)
	require.NoError(t, schedule.GenerateMilestoneInstallments([]billing.Milestone{
		{Name: "Foundation", Percentage: decimal.NewFromInt(30), DueDate: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)},
		{Name: "Structure", Percentage: decimal.NewFromInt(40), DueDate: time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)},
		{Name: "Possession", Percentage: decimal.NewFromInt(30), DueDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)},
	}))
	require.NoError(t, schedule.Activate())
	schedule.ClearDomainEvents()
	return schedule
}

func timeBasedSchedule(t *testing.T) *billing.PaymentSchedule {
	t.Helper()
	schedule, err := billing.NewPaymentSchedule(
		uuid.New(), billing.PlanTypeTimeBased,
		valueobject.NewMoneyINRFromFloat(1000000), valueobject.ZeroINR(),
		time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		billing.FrequencyMonthly, 0, 4, []int{7, 3},
	)
	require.NoError(t, err)
	require.NoError(t, schedule.GenerateInstallments(valueobject.NewMoneyINRFromFloat(250000)))
	schedule.ClearDomainEvents()
	return schedule
}
