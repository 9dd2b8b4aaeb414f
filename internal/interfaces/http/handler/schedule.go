package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	billingapp "github.com/zenithcrm/backend/internal/application/billing"
	"github.com/zenithcrm/backend/internal/domain/billing"
)

// ScheduleHandler handles payment schedule API endpoints
type ScheduleHandler struct {
	BaseHandler
	scheduleService *billingapp.ScheduleService
}

// NewScheduleHandler creates a new ScheduleHandler
func NewScheduleHandler(scheduleService *billingapp.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{
		scheduleService: scheduleService,
	}
}

// MilestoneRequest represents one milestone of a construction-linked plan
type MilestoneRequest struct {
	Name       string    `json:"name" binding:"required,min=1,max=200"`
	Percentage float64   `json:"percentage" binding:"required,gt=0,lte=100"`
	DueDate    time.Time `json:"due_date" binding:"required"`
}

// CreateScheduleRequest represents a request to create a payment schedule
type CreateScheduleRequest struct {
	DealID             string             `json:"deal_id" binding:"required,uuid"`
	PlanType           string             `json:"plan_type" binding:"required,oneof=TIME_BASED CONSTRUCTION_LINKED DOWN_PAYMENT CUSTOM"`
	TotalContractValue float64            `json:"total_contract_value" binding:"required,gt=0"`
	BookingAmount      float64            `json:"booking_amount" binding:"gte=0"`
	StartDate          time.Time          `json:"start_date" binding:"required"`
	Frequency          string             `json:"frequency" binding:"omitempty,oneof=MONTHLY QUARTERLY YEARLY CUSTOM"`
	IntervalMonths     int                `json:"interval_months" binding:"gte=0"`
	InstallmentCount   int                `json:"installment_count" binding:"gte=0"`
	ReminderOffsetDays []int              `json:"reminder_offset_days"`
	InstallmentAmount  *float64           `json:"installment_amount" binding:"omitempty,gt=0"`
	Milestones         []MilestoneRequest `json:"milestones"`
}

// CancelScheduleRequest represents a request to cancel a payment schedule
type CancelScheduleRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// Create creates a payment schedule and generates its installments
func (h *ScheduleHandler) Create(c *gin.Context) {
	var req CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	dealID, err := uuid.Parse(req.DealID)
	if err != nil {
		h.BadRequest(c, "Invalid deal ID format")
		return
	}

	appReq := billingapp.CreateScheduleRequest{
		DealID:             dealID,
		PlanType:           billing.PlanType(req.PlanType),
		TotalContractValue: toDecimal(req.TotalContractValue),
		BookingAmount:      toDecimal(req.BookingAmount),
		StartDate:          req.StartDate,
		Frequency:          billing.Frequency(req.Frequency),
		IntervalMonths:     req.IntervalMonths,
		InstallmentCount:   req.InstallmentCount,
		ReminderOffsetDays: req.ReminderOffsetDays,
	}
	if req.InstallmentAmount != nil {
		appReq.InstallmentAmount = toDecimalPtr(*req.InstallmentAmount)
	}
	for _, m := range req.Milestones {
		appReq.Milestones = append(appReq.Milestones, billingapp.MilestoneInput{
			Name:       m.Name,
			Percentage: toDecimal(m.Percentage),
			DueDate:    m.DueDate,
		})
	}

	schedule, err := h.scheduleService.CreateSchedule(c.Request.Context(), appReq)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, schedule)
}

// Activate moves a draft schedule into active billing
func (h *ScheduleHandler) Activate(c *gin.Context) {
	scheduleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid schedule ID format")
		return
	}

	schedule, err := h.scheduleService.ActivateSchedule(c.Request.Context(), scheduleID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, schedule)
}

// CompleteMilestoneRequest represents a request to record a reached milestone
type CompleteMilestoneRequest struct {
	Sequence   int    `json:"sequence" binding:"required,gt=0"`
	ClientID   string `json:"client_id" binding:"omitempty,uuid"`
	ClientName string `json:"client_name" binding:"omitempty,min=1,max=200"`
	AutoIssue  bool   `json:"auto_issue"`
}

// CompleteMilestone marks a construction milestone as reached and raises the
// invoice for its installment
func (h *ScheduleHandler) CompleteMilestone(c *gin.Context) {
	scheduleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid schedule ID format")
		return
	}

	var req CompleteMilestoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	appReq := billingapp.CompleteMilestoneRequest{
		ScheduleID: scheduleID,
		Sequence:   req.Sequence,
		ClientName: req.ClientName,
		AutoIssue:  req.AutoIssue,
	}
	if req.ClientID != "" {
		clientID, err := uuid.Parse(req.ClientID)
		if err != nil {
			h.BadRequest(c, "Invalid client ID format")
			return
		}
		appReq.ClientID = clientID
	}

	schedule, invoice, err := h.scheduleService.CompleteMilestone(c.Request.Context(), appReq)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, gin.H{"schedule": schedule, "invoice": invoice})
}

// Cancel cancels a schedule that has no recorded payments
func (h *ScheduleHandler) Cancel(c *gin.Context) {
	scheduleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid schedule ID format")
		return
	}

	var req CancelScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	schedule, err := h.scheduleService.CancelSchedule(c.Request.Context(), scheduleID, req.Reason)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, schedule)
}

// GetByID retrieves a schedule by its ID
func (h *ScheduleHandler) GetByID(c *gin.Context) {
	scheduleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid schedule ID format")
		return
	}

	schedule, err := h.scheduleService.GetSchedule(c.Request.Context(), scheduleID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, schedule)
}

type listScheduleQuery struct {
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	Search   string `form:"search"`
	DealID   string `form:"deal_id" binding:"omitempty,uuid"`
	PlanType string `form:"plan_type" binding:"omitempty,oneof=TIME_BASED CONSTRUCTION_LINKED DOWN_PAYMENT CUSTOM"`
	Status   string `form:"status" binding:"omitempty,oneof=DRAFT ACTIVE COMPLETED CANCELLED"`
}

// List retrieves a paginated list of schedules with optional filtering
func (h *ScheduleHandler) List(c *gin.Context) {
	var q listScheduleQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := billing.ScheduleFilter{}
	filter.Page = q.Page
	filter.PageSize = q.PageSize
	filter.Search = q.Search
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if q.DealID != "" {
		id := uuid.MustParse(q.DealID)
		filter.DealID = &id
	}
	if q.PlanType != "" {
		pt := billing.PlanType(q.PlanType)
		filter.PlanType = &pt
	}
	if q.Status != "" {
		st := billing.ScheduleStatus(q.Status)
		filter.Status = &st
	}

	result, err := h.scheduleService.ListSchedules(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// ListByDeal retrieves all schedules attached to a deal
func (h *ScheduleHandler) ListByDeal(c *gin.Context) {
	dealID, err := uuid.Parse(c.Param("dealId"))
	if err != nil {
		h.BadRequest(c, "Invalid deal ID format")
		return
	}

	schedules, err := h.scheduleService.GetSchedulesByDeal(c.Request.Context(), dealID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, schedules)
}

// UpcomingReminders reports unpaid installments whose due date falls on one
// of the schedule's reminder offsets, measured from the as_of date
func (h *ScheduleHandler) UpcomingReminders(c *gin.Context) {
	scheduleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid schedule ID format")
		return
	}

	asOf := time.Now().UTC()
	if raw := c.Query("as_of"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			h.BadRequest(c, "Invalid as_of date, expected YYYY-MM-DD")
			return
		}
		asOf = parsed
	}

	reminders, err := h.scheduleService.UpcomingReminders(c.Request.Context(), scheduleID, asOf)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, reminders)
}
