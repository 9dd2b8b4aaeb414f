package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	billingapp "github.com/zenithcrm/backend/internal/application/billing"
	"github.com/zenithcrm/backend/internal/domain/billing"
	"github.com/zenithcrm/backend/internal/domain/shared/valueobject"
	"github.com/zenithcrm/backend/internal/interfaces/http/dto"
)

func setupInvoiceHandler(invoiceRepo *MockInvoiceRepository, scheduleRepo *MockScheduleRepository) *InvoiceHandler {
	invoiceService := billingapp.NewInvoiceService(invoiceRepo, scheduleRepo, nil)
	return NewInvoiceHandler(invoiceService)
}

func createTestInvoice(dealID, clientID uuid.UUID) *billing.Invoice {
	invoice, _ := billing.NewInvoice(
		dealID,
		clientID,
		"Asha Verma",
		billing.InvoiceTypeTax,
		billing.TriggerManual,
		valueobject.NewMoneyINRFromFloat(100000),
		valueobject.NewMoneyINRFromFloat(18000),
		time.Now().AddDate(0, 1, 0),
	)
	invoice.ClearDomainEvents()
	return invoice
}

func createIssuedInvoice(dealID, clientID uuid.UUID) *billing.Invoice {
	invoice := createTestInvoice(dealID, clientID)
	_ = invoice.Issue()
	invoice.ClearDomainEvents()
	return invoice
}

func TestInvoiceHandler_Generate_Success(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	scheduleRepo := new(MockScheduleRepository)
	handler := setupInvoiceHandler(invoiceRepo, scheduleRepo)

	invoiceRepo.On("Save", mock.Anything, mock.AnythingOfType("*billing.Invoice")).Return(nil)

	router := gin.New()
	router.POST("/invoices", handler.Generate)

	reqBody := GenerateInvoiceRequest{
		DealID:       uuid.New().String(),
		ClientID:     uuid.New().String(),
		ClientName:   "Asha Verma",
		TriggerPoint: "MANUAL",
		BaseAmount:   100000,
		TaxAmount:    18000,
		DueDate:      time.Now().AddDate(0, 1, 0),
	}
	body, _ := json.Marshal(reqBody)

	req := httptest.NewRequest(http.MethodPost, "/invoices", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	invoiceRepo.AssertExpectations(t)
}

func TestInvoiceHandler_Generate_AutoIssue(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	scheduleRepo := new(MockScheduleRepository)
	handler := setupInvoiceHandler(invoiceRepo, scheduleRepo)

	var saved *billing.Invoice
	invoiceRepo.On("Save", mock.Anything, mock.AnythingOfType("*billing.Invoice")).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).(*billing.Invoice)
		}).Return(nil)

	router := gin.New()
	router.POST("/invoices", handler.Generate)

	reqBody := GenerateInvoiceRequest{
		DealID:       uuid.New().String(),
		ClientID:     uuid.New().String(),
		ClientName:   "Asha Verma",
		TriggerPoint: "BOOKING_CONFIRMATION",
		BaseAmount:   250000,
		DueDate:      time.Now().AddDate(0, 0, 15),
		AutoIssue:    true,
	}
	body, _ := json.Marshal(reqBody)

	req := httptest.NewRequest(http.MethodPost, "/invoices", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, saved)
	assert.Equal(t, billing.InvoiceStatusSent, saved.Status)
}

func TestInvoiceHandler_Generate_MissingTrigger(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	scheduleRepo := new(MockScheduleRepository)
	handler := setupInvoiceHandler(invoiceRepo, scheduleRepo)

	router := gin.New()
	router.POST("/invoices", handler.Generate)

	reqBody := GenerateInvoiceRequest{
		DealID:     uuid.New().String(),
		ClientID:   uuid.New().String(),
		ClientName: "Asha Verma",
		BaseAmount: 100000,
		DueDate:    time.Now().AddDate(0, 1, 0),
	}
	body, _ := json.Marshal(reqBody)

	req := httptest.NewRequest(http.MethodPost, "/invoices", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	invoiceRepo.AssertNotCalled(t, "Save")
}

func TestInvoiceHandler_Issue_Success(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	scheduleRepo := new(MockScheduleRepository)
	handler := setupInvoiceHandler(invoiceRepo, scheduleRepo)

	invoice := createTestInvoice(uuid.New(), uuid.New())
	invoiceRepo.On("FindByID", mock.Anything, invoice.ID).Return(invoice, nil)
	invoiceRepo.On("SaveWithLock", mock.Anything, invoice, mock.AnythingOfType("int")).Return(nil)

	router := gin.New()
	router.POST("/invoices/:id/issue", handler.Issue)

	req := httptest.NewRequest(http.MethodPost, "/invoices/"+invoice.ID.String()+"/issue", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, billing.InvoiceStatusSent, invoice.Status)
	invoiceRepo.AssertExpectations(t)
}

func TestInvoiceHandler_Issue_AlreadySent(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	scheduleRepo := new(MockScheduleRepository)
	handler := setupInvoiceHandler(invoiceRepo, scheduleRepo)

	invoice := createIssuedInvoice(uuid.New(), uuid.New())
	invoiceRepo.On("FindByID", mock.Anything, invoice.ID).Return(invoice, nil)

	router := gin.New()
	router.POST("/invoices/:id/issue", handler.Issue)

	req := httptest.NewRequest(http.MethodPost, "/invoices/"+invoice.ID.String()+"/issue", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, dto.ErrCodeInvalidState, resp.Error.Code)
	invoiceRepo.AssertNotCalled(t, "SaveWithLock")
}

func TestInvoiceHandler_Cancel_Success(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	scheduleRepo := new(MockScheduleRepository)
	handler := setupInvoiceHandler(invoiceRepo, scheduleRepo)

	invoice := createTestInvoice(uuid.New(), uuid.New())
	invoiceRepo.On("FindByID", mock.Anything, invoice.ID).Return(invoice, nil)
	invoiceRepo.On("SaveWithLock", mock.Anything, invoice, mock.AnythingOfType("int")).Return(nil)

	router := gin.New()
	router.POST("/invoices/:id/cancel", handler.Cancel)

	body, _ := json.Marshal(CancelInvoiceRequest{Reason: "Raised in error"})
	req := httptest.NewRequest(http.MethodPost, "/invoices/"+invoice.ID.String()+"/cancel", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, billing.InvoiceStatusCancelled, invoice.Status)
	invoiceRepo.AssertExpectations(t)
}

func TestInvoiceHandler_MarkDelivered_Success(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	scheduleRepo := new(MockScheduleRepository)
	handler := setupInvoiceHandler(invoiceRepo, scheduleRepo)

	invoice := createIssuedInvoice(uuid.New(), uuid.New())
	invoiceRepo.On("FindByID", mock.Anything, invoice.ID).Return(invoice, nil)
	invoiceRepo.On("Save", mock.Anything, invoice).Return(nil)

	router := gin.New()
	router.POST("/invoices/:id/delivery", handler.MarkDelivered)

	body, _ := json.Marshal(MarkDeliveredRequest{Channel: "EMAIL"})
	req := httptest.NewRequest(http.MethodPost, "/invoices/"+invoice.ID.String()+"/delivery", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, invoice.EmailSent)
	invoiceRepo.AssertExpectations(t)
}

func TestInvoiceHandler_GetByID_NotFound(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	scheduleRepo := new(MockScheduleRepository)
	handler := setupInvoiceHandler(invoiceRepo, scheduleRepo)

	invoiceID := uuid.New()
	invoiceRepo.On("FindByID", mock.Anything, invoiceID).Return(nil, nil)

	router := gin.New()
	router.GET("/invoices/:id", handler.GetByID)

	req := httptest.NewRequest(http.MethodGet, "/invoices/"+invoiceID.String(), nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	invoiceRepo.AssertExpectations(t)
}

func TestInvoiceHandler_GetByNumber_Success(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	scheduleRepo := new(MockScheduleRepository)
	handler := setupInvoiceHandler(invoiceRepo, scheduleRepo)

	invoice := createTestInvoice(uuid.New(), uuid.New())
	invoiceRepo.On("FindByNumber", mock.Anything, invoice.InvoiceNumber).Return(invoice, nil)

	router := gin.New()
	router.GET("/invoices/number/:number", handler.GetByNumber)

	req := httptest.NewRequest(http.MethodGet, "/invoices/number/"+invoice.InvoiceNumber, nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	invoiceRepo.AssertExpectations(t)
}

func TestInvoiceHandler_List_Success(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	scheduleRepo := new(MockScheduleRepository)
	handler := setupInvoiceHandler(invoiceRepo, scheduleRepo)

	invoices := []billing.Invoice{*createTestInvoice(uuid.New(), uuid.New())}
	invoiceRepo.On("FindAll", mock.Anything, mock.AnythingOfType("billing.InvoiceFilter")).Return(invoices, nil)
	invoiceRepo.On("Count", mock.Anything, mock.AnythingOfType("billing.InvoiceFilter")).Return(int64(1), nil)

	router := gin.New()
	router.GET("/invoices", handler.List)

	req := httptest.NewRequest(http.MethodGet, "/invoices?status=DRAFT&due_from=2025-01-01&due_to=2025-12-31", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(1), resp.Meta.Total)
	invoiceRepo.AssertExpectations(t)
}

func TestInvoiceHandler_List_BadDueDate(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	scheduleRepo := new(MockScheduleRepository)
	handler := setupInvoiceHandler(invoiceRepo, scheduleRepo)

	router := gin.New()
	router.GET("/invoices", handler.List)

	req := httptest.NewRequest(http.MethodGet, "/invoices?due_from=soon", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	invoiceRepo.AssertNotCalled(t, "FindAll")
}

func TestInvoiceHandler_Sweep_Success(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	scheduleRepo := new(MockScheduleRepository)
	handler := setupInvoiceHandler(invoiceRepo, scheduleRepo)

	overdue := createIssuedInvoice(uuid.New(), uuid.New())
	overdue.DueDate = time.Now().AddDate(0, 0, -10)

	invoiceRepo.On("FindSweepCandidates", mock.Anything, mock.AnythingOfType("time.Time"), mock.AnythingOfType("int")).
		Return([]billing.Invoice{*overdue}, nil)
	invoiceRepo.On("SaveWithLock", mock.Anything, mock.AnythingOfType("*billing.Invoice"), mock.AnythingOfType("int")).Return(nil)

	router := gin.New()
	router.POST("/invoices/sweep", handler.Sweep)

	req := httptest.NewRequest(http.MethodPost, "/invoices/sweep", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	invoiceRepo.AssertExpectations(t)
}
