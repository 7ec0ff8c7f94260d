package handler

import (
	"net/http"
	"testing"

	"github.com/crop-trade-ledger/internal/domain/contact"
	"github.com/crop-trade-ledger/internal/registry"
	"github.com/crop-trade-ledger/internal/reporting"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func setupContactRouter(reg *MockRegistryService, rep *MockReportingService) *gin.Engine {
	h := NewContactHandler(discardLogger(), reg, rep)
	r := setupTestRouter()
	r.POST("/contacts", h.Create)
	r.GET("/contacts", h.List)
	r.GET("/contacts/:id", h.GetByID)
	r.GET("/contacts/:id/statement", h.Statement)
	return r
}

func TestContactHandler_Create(t *testing.T) {
	reg := new(MockRegistryService)
	reg.On("CreateContact", mock.Anything, registry.CreateContactCommand{
		Name:       "Green Valley Farms",
		Phone:      "+254700000000",
		IsSupplier: true,
	}).Return(&contact.Contact{ID: 2, Name: "Green Valley Farms", IsSupplier: true}, nil).Once()

	rr := performRequest(setupContactRouter(reg, new(MockReportingService)), http.MethodPost, "/contacts",
		`{"name":"Green Valley Farms","phone":"+254700000000","is_supplier":true}`)

	assert.Equal(t, http.StatusCreated, rr.Code)
	var ct contact.Contact
	decodeResponse(t, rr, &ct)
	assert.True(t, ct.IsSupplier)
	reg.AssertExpectations(t)
}

func TestContactHandler_List(t *testing.T) {
	reg := new(MockRegistryService)
	reg.On("ListContacts", mock.Anything).Return([]*contact.Contact{{ID: 1}, {ID: 2}, {ID: 3}}, nil).Once()

	rr := performRequest(setupContactRouter(reg, new(MockReportingService)), http.MethodGet, "/contacts", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	var contacts []contact.Contact
	decodeResponse(t, rr, &contacts)
	assert.Len(t, contacts, 3)
}

func TestContactHandler_GetByID(t *testing.T) {
	reg := new(MockRegistryService)
	reg.On("GetContact", mock.Anything, int64(8)).Return(nil, contact.ErrContactNotFound{ContactID: 8}).Once()

	rr := performRequest(setupContactRouter(reg, new(MockReportingService)), http.MethodGet, "/contacts/8", "")

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "UNKNOWN_CONTACT", decodeResponse(t, rr, nil).Error.Code)
}

func TestContactHandler_Statement(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		rep := new(MockReportingService)
		rep.On("ContactStatement", mock.Anything, int64(2), mock.Anything, mock.Anything).Return(&reporting.ContactStatement{
			ContactID:      2,
			Name:           "Green Valley Farms",
			ClosingBalance: decimal.NewFromInt(-1250),
		}, nil).Once()

		rr := performRequest(setupContactRouter(new(MockRegistryService), rep), http.MethodGet, "/contacts/2/statement?to=2026-06-30", "")

		assert.Equal(t, http.StatusOK, rr.Code)
		var statement reporting.ContactStatement
		decodeResponse(t, rr, &statement)
		assert.True(t, statement.ClosingBalance.Equal(decimal.NewFromInt(-1250)))
		rep.AssertExpectations(t)
	})

	t.Run("UnknownContact", func(t *testing.T) {
		rep := new(MockReportingService)
		rep.On("ContactStatement", mock.Anything, int64(99), mock.Anything, mock.Anything).
			Return(nil, contact.ErrContactNotFound{ContactID: 99}).Once()

		rr := performRequest(setupContactRouter(new(MockRegistryService), rep), http.MethodGet, "/contacts/99/statement", "")

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}
