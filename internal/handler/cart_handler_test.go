package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"storefront/internal/model"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockCartService is a mock implementation of CartService.
type MockCartService struct {
	mock.Mock
}

func (m *MockCartService) Get(ctx context.Context, caller model.Caller) (*model.CartView, error) {
	args := m.Called(ctx, caller)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CartView), args.Error(1)
}

func (m *MockCartService) AddLine(ctx context.Context, caller model.Caller, req *model.AddCartLineRequest) (*model.AddCartLineResponse, error) {
	args := m.Called(ctx, caller, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AddCartLineResponse), args.Error(1)
}

func (m *MockCartService) SetQuantity(ctx context.Context, caller model.Caller, key string, quantity int) (*model.CartView, error) {
	args := m.Called(ctx, caller, key, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CartView), args.Error(1)
}

func (m *MockCartService) Total(ctx context.Context, caller model.Caller) (decimal.Decimal, error) {
	args := m.Called(ctx, caller)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func TestCartHandler_Get(t *testing.T) {
	mockService := new(MockCartService)
	handler := NewCartHandler(mockService, zerolog.Nop())

	view := &model.CartView{BuyerID: testBuyer.ID, Total: decimal.RequireFromString("12.50")}
	mockService.On("Get", mock.Anything, testBuyer).Return(view, nil)

	req := withCaller(httptest.NewRequest(http.MethodGet, "/api/cart", nil), testBuyer)
	w := httptest.NewRecorder()

	handler.Get(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var got model.CartView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "12.5", got.Total.String())
}

func TestCartHandler_AddLine(t *testing.T) {
	logger := zerolog.Nop()
	available := 0

	tests := []struct {
		name           string
		body           string
		mockReturn     *model.AddCartLineResponse
		mockError      error
		expectedStatus int
		expectService  bool
	}{
		{
			name:           "Success",
			body:           `{"productId":"P001","selection":{"Storage":{"label":"128GB"}}}`,
			mockReturn:     &model.AddCartLineResponse{Key: "P001|x", Cart: &model.CartView{BuyerID: testBuyer.ID}},
			expectedStatus: http.StatusOK,
			expectService:  true,
		},
		{
			name:           "Out of stock",
			body:           `{"productId":"P001"}`,
			mockError:      model.NewOutOfStockError("Phone", &available),
			expectedStatus: http.StatusConflict,
			expectService:  true,
		},
		{
			name:           "Unknown product",
			body:           `{"productId":"P404"}`,
			mockError:      model.ErrProductNotFound,
			expectedStatus: http.StatusNotFound,
			expectService:  true,
		},
		{
			name:           "Invalid JSON",
			body:           "invalid json",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Empty body",
			body:           "",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockCartService)
			handler := NewCartHandler(mockService, logger)

			if tt.expectService {
				mockService.On("AddLine", mock.Anything, testBuyer, mock.AnythingOfType("*model.AddCartLineRequest")).
					Return(tt.mockReturn, tt.mockError)
			}

			req := withCaller(httptest.NewRequest(http.MethodPost, "/api/cart/lines", bytes.NewBufferString(tt.body)), testBuyer)
			w := httptest.NewRecorder()

			handler.AddLine(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectService {
				mockService.AssertExpectations(t)
			} else {
				mockService.AssertNotCalled(t, "AddLine", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestCartHandler_SetQuantity(t *testing.T) {
	mockService := new(MockCartService)
	handler := NewCartHandler(mockService, zerolog.Nop())

	key := "P001|%7B%22Storage%22%3A%7B%22label%22%3A%22128GB%22%7D%7D"
	mockService.On("SetQuantity", mock.Anything, testBuyer, key, 0).Return(&model.CartView{BuyerID: testBuyer.ID}, nil)

	req := withCaller(httptest.NewRequest(http.MethodPut, "/api/cart/lines/"+url.PathEscape(key), bytes.NewBufferString(`{"quantity":0}`)), testBuyer)
	req.SetPathValue("key", key)
	w := httptest.NewRecorder()

	handler.SetQuantity(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}
