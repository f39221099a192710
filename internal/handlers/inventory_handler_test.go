// internal/handlers/inventory_handler_test.go
package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/jewelry-be/internal/core/domain"
	"github.com/ammerola/jewelry-be/internal/core/ports"
	"github.com/ammerola/jewelry-be/internal/handlers"
	"github.com/ammerola/jewelry-be/test/helpers"
	"github.com/ammerola/jewelry-be/test/mocks"
)

func TestInventoryHandler_GetInventory(t *testing.T) {
	testItem := helpers.CreateTestInventoryItem()

	tests := []struct {
		name           string
		itemID         string
		setupMocks     func(*mocks.MockInventoryService)
		expectedStatus int
		validateBody   func(*testing.T, []byte)
	}{
		{
			name:   "successfully_retrieves_inventory_item",
			itemID: testItem.ID,
			setupMocks: func(m *mocks.MockInventoryService) {
				m.EXPECT().
					GetByID(gomock.Any(), testItem.ID).
					Return(testItem, nil)
			},
			expectedStatus: http.StatusOK,
			validateBody: func(t *testing.T, body []byte) {
				var response domain.InventoryItem
				err := json.Unmarshal(body, &response)
				require.NoError(t, err)
				assert.Equal(t, testItem.ID, response.ID)
				assert.Equal(t, testItem.Name, response.Name)
				assert.Equal(t, domain.StatusAvailable, response.Status)
			},
		},
		{
			name:   "item_not_found",
			itemID: "missing",
			setupMocks: func(m *mocks.MockInventoryService) {
				m.EXPECT().
					GetByID(gomock.Any(), "missing").
					Return(nil, fmt.Errorf("inventory item missing: %w", domain.ErrNotFound))
			},
			expectedStatus: http.StatusNotFound,
			validateBody: func(t *testing.T, body []byte) {
				var response map[string]string
				err := json.Unmarshal(body, &response)
				require.NoError(t, err)
				assert.Equal(t, "Inventory item not found", response["error"])
			},
		},
		{
			name:   "service_error",
			itemID: testItem.ID,
			setupMocks: func(m *mocks.MockInventoryService) {
				m.EXPECT().
					GetByID(gomock.Any(), testItem.ID).
					Return(nil, errors.New("database connection failed"))
			},
			expectedStatus: http.StatusInternalServerError,
			validateBody: func(t *testing.T, body []byte) {
				var response map[string]string
				err := json.Unmarshal(body, &response)
				require.NoError(t, err)
				assert.Equal(t, "Failed to retrieve inventory item", response["error"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockService := mocks.NewMockInventoryService(ctrl)
			handler := handlers.NewInventoryHandler(mockService, helpers.TestLogger())

			tt.setupMocks(mockService)

			req := httptest.NewRequest("GET", "/api/v1/inventory/"+tt.itemID, nil)
			req.SetPathValue("id", tt.itemID)
			w := httptest.NewRecorder()

			handler.GetInventory(w, req)

			assert.Equal(t, tt.expectedStatus, w.Result().StatusCode)
			if tt.validateBody != nil {
				tt.validateBody(t, w.Body.Bytes())
			}
		})
	}
}

func TestInventoryHandler_ListInventory(t *testing.T) {
	tests := []struct {
		name           string
		queryParams    map[string]string
		expectedParams ports.InventoryListParams
		serviceErr     error
		expectedStatus int
	}{
		{
			name:           "default_parameters",
			queryParams:    map[string]string{},
			expectedParams: ports.InventoryListParams{},
			expectedStatus: http.StatusOK,
		},
		{
			name: "sale_form_in_stock_filter",
			queryParams: map[string]string{
				"in_stock": "true",
				"category": "rings",
				"limit":    "25",
			},
			expectedParams: ports.InventoryListParams{InStockOnly: true, Category: "rings", Limit: 25},
			expectedStatus: http.StatusOK,
		},
		{
			name: "ignores_malformed_values",
			queryParams: map[string]string{
				"in_stock": "sometimes",
				"limit":    "-4",
			},
			expectedParams: ports.InventoryListParams{},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "service_error",
			queryParams:    map[string]string{},
			expectedParams: ports.InventoryListParams{},
			serviceErr:     errors.New("boom"),
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockService := mocks.NewMockInventoryService(ctrl)
			handler := handlers.NewInventoryHandler(mockService, helpers.TestLogger())

			items := helpers.CreateTestInventoryItems(3)
			if tt.serviceErr != nil {
				items = nil
			}
			mockService.EXPECT().
				List(gomock.Any(), tt.expectedParams).
				Return(items, tt.serviceErr)

			q := url.Values{}
			for k, v := range tt.queryParams {
				q.Set(k, v)
			}
			req := httptest.NewRequest("GET", "/api/v1/inventory?"+q.Encode(), nil)
			w := httptest.NewRecorder()

			handler.ListInventory(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.serviceErr == nil {
				var response []domain.InventoryItem
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
				assert.Len(t, response, 3)
			}
		})
	}
}

func TestInventoryHandler_CreateInventory(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMocks     func(*mocks.MockInventoryService)
		expectedStatus int
		validateBody   func(*testing.T, []byte)
	}{
		{
			name: "creates_item_with_defaults",
			body: `{"name":"Cuban Link","karat":"22K","weight":"12.5","price_per_gram":"64.10","stock":3}`,
			setupMocks: func(m *mocks.MockInventoryService) {
				m.EXPECT().
					CreateItem(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ any, item *domain.InventoryItem) error {
						item.PrepareForStorage()
						return nil
					})
			},
			expectedStatus: http.StatusCreated,
			validateBody: func(t *testing.T, body []byte) {
				var response domain.InventoryItem
				require.NoError(t, json.Unmarshal(body, &response))
				assert.NotEmpty(t, response.ID)
				assert.Equal(t, "Cuban Link", response.Name)
				assert.Equal(t, "other", response.Category)
				assert.Equal(t, domain.ConditionNew, response.Condition)
				assert.Equal(t, domain.StatusAvailable, response.Status)
				assert.Equal(t, "64.1", response.PricePerGram.String())
			},
		},
		{
			name:           "malformed_json",
			body:           `{"name":`,
			setupMocks:     func(*mocks.MockInventoryService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown_field",
			body:           `{"name":"Ring","karat":"18K","weight":"1","price_per_gram":"1","lot_id":"x"}`,
			setupMocks:     func(*mocks.MockInventoryService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing_required_fields",
			body:           `{"weight":"1","price_per_gram":"1","stock":-1,"condition":"shiny"}`,
			setupMocks:     func(*mocks.MockInventoryService) {},
			expectedStatus: http.StatusBadRequest,
			validateBody: func(t *testing.T, body []byte) {
				var response handlers.ErrorResponse
				require.NoError(t, json.Unmarshal(body, &response))
				assert.Equal(t, "required", response.Fields["name"])
				assert.Equal(t, "required", response.Fields["karat"])
				assert.Equal(t, "gte", response.Fields["stock"])
				assert.Equal(t, "oneof", response.Fields["condition"])
			},
		},
		{
			name:           "non_positive_weight",
			body:           `{"name":"Ring","karat":"18K","weight":"0","price_per_gram":"60"}`,
			setupMocks:     func(*mocks.MockInventoryService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			validateBody: func(t *testing.T, body []byte) {
				var response map[string]string
				require.NoError(t, json.Unmarshal(body, &response))
				assert.Equal(t, "weight must be positive", response["error"])
			},
		},
		{
			name: "service_error",
			body: `{"name":"Ring","karat":"18K","weight":"2","price_per_gram":"60"}`,
			setupMocks: func(m *mocks.MockInventoryService) {
				m.EXPECT().CreateItem(gomock.Any(), gomock.Any()).Return(errors.New("failed to save item"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockService := mocks.NewMockInventoryService(ctrl)
			handler := handlers.NewInventoryHandler(mockService, helpers.TestLogger())

			tt.setupMocks(mockService)

			req := httptest.NewRequest("POST", "/api/v1/inventory", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler.CreateInventory(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			if tt.validateBody != nil {
				tt.validateBody(t, w.Body.Bytes())
			}
		})
	}
}
