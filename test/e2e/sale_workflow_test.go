//go:build e2e
// +build e2e

package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/suite"

	asynq_a "github.com/ammerola/jewelry-be/internal/adapters/asynq_adapter"
	redis_a "github.com/ammerola/jewelry-be/internal/adapters/redis_adapter"
	"github.com/ammerola/jewelry-be/internal/bootstrap"
	"github.com/ammerola/jewelry-be/internal/core/domain"
	"github.com/ammerola/jewelry-be/internal/core/services"
	"github.com/ammerola/jewelry-be/internal/handlers"
	"github.com/ammerola/jewelry-be/internal/handlers/middleware"
	"github.com/ammerola/jewelry-be/internal/workers"
	"github.com/ammerola/jewelry-be/test/helpers"
)

type SaleE2ESuite struct {
	suite.Suite
	server    *httptest.Server
	client    *http.Client
	baseURL   string
	testRedis *helpers.TestRedis
	asynq     *asynq.Client
	inspector *asynq.Inspector
}

func (s *SaleE2ESuite) SetupTest() {
	s.testRedis = helpers.SetupTestRedis(s.T())
	s.server = s.startTestServer()
	s.client = &http.Client{Timeout: 10 * time.Second}
	s.baseURL = s.server.URL + "/api/v1"
}

func (s *SaleE2ESuite) TearDownTest() {
	s.server.Close()
	s.asynq.Close()
	s.inspector.Close()
}

func (s *SaleE2ESuite) TestCompleteSaleWorkflow() {
	ring := s.createItem("18K solitaire ring", "4.2", "58.50", 3)
	chain := s.createItem("22K rope chain", "10", "64.10", 1)

	resp := s.makeRequest("POST", "/sales", map[string]interface{}{
		"date":           "2024-06-01",
		"payment_method": "card",
		"items": []map[string]interface{}{
			{"inventory_item_id": ring.ID, "quantity": 2},
			{"inventory_item_id": chain.ID, "quantity": 1},
			{"item_name": "Customer's own chain repair", "weight": "2", "price_per_gram": "50", "quantity": 1},
			{"item_name": "Blank row", "weight": "0", "price_per_gram": "50", "quantity": 1},
		},
	}, nil)
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	var committed handlers.CommitSaleResponse
	s.decodeResponse(resp, &committed)

	// 2*4.2*58.5 + 10*64.1 + 2*50
	s.Equal("1232.4", committed.Sale.Amount.String())
	s.Equal(domain.SaleCommitted, committed.Sale.Status)
	s.Len(committed.Rejections, 1)
	s.Equal(3, committed.Rejections[0].Index)
	s.Empty(committed.Warnings)

	levels := make(map[string]domain.StockLevel)
	for _, l := range committed.Stock {
		levels[l.ItemID] = l
	}
	s.Equal(1, levels[ring.ID].Stock)
	s.Equal(domain.StatusAvailable, levels[ring.ID].Status)
	s.Equal(0, levels[chain.ID].Stock)
	s.Equal(domain.StatusOut, levels[chain.ID].Status)

	// The cached item view was invalidated by the commit
	resp = s.makeRequest("GET", "/inventory/"+chain.ID, nil, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var refreshed domain.InventoryItem
	s.decodeResponse(resp, &refreshed)
	s.Equal(0, refreshed.Stock)
	s.Equal(domain.StatusOut, refreshed.Status)

	resp = s.makeRequest("GET", "/inventory?in_stock=true", nil, nil)
	var inStock []domain.InventoryItem
	s.decodeResponse(resp, &inStock)
	s.Len(inStock, 1)
	s.Equal(ring.ID, inStock[0].ID)

	resp = s.makeRequest("GET", "/sales/"+committed.Sale.ID, nil, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var sale domain.Sale
	s.decodeResponse(resp, &sale)
	s.Len(sale.Lines, 3)

	pending, err := s.inspector.ListPendingTasks(workers.QueueDefault)
	s.Require().NoError(err)
	s.Require().Len(pending, 1)
	s.Equal(workers.TypeSaleNotify, pending[0].Type)
}

func (s *SaleE2ESuite) TestInsufficientStockLeavesInventoryUntouched() {
	ring := s.createItem("18K signet ring", "6", "58.50", 1)

	resp := s.makeRequest("POST", "/sales", map[string]interface{}{
		"items": []map[string]interface{}{
			{"inventory_item_id": ring.ID, "quantity": 1},
			{"inventory_item_id": ring.ID, "quantity": 1},
		},
	}, nil)
	s.Require().Equal(http.StatusConflict, resp.StatusCode)

	var failure handlers.CommitErrorResponse
	s.decodeResponse(resp, &failure)
	s.Equal("insufficient_stock", failure.Kind)
	s.Equal(2, failure.Requested)
	s.Equal(1, failure.Available)

	resp = s.makeRequest("GET", "/inventory/"+ring.ID, nil, nil)
	var item domain.InventoryItem
	s.decodeResponse(resp, &item)
	s.Equal(1, item.Stock)

	resp = s.makeRequest("GET", "/sales", nil, nil)
	var sales []domain.Sale
	s.decodeResponse(resp, &sales)
	s.Empty(sales)
}

func (s *SaleE2ESuite) TestIdempotentResubmission() {
	ring := s.createItem("14K stud earrings", "1.5", "41", 4)
	body := map[string]interface{}{
		"items": []map[string]interface{}{{"inventory_item_id": ring.ID, "quantity": 1}},
	}
	headers := map[string]string{handlers.IdempotencyKeyHeader: "till-1-000042"}

	first := s.makeRequest("POST", "/sales", body, headers)
	s.Require().Equal(http.StatusCreated, first.StatusCode)
	var created handlers.CommitSaleResponse
	s.decodeResponse(first, &created)

	second := s.makeRequest("POST", "/sales", body, headers)
	s.Require().Equal(http.StatusOK, second.StatusCode)
	var replayed handlers.CommitSaleResponse
	s.decodeResponse(second, &replayed)

	s.True(replayed.Replayed)
	s.Equal(created.Sale.ID, replayed.Sale.ID)

	resp := s.makeRequest("GET", "/inventory/"+ring.ID, nil, nil)
	var item domain.InventoryItem
	s.decodeResponse(resp, &item)
	s.Equal(3, item.Stock)
}

func (s *SaleE2ESuite) TestConcurrentSalesConserveStock() {
	const initial, buyers = 5, 10
	ring := s.createItem("22K bangle bracelet", "12", "64.10", initial)

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		codes = make(map[int]int)
		taken int
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp := s.makeRequest("POST", "/sales", map[string]interface{}{
				"items": []map[string]interface{}{{"inventory_item_id": ring.ID, "quantity": 1}},
			}, nil)

			var committed handlers.CommitSaleResponse
			if resp.StatusCode == http.StatusCreated {
				s.decodeResponse(resp, &committed)
			} else {
				resp.Body.Close()
			}

			mu.Lock()
			defer mu.Unlock()
			codes[resp.StatusCode]++
			for _, l := range committed.Stock {
				taken += 1 - l.Shortfall
			}
		}()
	}
	wg.Wait()

	s.Equal(buyers, codes[http.StatusCreated]+codes[http.StatusConflict], "unexpected statuses: %v", codes)
	s.GreaterOrEqual(codes[http.StatusCreated], initial)
	s.Equal(initial, taken)

	resp := s.makeRequest("GET", "/inventory/"+ring.ID, nil, nil)
	var item domain.InventoryItem
	s.decodeResponse(resp, &item)
	s.Equal(0, item.Stock)
	s.Equal(domain.StatusOut, item.Status)
}

func (s *SaleE2ESuite) TestValidationErrors() {
	resp := s.makeRequest("POST", "/sales", map[string]interface{}{"items": []interface{}{}}, nil)
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = s.makeRequest("POST", "/sales", map[string]interface{}{
		"items": []map[string]interface{}{{"item_name": "Empty", "weight": "0", "price_per_gram": "0", "quantity": 1}},
	}, nil)
	s.Equal(http.StatusUnprocessableEntity, resp.StatusCode)
	var failure handlers.CommitErrorResponse
	s.decodeResponse(resp, &failure)
	s.Equal("no_valid_lines", failure.Kind)

	resp = s.makeRequest("GET", "/sales/does-not-exist", nil, nil)
	s.Equal(http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func (s *SaleE2ESuite) startTestServer() *httptest.Server {
	ctx := context.Background()
	logger := helpers.TestLogger()
	cfg := helpers.LoadTestConfig()
	// Every writer watches the same collection key in the concurrent test
	cfg.Commit.StockRetries = 64
	client := s.testRedis.Client

	backend, err := bootstrap.OpenBackend(ctx, cfg, client, logger)
	s.Require().NoError(err)

	redisOpt := asynq.RedisClientOpt{Addr: s.testRedis.Server.Addr()}
	s.asynq = asynq.NewClient(redisOpt)
	s.inspector = asynq.NewInspector(redisOpt)

	cache := redis_a.NewCache(client, time.Minute, logger)
	invalidator := redis_a.NewInvalidator(cache, logger)

	inventoryHandler := handlers.NewInventoryHandler(
		services.NewInventoryService(backend.Inventory, cache, invalidator, logger), logger)
	saleHandler := handlers.NewSaleHandler(services.NewSaleService(services.SaleServiceDeps{
		Inventory:   backend.Inventory,
		Sales:       backend.Sales,
		Transactor:  backend.Transactor,
		Notifier:    asynq_a.NewTaskNotifier(s.asynq, logger),
		Invalidator: invalidator,
	}, cfg.Commit.RepositoryTimeout, logger), logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/inventory", inventoryHandler.ListInventory)
	mux.HandleFunc("GET /api/v1/inventory/{id}", inventoryHandler.GetInventory)
	mux.HandleFunc("POST /api/v1/inventory", inventoryHandler.CreateInventory)
	mux.HandleFunc("POST /api/v1/sales", saleHandler.CommitSale)
	mux.HandleFunc("GET /api/v1/sales", saleHandler.ListSales)
	mux.HandleFunc("GET /api/v1/sales/{id}", saleHandler.GetSale)

	return httptest.NewServer(middleware.Chain(mux,
		middleware.Recovery(logger),
		middleware.RequestID,
		middleware.Logger(logger),
	))
}

func (s *SaleE2ESuite) createItem(name, weight, pricePerGram string, stock int) domain.InventoryItem {
	resp := s.makeRequest("POST", "/inventory", map[string]interface{}{
		"name":           name,
		"karat":          name[:3],
		"weight":         weight,
		"price_per_gram": pricePerGram,
		"stock":          stock,
	}, nil)
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	var item domain.InventoryItem
	s.decodeResponse(resp, &item)
	return item
}

func (s *SaleE2ESuite) makeRequest(method, path string, body interface{}, headers map[string]string) *http.Response {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			panic(fmt.Sprintf("failed to encode request body: %v", err))
		}
	}

	req, err := http.NewRequest(method, s.baseURL+path, &buf)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	s.Require().NoError(err)
	return resp
}

func (s *SaleE2ESuite) decodeResponse(resp *http.Response, v interface{}) {
	defer resp.Body.Close()
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(v))
}

func TestSaleE2ESuite(t *testing.T) {
	suite.Run(t, new(SaleE2ESuite))
}
