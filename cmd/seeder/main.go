// cmd/seeder/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ammerola/jewelry-be/internal/bootstrap"
	"github.com/ammerola/jewelry-be/internal/core/domain"
	"github.com/ammerola/jewelry-be/internal/core/services"
	"github.com/ammerola/jewelry-be/internal/pkg/config"
	"github.com/ammerola/jewelry-be/internal/pkg/logger"
)

// CatalogEntry is one row of a seed catalog file
type CatalogEntry struct {
	Description  string          `json:"description"`
	Weight       decimal.Decimal `json:"weight"`
	PricePerGram decimal.Decimal `json:"price_per_gram"`
	Stock        int             `json:"stock"`
}

// defaultCatalog is used when no catalog file is given
var defaultCatalog = []CatalogEntry{
	{"18K yellow gold solitaire ring", decimal.RequireFromString("4.2"), decimal.RequireFromString("58.50"), 5},
	{"22K Cuban link chain", decimal.RequireFromString("24.8"), decimal.RequireFromString("64.10"), 2},
	{"14K white gold hoop earrings", decimal.RequireFromString("3.1"), decimal.RequireFromString("41.00"), 8},
	{"24K pure gold bangle bracelet", decimal.RequireFromString("18.0"), decimal.RequireFromString("71.25"), 1},
	{"18K rose gold heart pendant", decimal.RequireFromString("2.6"), decimal.RequireFromString("58.50"), 6},
	{"21K used gold wedding band", decimal.RequireFromString("5.4"), decimal.RequireFromString("52.00"), 3},
	{"Recycled 18K gold scrap lot", decimal.RequireFromString("31.7"), decimal.RequireFromString("49.90"), 1},
	{"22K anklet with bells", decimal.RequireFromString("9.3"), decimal.RequireFromString("64.10"), 0},
}

var karatPattern = regexp.MustCompile(`(?i)\b(\d{1,2})\s?k(?:t|arat)?\b`)

// Classifier derives category, karat and condition from a description
type Classifier struct {
	categoryKeywords  map[string][]string
	conditionKeywords map[domain.ItemCondition][]string
}

func NewClassifier() *Classifier {
	return &Classifier{
		categoryKeywords: map[string][]string{
			"rings":     {"ring", "band", "solitaire", "signet"},
			"chains":    {"chain", "link", "rope", "necklace"},
			"earrings":  {"earring", "hoop", "stud", "drop"},
			"bracelets": {"bracelet", "bangle", "cuff", "anklet"},
			"pendants":  {"pendant", "charm", "locket"},
		},
		conditionKeywords: map[domain.ItemCondition][]string{
			domain.ConditionRecycled: {"recycled", "scrap", "melt"},
			domain.ConditionUsed:     {"used", "pre-owned", "vintage", "estate"},
		},
	}
}

// Classify returns the best matching category, the karat and the condition
func (c *Classifier) Classify(text string) (category, karat string, condition domain.ItemCondition) {
	textLower := strings.ToLower(text)

	category = "other"
	maxScore := 0
	for cat, keywords := range c.categoryKeywords {
		score := 0
		for _, kw := range keywords {
			if strings.Contains(textLower, kw) {
				score++
			}
		}
		if score > maxScore || (score == maxScore && score > 0 && cat < category) {
			category = cat
			maxScore = score
		}
	}

	karat = "unknown"
	if m := karatPattern.FindStringSubmatch(text); m != nil {
		karat = m[1] + "K"
	}

	condition = domain.ConditionNew
	for _, cond := range []domain.ItemCondition{domain.ConditionRecycled, domain.ConditionUsed} {
		for _, kw := range c.conditionKeywords[cond] {
			if strings.Contains(textLower, kw) {
				return category, karat, cond
			}
		}
	}

	return category, karat, condition
}

// BuildItem turns a catalog entry into an inventory item
func (c *Classifier) BuildItem(entry CatalogEntry) *domain.InventoryItem {
	category, karat, condition := c.Classify(entry.Description)
	return &domain.InventoryItem{
		Name:         strings.TrimSpace(entry.Description),
		Category:     category,
		Karat:        karat,
		Weight:       entry.Weight,
		PricePerGram: entry.PricePerGram,
		Stock:        entry.Stock,
		Condition:    condition,
	}
}

func loadCatalog(path string) ([]CatalogEntry, error) {
	if path == "" {
		return defaultCatalog, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	var entries []CatalogEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return entries, nil
}

func main() {
	var (
		catalogFile = flag.String("catalog", "", "JSON catalog file (defaults to the built-in demo catalog)")
		logLevel    = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
		dryRun      = flag.Bool("dry-run", false, "Preview items without writing them")
	)
	flag.Parse()

	slogger := logger.SetupLogger(*logLevel, "json").Logger

	entries, err := loadCatalog(*catalogFile)
	if err != nil {
		slogger.Error("failed to load catalog", slog.String("error", err.Error()))
		os.Exit(1)
	}

	classifier := NewClassifier()
	items := make([]*domain.InventoryItem, 0, len(entries))
	for _, entry := range entries {
		items = append(items, classifier.BuildItem(entry))
	}

	if *dryRun {
		for _, item := range items {
			slogger.Info("would seed item",
				slog.String("name", item.Name),
				slog.String("category", item.Category),
				slog.String("karat", item.Karat),
				slog.String("condition", string(item.Condition)),
				slog.Int("stock", item.Stock))
		}
		return
	}

	cfg, err := config.Load(slogger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()

	redisClient, err := bootstrap.NewRedisClient(ctx, cfg, slogger)
	if err != nil {
		slogger.Error("failed to connect to Redis", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer redisClient.Close()

	backend, err := bootstrap.OpenBackend(ctx, cfg, redisClient, slogger)
	if err != nil {
		slogger.Error("failed to open store backend", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer backend.Close()

	service := services.NewInventoryService(backend.Inventory, nil, nil, slogger)

	seeded, failed := 0, 0
	for _, item := range items {
		if err := service.CreateItem(ctx, item); err != nil {
			failed++
			slogger.Error("failed to seed item",
				slog.String("name", item.Name),
				slog.String("error", err.Error()))
			continue
		}
		seeded++
	}

	slogger.Info("seeding complete",
		slog.String("store_backend", backend.Name),
		slog.Int("seeded", seeded),
		slog.Int("failed", failed))

	if failed > 0 {
		os.Exit(1)
	}
}
