package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/stockflowhq/stockflow-backend/internal/bom"
	"github.com/stockflowhq/stockflow-backend/pkg/db"
	"github.com/stockflowhq/stockflow-backend/pkg/db/models"
	"github.com/stockflowhq/stockflow-backend/pkg/enums"
	"github.com/stockflowhq/stockflow-backend/pkg/errors"
	"github.com/stockflowhq/stockflow-backend/pkg/logger"
)

// BuildableResolver is the slice of the BOM resolver the catalog needs.
type BuildableResolver interface {
	ComputeBuildable(ctx context.Context, productID uuid.UUID) (bom.Buildable, []bom.LineBreakdown, error)
}

// CreateProductInput registers a sellable product.
type CreateProductInput struct {
	SKU  string `json:"sku" validate:"required"`
	Name string `json:"name" validate:"required"`
}

// CreateComponentInput registers a purchasable component.
type CreateComponentInput struct {
	SKU      string  `json:"sku" validate:"required"`
	Name     string  `json:"name" validate:"required"`
	Category *string `json:"category,omitempty"`
}

// ProductSummary is the fulfillment view of one product: boxed stock on hand
// plus how many more could be assembled from components.
type ProductSummary struct {
	Product   models.Product      `json:"product"`
	InStock   int64               `json:"in_stock"`
	Buildable bom.Buildable       `json:"buildable"`
	Breakdown []bom.LineBreakdown `json:"breakdown,omitempty"`
}

// ComponentAvailability pairs a component with its sellable stock.
type ComponentAvailability struct {
	Component models.Component `json:"component"`
	Available int64            `json:"available"`
	BoxCount  int64            `json:"box_count"`
}

// StockOverview is the warehouse-wide view: every product with its buildable
// arithmetic and every component with its boxed availability.
type StockOverview struct {
	Products   []ProductSummary        `json:"products"`
	Components []ComponentAvailability `json:"components"`
}

type Service interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error)
	CreateComponent(ctx context.Context, input CreateComponentInput) (*models.Component, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetComponent(ctx context.Context, id uuid.UUID) (*models.Component, error)
	ListProducts(ctx context.Context, limit int) ([]models.Product, error)
	ListComponents(ctx context.Context, limit int) ([]models.Component, error)
	Summarize(ctx context.Context, productID uuid.UUID) (*ProductSummary, error)
	Overview(ctx context.Context, limit int) (*StockOverview, error)
}

type service struct {
	repo         *Repository
	availability bom.AvailabilityReader
	resolver     BuildableResolver
	logg         *logger.Logger
}

func NewService(repo *Repository, availability bom.AvailabilityReader, resolver BuildableResolver, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if availability == nil {
		return nil, fmt.Errorf("availability reader is required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("buildable resolver is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{repo: repo, availability: availability, resolver: resolver, logg: logg}, nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	sku := strings.TrimSpace(input.SKU)
	name := strings.TrimSpace(input.Name)
	if sku == "" || name == "" {
		return nil, errors.New(errors.CodeValidation, "sku and name are required")
	}
	product := &models.Product{SKU: sku, Name: name}
	if err := s.repo.InsertProduct(product); err != nil {
		if db.IsUniqueViolation(err, "ux_products_sku") {
			return nil, errors.New(errors.CodeConflict, "sku already registered")
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "inserting product")
	}
	return product, nil
}

func (s *service) CreateComponent(ctx context.Context, input CreateComponentInput) (*models.Component, error) {
	sku := strings.TrimSpace(input.SKU)
	name := strings.TrimSpace(input.Name)
	if sku == "" || name == "" {
		return nil, errors.New(errors.CodeValidation, "sku and name are required")
	}
	component := &models.Component{SKU: sku, Name: name, Category: input.Category}
	if err := s.repo.InsertComponent(component); err != nil {
		if db.IsUniqueViolation(err, "ux_components_sku") {
			return nil, errors.New(errors.CodeConflict, "sku already registered")
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "inserting component")
	}
	return component, nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if id == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "product id is required")
	}
	product, err := s.repo.FindProduct(id)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "loading product")
	}
	if product == nil {
		return nil, errors.New(errors.CodeNotFound, "product not found")
	}
	return product, nil
}

func (s *service) GetComponent(ctx context.Context, id uuid.UUID) (*models.Component, error) {
	if id == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "component id is required")
	}
	component, err := s.repo.FindComponent(id)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "loading component")
	}
	if component == nil {
		return nil, errors.New(errors.CodeNotFound, "component not found")
	}
	return component, nil
}

func (s *service) ListProducts(ctx context.Context, limit int) ([]models.Product, error) {
	products, err := s.repo.ListProducts(limit)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "listing products")
	}
	return products, nil
}

func (s *service) ListComponents(ctx context.Context, limit int) ([]models.Component, error) {
	components, err := s.repo.ListComponents(limit)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "listing components")
	}
	return components, nil
}

func (s *service) Summarize(ctx context.Context, productID uuid.UUID) (*ProductSummary, error) {
	product, err := s.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	availability, err := s.availability.GetAvailableQuantity(ctx, enums.ContentsTypeProduct, product.ID)
	if err != nil {
		return nil, err
	}

	buildable, breakdown, err := s.resolver.ComputeBuildable(ctx, product.ID)
	if err != nil {
		return nil, err
	}

	return &ProductSummary{
		Product:   *product,
		InStock:   availability.Available,
		Buildable: buildable,
		Breakdown: breakdown,
	}, nil
}

// Overview walks the whole catalog. Counts are point-in-time reads; a scan
// or receipt landing mid-walk shows up in some rows and not others.
func (s *service) Overview(ctx context.Context, limit int) (*StockOverview, error) {
	products, err := s.ListProducts(ctx, limit)
	if err != nil {
		return nil, err
	}
	components, err := s.ListComponents(ctx, limit)
	if err != nil {
		return nil, err
	}

	overview := &StockOverview{
		Products:   make([]ProductSummary, 0, len(products)),
		Components: make([]ComponentAvailability, 0, len(components)),
	}

	for _, product := range products {
		summary, err := s.Summarize(ctx, product.ID)
		if err != nil {
			return nil, err
		}
		overview.Products = append(overview.Products, *summary)
	}

	for _, component := range components {
		availability, err := s.availability.GetAvailableQuantity(ctx, enums.ContentsTypeComponent, component.ID)
		if err != nil {
			return nil, err
		}
		overview.Components = append(overview.Components, ComponentAvailability{
			Component: component,
			Available: availability.Available,
			BoxCount:  availability.BoxCount,
		})
	}

	return overview, nil
}
