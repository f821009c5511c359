package bom

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/stockflowhq/stockflow-backend/internal/stockledger"
	"github.com/stockflowhq/stockflow-backend/pkg/db"
	"github.com/stockflowhq/stockflow-backend/pkg/db/models"
	"github.com/stockflowhq/stockflow-backend/pkg/enums"
	"github.com/stockflowhq/stockflow-backend/pkg/errors"
	"github.com/stockflowhq/stockflow-backend/pkg/logger"
)

// AvailabilityReader is the slice of the stock ledger the resolver needs.
type AvailabilityReader interface {
	GetAvailableQuantity(ctx context.Context, contentsType enums.ContentsType, contentsID uuid.UUID) (stockledger.AvailabilitySummary, error)
}

// Buildable is the result of resolving a product's bill of materials against
// current component availability. A product with no BOM lines has no limiting
// component, reported as Unlimited rather than zero.
type Buildable struct {
	Unlimited bool  `json:"unlimited"`
	Quantity  int64 `json:"quantity"`
}

// LineBreakdown reports the per-component arithmetic behind a Buildable.
type LineBreakdown struct {
	ComponentID      uuid.UUID `json:"component_id"`
	ComponentSKU     string    `json:"component_sku,omitempty"`
	RequiredQuantity int       `json:"required_quantity"`
	Available        int64     `json:"available"`
	Buildable        *int64    `json:"buildable,omitempty"`
}

// AddBOMLineInput declares one component requirement of a product.
type AddBOMLineInput struct {
	ComponentID      uuid.UUID `json:"component_id" validate:"required"`
	RequiredQuantity int       `json:"required_quantity" validate:"gte=1"`
}

// Service resolves bills of materials. Reads are point-in-time: buildable
// counts are advisory and may be stale by the time a caller acts on them.
type Service interface {
	ComputeBuildable(ctx context.Context, productID uuid.UUID) (Buildable, []LineBreakdown, error)
	AddBOMLine(ctx context.Context, productID uuid.UUID, input AddBOMLineInput) (*models.BOMLine, error)
	RemoveBOMLine(ctx context.Context, productID, componentID uuid.UUID) error
	ListBOM(ctx context.Context, productID uuid.UUID) ([]models.BOMLine, error)
}

type service struct {
	repo         *Repository
	availability AvailabilityReader
	logg         *logger.Logger
}

func NewService(repo *Repository, availability AvailabilityReader, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if availability == nil {
		return nil, fmt.Errorf("availability reader is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{repo: repo, availability: availability, logg: logg}, nil
}

// ComputeBuildable returns min over BOM lines of floor(available / required).
// Imported data can carry lines with required_quantity = 0; those never limit
// the count and are skipped here.
func (s *service) ComputeBuildable(ctx context.Context, productID uuid.UUID) (Buildable, []LineBreakdown, error) {
	if err := s.requireProduct(productID); err != nil {
		return Buildable{}, nil, err
	}

	lines, err := s.repo.ListLines(productID)
	if err != nil {
		return Buildable{}, nil, errors.Wrap(errors.CodeInternal, err, "listing bom lines")
	}

	breakdown := make([]LineBreakdown, 0, len(lines))
	limited := false
	var minBuildable int64

	for _, line := range lines {
		summary, err := s.availability.GetAvailableQuantity(ctx, enums.ContentsTypeComponent, line.ComponentID)
		if err != nil {
			return Buildable{}, nil, err
		}

		entry := LineBreakdown{
			ComponentID:      line.ComponentID,
			RequiredQuantity: line.RequiredQuantity,
			Available:        summary.Available,
		}
		if line.Component != nil {
			entry.ComponentSKU = line.Component.SKU
		}

		if line.RequiredQuantity > 0 {
			lineBuildable := summary.Available / int64(line.RequiredQuantity)
			entry.Buildable = &lineBuildable
			if !limited || lineBuildable < minBuildable {
				minBuildable = lineBuildable
				limited = true
			}
		}
		breakdown = append(breakdown, entry)
	}

	if !limited {
		return Buildable{Unlimited: true}, breakdown, nil
	}
	return Buildable{Quantity: minBuildable}, breakdown, nil
}

func (s *service) AddBOMLine(ctx context.Context, productID uuid.UUID, input AddBOMLineInput) (*models.BOMLine, error) {
	if err := s.requireProduct(productID); err != nil {
		return nil, err
	}
	if input.ComponentID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "component_id is required")
	}
	if input.RequiredQuantity < 1 {
		return nil, errors.New(errors.CodeValidation, "required_quantity must be at least 1")
	}

	exists, err := s.repo.ComponentExists(input.ComponentID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "checking component")
	}
	if !exists {
		return nil, errors.New(errors.CodeNotFound, "component not found")
	}

	line := &models.BOMLine{
		ProductID:        productID,
		ComponentID:      input.ComponentID,
		RequiredQuantity: input.RequiredQuantity,
	}
	if err := s.repo.InsertLine(line); err != nil {
		if db.IsUniqueViolation(err, "ux_bom_lines_product_component") {
			return nil, errors.New(errors.CodeConflict, "component already on this bill of materials")
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "inserting bom line")
	}

	s.logg.Info(s.logg.WithField(ctx, "product_id", productID.String()), "bom line added")
	return line, nil
}

func (s *service) RemoveBOMLine(ctx context.Context, productID, componentID uuid.UUID) error {
	if err := s.requireProduct(productID); err != nil {
		return err
	}
	affected, err := s.repo.DeleteLine(productID, componentID)
	if err != nil {
		return errors.Wrap(errors.CodeInternal, err, "deleting bom line")
	}
	if affected == 0 {
		return errors.New(errors.CodeNotFound, "bom line not found")
	}
	return nil
}

func (s *service) ListBOM(ctx context.Context, productID uuid.UUID) ([]models.BOMLine, error) {
	if err := s.requireProduct(productID); err != nil {
		return nil, err
	}
	lines, err := s.repo.ListLines(productID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "listing bom lines")
	}
	return lines, nil
}

func (s *service) requireProduct(productID uuid.UUID) error {
	if productID == uuid.Nil {
		return errors.New(errors.CodeValidation, "product id is required")
	}
	exists, err := s.repo.ProductExists(productID)
	if err != nil {
		return errors.Wrap(errors.CodeInternal, err, "checking product")
	}
	if !exists {
		return errors.New(errors.CodeNotFound, "product not found")
	}
	return nil
}
