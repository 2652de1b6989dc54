package services

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-creative-marketplace/internal/domain"
	"github.com/tbourn/go-creative-marketplace/internal/repo"
)

// DefaultCatalog is the taxonomy installed by CatalogService.Seed.
var DefaultCatalog = []repo.SeedIndustry{
	{Name: "Photography", IconCode: "camera", Description: "Portrait, event and product photography.",
		SubCategories: []string{"Wedding Photographer", "Portrait Photographer", "Product Photographer", "Drone Pilot"}},
	{Name: "Film & Video", IconCode: "videocam", Description: "Shooting, editing and post-production.",
		SubCategories: []string{"Videographer", "Video Editor", "Colorist", "Animator"}},
	{Name: "Music", IconCode: "music_note", Description: "Live performance and studio work.",
		SubCategories: []string{"DJ", "Singer", "Session Musician", "Sound Engineer"}},
	{Name: "Design", IconCode: "brush", Description: "Visual identity and digital design.",
		SubCategories: []string{"Graphic Designer", "Illustrator", "UI Designer"}},
	{Name: "Fashion & Beauty", IconCode: "checkroom", Description: "Styling, makeup and tailoring.",
		SubCategories: []string{"Makeup Artist", "Stylist", "Tailor"}},
	{Name: "Crafts", IconCode: "palette", Description: "Handmade goods and fine art.",
		SubCategories: []string{"Painter", "Potter", "Jeweler"}},
}

// CatalogService exposes the industry / sub category taxonomy.
type CatalogService struct {
	DB *gorm.DB
}

// Industries lists industries, optionally narrowed by search over their own
// and their sub categories' names.
func (s *CatalogService) Industries(ctx context.Context, search string) ([]domain.IndustryCategory, error) {
	tr := otel.Tracer("services/CatalogService")
	ctx, span := tr.Start(ctx, "Industries", trace.WithAttributes(attribute.String("search", search)))
	defer span.End()

	return repo.ListIndustries(ctx, s.DB, search)
}

// SubCategories lists sub categories, optionally for one industry and
// narrowed by a name search.
func (s *CatalogService) SubCategories(ctx context.Context, industryID uint, search string) ([]domain.SubCategory, error) {
	tr := otel.Tracer("services/CatalogService")
	ctx, span := tr.Start(ctx, "SubCategories", trace.WithAttributes(attribute.Int64("industry.id", int64(industryID))))
	defer span.End()

	return repo.ListSubCategories(ctx, s.DB, industryID, search)
}

// Seed installs DefaultCatalog, skipping industries that already exist.
func (s *CatalogService) Seed(ctx context.Context) (int, error) {
	return repo.SeedCatalog(ctx, s.DB, DefaultCatalog)
}
