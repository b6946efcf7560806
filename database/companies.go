package database

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"companies-backend/models"
	"companies-backend/pagination"
)

// CompanyQuery selects one page of companies, optionally narrowed by a search term.
type CompanyQuery struct {
	Search *string
	Offset int
	Limit  int
}

func CompanyQueryFromRequest(req pagination.Request) CompanyQuery {
	return CompanyQuery{
		Search: req.Search,
		Offset: req.Offset(),
		Limit:  req.PerPage,
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Filter is a gorm scope matching the search term as a case-insensitive substring of
// name or cif.
func (q CompanyQuery) Filter(db *gorm.DB) *gorm.DB {
	if q.Search == nil || *q.Search == "" {
		return db
	}
	pattern := "%" + likeEscaper.Replace(strings.ToLower(*q.Search)) + "%"
	return db.Where(`(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(cif) LIKE ? ESCAPE '\')`, pattern, pattern)
}

// ListCompanies returns the requested page in creation order and the number of rows
// matching the filter before paging.
func ListCompanies(ctx context.Context, db *gorm.DB, q CompanyQuery) ([]models.Company, int64, error) {
	var total int64
	if err := db.WithContext(ctx).Model(&models.Company{}).Scopes(q.Filter).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count companies: %w", err)
	}

	companies := []models.Company{}
	if total == 0 || int64(q.Offset) >= total {
		return companies, total, nil
	}

	err := db.WithContext(ctx).
		Scopes(q.Filter).
		Order("id ASC").
		Offset(q.Offset).
		Limit(q.Limit).
		Find(&companies).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list companies: %w", err)
	}
	return companies, total, nil
}

// CIFTaken reports whether a company other than exceptID already uses cif.
// Pass exceptID 0 to check against every row.
func CIFTaken(ctx context.Context, db *gorm.DB, cif string, exceptID uint) (bool, error) {
	q := db.WithContext(ctx).Model(&models.Company{}).Where("cif = ?", cif)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}

	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, fmt.Errorf("check cif uniqueness: %w", err)
	}
	return n > 0, nil
}
