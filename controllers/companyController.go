package controllers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"companies-backend/database"
	"companies-backend/middlewares"
	"companies-backend/models"
	"companies-backend/pagination"
	"companies-backend/utils"
	"companies-backend/validation"
)

const msgCIFTaken = "cif has already been taken"

var errCompanyNotFound = fiber.NewError(fiber.StatusNotFound, "Company not found")

type CompanyCreateDTO struct {
	Name           string `json:"name" validate:"required,max=255"`
	CIF            string `json:"cif" validate:"required,max=32"`
	ContactPerson  string `json:"contact_person" validate:"required,max=255"`
	CompanyAddress string `json:"company_address" validate:"required,max=255"`
}

// CompanyUpdateDTO distinguishes "not supplied" (nil) from "supplied empty" (pointer to "").
type CompanyUpdateDTO struct {
	Name           *string `json:"name" validate:"omitnil,min=1,max=255"`
	CIF            *string `json:"cif" validate:"omitnil,min=1,max=32"`
	ContactPerson  *string `json:"contact_person" validate:"omitnil,min=1,max=255"`
	CompanyAddress *string `json:"company_address" validate:"omitnil,min=1,max=255"`
}

type CompanyController struct {
	db         *gorm.DB
	pagination pagination.Config
}

func NewCompanyController(db *gorm.DB, cfg pagination.Config) *CompanyController {
	return &CompanyController{db: db, pagination: cfg}
}

// GET /api/v1/companies?search=&per_page=&page=
func (cc *CompanyController) List(c *fiber.Ctx) error {
	req := pagination.RequestFromQuery(func(key string) string { return c.Query(key) }, cc.pagination)

	companies, total, err := database.ListCompanies(c.UserContext(), cc.db, database.CompanyQueryFromRequest(req))
	if err != nil {
		return err
	}

	return c.JSON(pagination.NewPage(companies, total, req, c.BaseURL()+c.Path()))
}

// POST /api/v1/companies
func (cc *CompanyController) Create(c *fiber.Ctx) error {
	var in CompanyCreateDTO
	if err := middlewares.Bind(c, &in); err != nil {
		return err
	}

	ctx := c.UserContext()
	if err := validateCompanyCreate(ctx, cc.db, &in); err != nil {
		return err
	}

	company := models.Company{
		Name:           in.Name,
		CIF:            in.CIF,
		ContactPerson:  in.ContactPerson,
		CompanyAddress: in.CompanyAddress,
	}
	if err := cc.db.WithContext(ctx).Create(&company).Error; err != nil {
		return writeError(err)
	}

	zap.L().Info("company created", zap.Uint("id", company.ID), zap.String("cif", company.CIF))
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"data":    company,
		"message": "Company created successfully",
	})
}

// GET /api/v1/companies/:id
func (cc *CompanyController) Show(c *fiber.Ctx) error {
	id, err := companyID(c)
	if err != nil {
		return err
	}

	company, err := findCompany(cc.db.WithContext(c.UserContext()), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": company})
}

// PUT /api/v1/companies/:id
func (cc *CompanyController) Update(c *fiber.Ctx) error {
	id, err := companyID(c)
	if err != nil {
		return err
	}

	var in CompanyUpdateDTO
	if err := middlewares.Bind(c, &in); err != nil {
		return err
	}

	ctx := c.UserContext()
	var out models.Company
	err = cc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := findCompany(tx, id)
		if err != nil {
			return err
		}

		if err := validateCompanyUpdate(ctx, tx, &in, existing.ID); err != nil {
			return err
		}

		// Only supplied fields change.
		updates, err := utils.ColumnUpdates(tx, &models.Company{}, &in)
		if err != nil {
			return err
		}
		if len(updates) > 0 {
			if err := tx.Model(&existing).Updates(updates).Error; err != nil {
				return writeError(err)
			}
		}

		return tx.First(&out, existing.ID).Error
	})
	if err != nil {
		return err
	}

	zap.L().Info("company updated", zap.Uint("id", out.ID))
	return c.JSON(fiber.Map{
		"data":    out,
		"message": "Company updated successfully",
	})
}

// DELETE /api/v1/companies/:id
func (cc *CompanyController) Delete(c *fiber.Ctx) error {
	id, err := companyID(c)
	if err != nil {
		return err
	}

	err = cc.db.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
		existing, err := findCompany(tx, id)
		if err != nil {
			return err
		}
		return tx.Delete(&existing).Error
	})
	if err != nil {
		return err
	}

	zap.L().Info("company deleted", zap.Uint("id", id))
	return c.JSON(fiber.Map{"message": "Company deleted successfully"})
}

// companyID parses the :id path parameter; anything that is not a positive integer
// cannot name a company.
func companyID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return 0, errCompanyNotFound
	}
	return uint(id), nil
}

func findCompany(db *gorm.DB, id uint) (models.Company, error) {
	var company models.Company
	if err := db.First(&company, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return company, errCompanyNotFound
		}
		return company, err
	}
	return company, nil
}

// validateCompanyCreate reports every failing field, including a cif already in use.
func validateCompanyCreate(ctx context.Context, db *gorm.DB, in *CompanyCreateDTO) error {
	errs, err := structErrors(in)
	if err != nil {
		return err
	}
	if err := checkCIF(ctx, db, errs, in.CIF, 0); err != nil {
		return err
	}
	return errs.Err()
}

// validateCompanyUpdate checks only supplied fields; cif must stay unique among the
// other companies.
func validateCompanyUpdate(ctx context.Context, db *gorm.DB, in *CompanyUpdateDTO, id uint) error {
	errs, err := structErrors(in)
	if err != nil {
		return err
	}
	if in.CIF != nil {
		if err := checkCIF(ctx, db, errs, *in.CIF, id); err != nil {
			return err
		}
	}
	return errs.Err()
}

func structErrors(v any) (validation.Errors, error) {
	errs := validation.Errors{}
	if err := validation.Struct(v); err != nil {
		var ve validation.Errors
		if !errors.As(err, &ve) {
			return nil, err
		}
		errs.Merge(ve)
	}
	return errs, nil
}

func checkCIF(ctx context.Context, db *gorm.DB, errs validation.Errors, cif string, exceptID uint) error {
	if cif == "" || len(errs["cif"]) > 0 {
		return nil
	}
	taken, err := database.CIFTaken(ctx, db, cif, exceptID)
	if err != nil {
		return err
	}
	if taken {
		errs.Add("cif", msgCIFTaken)
	}
	return nil
}

// writeError maps a unique-index violation (a concurrent writer won the cif) to the same
// validation failure the pre-check reports.
func writeError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return validation.Errors{"cif": {msgCIFTaken}}
	}
	return err
}
