package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ServiceType string

const (
	ServiceTypeOpenMEI          ServiceType = "open_mei"
	ServiceTypeRegularizeMEI    ServiceType = "regularize_mei"
	ServiceTypeAnnualStatement  ServiceType = "annual_statement_mei"
	ServiceTypeCloseMEI         ServiceType = "close_mei"
	ServiceTypeAmendMEI         ServiceType = "amend_mei"
	ServiceTypeStateRegistry    ServiceType = "state_registration"
	ServiceTypeInstallmentPlan  ServiceType = "installment_plan_mei"
	ServiceTypeMEICertificate   ServiceType = "mei_certificate"
	ServiceTypeDebtClearance    ServiceType = "debt_clearance_certificate"
	ServiceTypeMEIStatus        ServiceType = "mei_status"
	ServiceTypeOperatingLicense ServiceType = "operating_license"
	ServiceTypeDigitalCert      ServiceType = "digital_certificate"
)

// Service is a catalog entry for one MEI bureaucratic service.
type Service struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Name          string          `gorm:"size:200;not null" json:"name"`
	Slug          string          `gorm:"size:200;uniqueIndex;not null" json:"slug"`
	Type          ServiceType     `gorm:"size:50;not null" json:"type"`
	Description   string          `gorm:"type:text" json:"description"`
	Price         decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	EstimatedTime string          `gorm:"size:100" json:"estimated_time"`
	Active        bool            `gorm:"not null;default:true" json:"active"`
	DisplayOrder  int             `gorm:"not null;default:0" json:"display_order"`
	CreatedAt     time.Time       `json:"created_at"`
}

func (s *Service) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
