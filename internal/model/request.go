package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type RequestStatus string

const (
	RequestStatusPending    RequestStatus = "pending"
	RequestStatusProcessing RequestStatus = "processing"
	RequestStatusCompleted  RequestStatus = "completed"
	RequestStatusCancelled  RequestStatus = "cancelled"
)

func (s RequestStatus) Valid() bool {
	switch s {
	case RequestStatusPending, RequestStatusProcessing, RequestStatusCompleted, RequestStatusCancelled:
		return true
	}
	return false
}

type BusinessModel string

const (
	BusinessModelFixed        BusinessModel = "fixed"
	BusinessModelInternet     BusinessModel = "internet"
	BusinessModelTelesales    BusinessModel = "telesales"
	BusinessModelDoorToDoor   BusinessModel = "door_to_door"
	BusinessModelMail         BusinessModel = "mail"
	BusinessModelFixedOutside BusinessModel = "fixed_outside"
	BusinessModelVending      BusinessModel = "vending_machines"
)

// ServiceRequest is an applicant's submitted MEI registration request.
type ServiceRequest struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	// Applicant
	FullName      string `gorm:"size:200;not null" json:"full_name"`
	CPF           string `gorm:"size:14;uniqueIndex;not null" json:"cpf"`
	RG            string `gorm:"size:15" json:"rg"`
	IssuingAgency string `gorm:"size:10" json:"issuing_agency"`
	IssuingState  string `gorm:"size:2" json:"issuing_state"`
	Email         string `gorm:"size:254;not null" json:"email"`
	Phone         string `gorm:"size:15" json:"phone"`

	// Business
	PrimaryCNAE    string          `gorm:"size:20;not null" json:"primary_cnae"`
	SecondaryCNAEs string          `gorm:"type:text" json:"secondary_cnaes"`
	BusinessModel  BusinessModel   `gorm:"size:20" json:"business_model"`
	InitialCapital decimal.Decimal `gorm:"type:numeric(12,2)" json:"initial_capital"`

	// Address
	CEP        string `gorm:"size:9" json:"cep"`
	City       string `gorm:"size:100" json:"city"`
	State      string `gorm:"size:2" json:"state"`
	Street     string `gorm:"size:200" json:"street"`
	Number     string `gorm:"size:10" json:"number"`
	District   string `gorm:"size:100" json:"district"`
	Complement string `gorm:"size:100" json:"complement"`

	// Lifecycle
	UserID       *uuid.UUID      `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Status       RequestStatus   `gorm:"size:20;not null;default:pending;index" json:"status"`
	ServiceValue decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"service_value"`
	SaleCreated  bool            `gorm:"not null;default:false" json:"sale_created"`
	Notes        string          `gorm:"type:text" json:"notes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *ServiceRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// SecondaryCNAEList splits the comma separated secondary CNAE field.
func (r *ServiceRequest) SecondaryCNAEList() []string {
	if r.SecondaryCNAEs == "" {
		return nil
	}
	parts := []string{}
	for _, p := range splitTrim(r.SecondaryCNAEs, ",") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}
