package dto

type ApplyVendorRequest struct {
	Name         string `json:"name" validate:"required,min=2,max=255"`
	Subdomain    string `json:"subdomain" validate:"required,min=3,max=63"`
	Description  string `json:"description" validate:"max=5000"`
	ContactEmail string `json:"contact_email" validate:"omitempty,email"`
}

type OnboardVendorRequest struct {
	OwnerEmail   string `json:"owner_email" validate:"required,email"`
	Name         string `json:"name" validate:"required,min=2,max=255"`
	Subdomain    string `json:"subdomain" validate:"required,min=3,max=63"`
	Description  string `json:"description" validate:"max=5000"`
	ContactEmail string `json:"contact_email" validate:"omitempty,email"`
}

type UpdateVendorRequest struct {
	Name         *string `json:"name" validate:"omitempty,min=2,max=255"`
	Description  *string `json:"description" validate:"omitempty,max=5000"`
	LogoURL      *string `json:"logo_url" validate:"omitempty,url"`
	ContactEmail *string `json:"contact_email" validate:"omitempty,email"`
}

type VendorStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active suspended rejected pending"`
}

type AddDomainRequest struct {
	Domain string `json:"domain" validate:"required,fqdn"`
}

type UserRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=buyer seller admin super_admin"`
}

type SettingRequest struct {
	Value string `json:"value" validate:"required"`
	Type  string `json:"type" validate:"omitempty,oneof=string bool int json"`
}
