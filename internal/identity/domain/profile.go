package domain

import (
	"encoding/json"

	"github.com/ayurtrace/ayurtrace/internal/actor"
)

// Profile is the role specific part of an account. The concrete type is
// chosen by the account role.
type Profile interface {
	Role() actor.Role
}

type ConsumerProfile struct {
	PreferredLanguage string `json:"preferred_language,omitempty" validate:"omitempty,bcp47_language_tag"`
	City              string `json:"city,omitempty" validate:"omitempty,max=200"`
}

type ManufacturerProfile struct {
	CompanyName   string `json:"company_name" validate:"required,max=200"`
	LicenseNumber string `json:"license_number" validate:"required,max=64"`
	GSTNumber     string `json:"gst_number,omitempty" validate:"omitempty,len=15,alphanum"`
}

type FarmerUnionProfile struct {
	UnionName     string `json:"union_name" validate:"required,max=200"`
	CooperativeID string `json:"cooperative_id,omitempty" validate:"omitempty,numeric"`
	Region        string `json:"region,omitempty" validate:"omitempty,max=200"`
}

type LaboratoryProfile struct {
	LabName             string `json:"lab_name" validate:"required,max=200"`
	AccreditationNumber string `json:"accreditation_number" validate:"required,max=64"`
	LabID               string `json:"lab_id,omitempty" validate:"omitempty,numeric"`
}

func (ConsumerProfile) Role() actor.Role     { return actor.RoleConsumer }
func (ManufacturerProfile) Role() actor.Role { return actor.RoleManufacturer }
func (FarmerUnionProfile) Role() actor.Role  { return actor.RoleFarmerUnion }
func (LaboratoryProfile) Role() actor.Role   { return actor.RoleLaboratory }

// DecodeProfile reads raw as the profile of role. Admins carry no profile
// and get nil. An empty consumer profile is allowed.
func DecodeProfile(role actor.Role, raw []byte) (Profile, error) {
	switch role {
	case actor.RoleAdmin:
		return nil, nil
	case actor.RoleConsumer:
		return decode[ConsumerProfile](raw, true)
	case actor.RoleManufacturer:
		return decode[ManufacturerProfile](raw, false)
	case actor.RoleFarmerUnion:
		return decode[FarmerUnionProfile](raw, false)
	case actor.RoleLaboratory:
		return decode[LaboratoryProfile](raw, false)
	default:
		return nil, ErrInvalidRole
	}
}

func decode[T Profile](raw []byte, optional bool) (Profile, error) {
	var p T
	if len(raw) == 0 || string(raw) == "null" {
		if optional {
			return p, nil
		}
		return nil, ErrProfileRequired
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, ErrInvalidProfile
	}
	return p, nil
}
