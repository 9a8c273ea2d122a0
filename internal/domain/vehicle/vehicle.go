package vehicle

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gavelworks/auction-backend/internal/domain/errors"
)

// Kind discriminates the vehicle variants.
type Kind string

const (
	KindSedan Kind = "sedan"
	KindSUV   Kind = "suv"
	KindTruck Kind = "truck"
)

// ParseKind resolves a kind tag from a creation request.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindSedan:
		return KindSedan, nil
	case KindSUV:
		return KindSUV, nil
	case KindTruck:
		return KindTruck, nil
	default:
		return "", errors.NewValidationError("INVALID_VEHICLE_KIND",
			fmt.Sprintf("unknown vehicle kind %q", s))
	}
}

// SedanAttrs holds sedan-specific attributes.
type SedanAttrs struct {
	Doors   int  `json:"doors"`
	Sunroof bool `json:"sunroof"`
}

// SUVAttrs holds SUV-specific attributes.
type SUVAttrs struct {
	Seating        int             `json:"seating"`
	FourWheelDrive bool            `json:"four_wheel_drive"`
	CargoCapacity  decimal.Decimal `json:"cargo_capacity"`
}

// TruckAttrs holds truck-specific attributes.
type TruckAttrs struct {
	LoadCapacity   decimal.Decimal `json:"load_capacity"`
	BedLength      decimal.Decimal `json:"bed_length"`
	FourWheelDrive bool            `json:"four_wheel_drive"`
}

// Vehicle is a tagged variant of {Sedan, SUV, Truck}. Vehicles are immutable
// once created; Version stays at 1 for the lifetime of the entity.
type Vehicle struct {
	ID      uuid.UUID       `json:"id"`
	Kind    Kind            `json:"kind"`
	Make    string          `json:"make"`
	Model   string          `json:"model"`
	Year    int             `json:"year"`
	VIN     string          `json:"vin"`
	Mileage decimal.Decimal `json:"mileage"`
	Color   string          `json:"color"`

	Sedan *SedanAttrs `json:"sedan,omitempty"`
	SUV   *SUVAttrs   `json:"suv,omitempty"`
	Truck *TruckAttrs `json:"truck,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
	Version   uint32     `json:"version"`
}

// New constructs a vehicle, dispatching on the variant tag. Variant attribute
// coercion failures fall back to zero-value defaults; shared attribute
// violations are validation errors.
func New(kind Kind, mk, model string, year int, vin string, mileage decimal.Decimal, color string, attrs map[string]any) (*Vehicle, error) {
	if mk == "" {
		return nil, errors.NewValidationError("EMPTY_MAKE", "make cannot be empty")
	}
	if model == "" {
		return nil, errors.NewValidationError("EMPTY_MODEL", "model cannot be empty")
	}
	if len(vin) != 17 {
		return nil, errors.NewValidationError("INVALID_VIN", "VIN must be exactly 17 characters")
	}
	if mileage.IsNegative() {
		return nil, errors.NewValidationError("NEGATIVE_MILEAGE", "mileage cannot be negative")
	}

	v := &Vehicle{
		ID:        uuid.New(),
		Kind:      kind,
		Make:      mk,
		Model:     model,
		Year:      year,
		VIN:       vin,
		Mileage:   mileage,
		Color:     color,
		CreatedAt: time.Now().UTC(),
		Version:   1,
	}

	switch kind {
	case KindSedan:
		v.Sedan = &SedanAttrs{
			Doors:   coerceInt(attrs, "doors"),
			Sunroof: coerceBool(attrs, "sunroof"),
		}
	case KindSUV:
		v.SUV = &SUVAttrs{
			Seating:        coerceInt(attrs, "seating"),
			FourWheelDrive: coerceBool(attrs, "four_wheel_drive"),
			CargoCapacity:  coerceDecimal(attrs, "cargo_capacity"),
		}
	case KindTruck:
		v.Truck = &TruckAttrs{
			LoadCapacity:   coerceDecimal(attrs, "load_capacity"),
			BedLength:      coerceDecimal(attrs, "bed_length"),
			FourWheelDrive: coerceBool(attrs, "four_wheel_drive"),
		}
	default:
		return nil, errors.NewValidationError("INVALID_VEHICLE_KIND",
			fmt.Sprintf("unknown vehicle kind %q", kind))
	}

	return v, nil
}

// Restore rebuilds a vehicle from persisted state. Intended for repository
// implementations only.
func Restore(id uuid.UUID, kind Kind, mk, model string, year int, vin string, mileage decimal.Decimal, color string,
	sedan *SedanAttrs, suv *SUVAttrs, truck *TruckAttrs, createdAt time.Time, updatedAt *time.Time, version uint32) *Vehicle {
	return &Vehicle{
		ID:        id,
		Kind:      kind,
		Make:      mk,
		Model:     model,
		Year:      year,
		VIN:       vin,
		Mileage:   mileage,
		Color:     color,
		Sedan:     sedan,
		SUV:       suv,
		Truck:     truck,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
		Version:   version,
	}
}

// EntityID implements the store entity contract.
func (v *Vehicle) EntityID() uuid.UUID { return v.ID }

// EntityVersion implements the store entity contract.
func (v *Vehicle) EntityVersion() uint32 { return v.Version }

// Clone returns a deep copy of the vehicle.
func (v *Vehicle) Clone() *Vehicle {
	cp := *v
	if v.Sedan != nil {
		s := *v.Sedan
		cp.Sedan = &s
	}
	if v.SUV != nil {
		s := *v.SUV
		cp.SUV = &s
	}
	if v.Truck != nil {
		t := *v.Truck
		cp.Truck = &t
	}
	if v.UpdatedAt != nil {
		u := *v.UpdatedAt
		cp.UpdatedAt = &u
	}
	return &cp
}

// Filter narrows vehicle searches. Nil fields match everything.
type Filter struct {
	Kind    *Kind
	Make    *string
	Model   *string
	YearMin *int
	YearMax *int
}

// Matches reports whether the vehicle satisfies the filter.
func (f Filter) Matches(v *Vehicle) bool {
	if f.Kind != nil && v.Kind != *f.Kind {
		return false
	}
	if f.Make != nil && !strings.EqualFold(v.Make, *f.Make) {
		return false
	}
	if f.Model != nil && !strings.EqualFold(v.Model, *f.Model) {
		return false
	}
	if f.YearMin != nil && v.Year < *f.YearMin {
		return false
	}
	if f.YearMax != nil && v.Year > *f.YearMax {
		return false
	}
	return true
}

// Attribute coercion helpers. A missing or unconvertible value yields the
// zero default rather than failing construction.

func coerceInt(attrs map[string]any, key string) int {
	raw, ok := attrs[key]
	if !ok {
		return 0
	}
	switch v := raw.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

func coerceBool(attrs map[string]any, key string) bool {
	raw, ok := attrs[key]
	if !ok {
		return false
	}
	switch v := raw.(type) {
	case bool:
		return v
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false
		}
		return b
	default:
		return false
	}
}

func coerceDecimal(attrs map[string]any, key string) decimal.Decimal {
	raw, ok := attrs[key]
	if !ok {
		return decimal.Zero
	}
	switch v := raw.(type) {
	case decimal.Decimal:
		return v
	case float64:
		return decimal.NewFromFloat(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case int64:
		return decimal.NewFromInt(v)
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}
