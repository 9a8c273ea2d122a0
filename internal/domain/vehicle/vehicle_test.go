package vehicle_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gavelworks/auction-backend/internal/domain/errors"
	"github.com/gavelworks/auction-backend/internal/domain/vehicle"
)

const testVIN = "1HGBH41JXMN109186"

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    vehicle.Kind
		wantErr bool
	}{
		{"sedan", vehicle.KindSedan, false},
		{"SUV", vehicle.KindSUV, false},
		{" truck ", vehicle.KindTruck, false},
		{"motorcycle", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := vehicle.ParseKind(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew_Variants(t *testing.T) {
	t.Run("sedan", func(t *testing.T) {
		v, err := vehicle.New(vehicle.KindSedan, "Honda", "Accord", 2020, testVIN,
			decimal.NewFromInt(30000), "black",
			map[string]any{"doors": 4, "sunroof": true})
		require.NoError(t, err)

		require.NotNil(t, v.Sedan)
		assert.Nil(t, v.SUV)
		assert.Nil(t, v.Truck)
		assert.Equal(t, 4, v.Sedan.Doors)
		assert.True(t, v.Sedan.Sunroof)
		assert.Equal(t, uint32(1), v.Version)
	})

	t.Run("suv", func(t *testing.T) {
		v, err := vehicle.New(vehicle.KindSUV, "Jeep", "Wrangler", 2022, testVIN,
			decimal.NewFromInt(12000), "green",
			map[string]any{"seating": 5, "four_wheel_drive": true, "cargo_capacity": "68.5"})
		require.NoError(t, err)

		require.NotNil(t, v.SUV)
		assert.Equal(t, 5, v.SUV.Seating)
		assert.True(t, v.SUV.FourWheelDrive)
		assert.True(t, v.SUV.CargoCapacity.Equal(decimal.RequireFromString("68.5")))
	})

	t.Run("truck", func(t *testing.T) {
		v, err := vehicle.New(vehicle.KindTruck, "Ford", "F-150", 2019, testVIN,
			decimal.NewFromInt(80000), "white",
			map[string]any{"load_capacity": 1200, "bed_length": 6.5})
		require.NoError(t, err)

		require.NotNil(t, v.Truck)
		assert.True(t, v.Truck.LoadCapacity.Equal(decimal.NewFromInt(1200)))
		assert.False(t, v.Truck.FourWheelDrive)
	})
}

func TestNew_Validation(t *testing.T) {
	mileage := decimal.NewFromInt(1000)

	tests := []struct {
		name string
		fn   func() (*vehicle.Vehicle, error)
	}{
		{"empty make", func() (*vehicle.Vehicle, error) {
			return vehicle.New(vehicle.KindSedan, "", "Accord", 2020, testVIN, mileage, "black", nil)
		}},
		{"empty model", func() (*vehicle.Vehicle, error) {
			return vehicle.New(vehicle.KindSedan, "Honda", "", 2020, testVIN, mileage, "black", nil)
		}},
		{"short vin", func() (*vehicle.Vehicle, error) {
			return vehicle.New(vehicle.KindSedan, "Honda", "Accord", 2020, "SHORT", mileage, "black", nil)
		}},
		{"negative mileage", func() (*vehicle.Vehicle, error) {
			return vehicle.New(vehicle.KindSedan, "Honda", "Accord", 2020, testVIN,
				decimal.NewFromInt(-1), "black", nil)
		}},
		{"unknown kind", func() (*vehicle.Vehicle, error) {
			return vehicle.New(vehicle.Kind("boat"), "Honda", "Accord", 2020, testVIN, mileage, "black", nil)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.fn()
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
		})
	}
}

func TestNew_AttributeCoercionFallsBackToDefaults(t *testing.T) {
	// Unconvertible variant attributes degrade to zero values instead of
	// failing construction.
	v, err := vehicle.New(vehicle.KindSedan, "Honda", "Accord", 2020, testVIN,
		decimal.NewFromInt(30000), "black",
		map[string]any{"doors": "not-a-number", "sunroof": 42})
	require.NoError(t, err)

	assert.Equal(t, 0, v.Sedan.Doors)
	assert.False(t, v.Sedan.Sunroof)

	v, err = vehicle.New(vehicle.KindSedan, "Honda", "Accord", 2020, testVIN,
		decimal.NewFromInt(30000), "black", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, v.Sedan.Doors)
}

func TestFilter_Matches(t *testing.T) {
	v, err := vehicle.New(vehicle.KindSedan, "Toyota", "Camry", 2021, testVIN,
		decimal.NewFromInt(42000), "blue", nil)
	require.NoError(t, err)

	kind := vehicle.KindSedan
	otherKind := vehicle.KindTruck
	mk := "toyota"
	yearMin := 2020
	yearMax := 2020

	assert.True(t, vehicle.Filter{}.Matches(v))
	assert.True(t, vehicle.Filter{Kind: &kind}.Matches(v))
	assert.False(t, vehicle.Filter{Kind: &otherKind}.Matches(v))
	assert.True(t, vehicle.Filter{Make: &mk}.Matches(v), "make matching is case-insensitive")
	assert.True(t, vehicle.Filter{YearMin: &yearMin}.Matches(v))
	assert.False(t, vehicle.Filter{YearMax: &yearMax}.Matches(v))
}

func TestClone(t *testing.T) {
	v, err := vehicle.New(vehicle.KindSedan, "Honda", "Accord", 2020, testVIN,
		decimal.NewFromInt(30000), "black", map[string]any{"doors": 4})
	require.NoError(t, err)

	cp := v.Clone()
	cp.Sedan.Doors = 2

	assert.Equal(t, 4, v.Sedan.Doors)
	assert.Equal(t, v.ID, cp.ID)
}
