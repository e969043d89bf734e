package model

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Meesho/BharatMLStack/tensor-batcher/internal/errors"
)

func countingLoader(loads *int) Loader {
	return func(deviceID int64) (*Handle, error) {
		*loads++
		return &Handle{Name: "m", InputDeviceID: deviceID}, nil
	}
}

func TestRegistrySharesUpToLimit(t *testing.T) {
	loads := 0
	reg := NewRegistry(countingLoader(&loads), 3)

	h1, err := reg.Get(0)
	assert.NoError(t, err)
	h2, err := reg.Get(0)
	assert.NoError(t, err)
	h3, err := reg.Get(0)
	assert.NoError(t, err)

	assert.Equal(t, 1, loads)
	assert.Same(t, h1, h2)
	assert.Same(t, h2, h3)
	assert.Equal(t, 3, reg.ShareCount(0))

	// The limit is reached, the next lookup loads fresh and resets the count.
	h4, err := reg.Get(0)
	assert.NoError(t, err)
	assert.Equal(t, 2, loads)
	assert.NotSame(t, h1, h4)
	assert.Equal(t, 1, reg.ShareCount(0))
}

func TestRegistryShareCountOfOneAlwaysLoads(t *testing.T) {
	loads := 0
	reg := NewRegistry(countingLoader(&loads), 1)

	_, err := reg.Get(0)
	assert.NoError(t, err)
	_, err = reg.Get(0)
	assert.NoError(t, err)
	assert.Equal(t, 2, loads)
}

func TestRegistryPerDevice(t *testing.T) {
	loads := 0
	reg := NewRegistry(countingLoader(&loads), 8)

	_, err := reg.Get(0)
	assert.NoError(t, err)
	_, err = reg.Get(1)
	assert.NoError(t, err)
	assert.Equal(t, 2, loads)
	assert.Equal(t, 1, reg.ShareCount(0))
	assert.Equal(t, 1, reg.ShareCount(1))
	assert.Equal(t, 0, reg.ShareCount(5))
}

func TestRegistryLoaderFailure(t *testing.T) {
	reg := NewRegistry(func(int64) (*Handle, error) {
		return nil, errors.Internalf("load failed")
	}, 4)

	_, err := reg.Get(0)
	assert.Error(t, err)
	assert.Equal(t, 0, reg.ShareCount(0))
}
