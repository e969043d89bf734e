package model

import (
	"strconv"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/Meesho/BharatMLStack/tensor-batcher/pkg/metric"
)

// Loader creates a fresh handle for one device. It is invoked under the
// registry lock, so a slow load blocks other lookups for the same registry;
// registries are per model so this only serializes instances of one model.
type Loader func(deviceID int64) (*Handle, error)

type sharedHandle struct {
	handle     *Handle
	shareCount int
}

// Registry hands out model handles per device, sharing an already-loaded
// handle up to maxShareCount times before loading a fresh one. A share count
// of 1 disables sharing entirely and every lookup loads.
type Registry struct {
	mu            sync.Mutex
	loader        Loader
	maxShareCount int
	byDevice      map[int64]*sharedHandle
}

func NewRegistry(loader Loader, maxShareCount int) *Registry {
	if maxShareCount < 1 {
		maxShareCount = 1
	}
	return &Registry{
		loader:        loader,
		maxShareCount: maxShareCount,
		byDevice:      make(map[int64]*sharedHandle),
	}
}

// Get returns a handle for the device, reusing the cached one while its
// share count is below the limit. Reaching the limit loads a fresh handle
// that replaces the cached one with its count reset to one.
func (r *Registry) Get(deviceID int64) (*Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sh, ok := r.byDevice[deviceID]; ok && sh.shareCount < r.maxShareCount {
		sh.shareCount++
		log.Debug().Msgf("reusing model handle on device %d, share count %d of %d",
			deviceID, sh.shareCount, r.maxShareCount)
		metric.Incr(metric.ModelSessionShared, registryTags(sh.handle.Name, deviceID))
		return sh.handle, nil
	}

	handle, err := r.loader(deviceID)
	if err != nil {
		return nil, err
	}
	r.byDevice[deviceID] = &sharedHandle{handle: handle, shareCount: 1}
	metric.Incr(metric.ModelLoadCount, registryTags(handle.Name, deviceID))
	return handle, nil
}

func registryTags(name string, deviceID int64) []string {
	return []string{
		metric.TagAsString(metric.TagModel, name),
		metric.TagAsString(metric.TagDevice, strconv.FormatInt(deviceID, 10)),
	}
}

// ShareCount reports the current share count for a device, zero when nothing
// is loaded there.
func (r *Registry) ShareCount(deviceID int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sh, ok := r.byDevice[deviceID]; ok {
		return sh.shareCount
	}
	return 0
}
