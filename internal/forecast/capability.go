package forecast

import "sync"

// The seasonal engine is an optional capability: its file registers a
// constructor at init, and the factory consults a process-wide probe instead
// of constructing and catching the failure. The probe result is cached;
// RecheckSeasonal re-evaluates on demand.

type seasonalConstructor func(symbol string, cfg SeasonalConfig) Forecaster

var (
	seasonalMu     sync.RWMutex
	seasonalCtor   seasonalConstructor
	seasonalOnce   sync.Once
	seasonalCached bool
)

func registerSeasonalEngine(fn seasonalConstructor) {
	seasonalMu.Lock()
	seasonalCtor = fn
	seasonalMu.Unlock()
}

// SeasonalAvailable reports whether the seasonal variant is present in this
// runtime. The first call probes; later calls return the cached result.
func SeasonalAvailable() bool {
	seasonalOnce.Do(func() {
		seasonalCached = probeSeasonal()
	})
	seasonalMu.RLock()
	defer seasonalMu.RUnlock()
	return seasonalCached
}

// RecheckSeasonal re-runs the probe and refreshes the cached result.
func RecheckSeasonal() bool {
	available := probeSeasonal()
	seasonalMu.Lock()
	seasonalCached = available
	seasonalMu.Unlock()
	return available
}

func probeSeasonal() bool {
	seasonalMu.RLock()
	defer seasonalMu.RUnlock()
	return seasonalCtor != nil
}

func newSeasonalFromRegistry(symbol string, cfg SeasonalConfig) (Forecaster, error) {
	if !SeasonalAvailable() {
		return nil, &Error{
			Kind:    KindCapabilityUnavailable,
			Model:   ModelSeasonal,
			Message: "seasonal decomposition engine is not available in this runtime",
		}
	}
	seasonalMu.RLock()
	ctor := seasonalCtor
	seasonalMu.RUnlock()
	return ctor(symbol, cfg), nil
}
