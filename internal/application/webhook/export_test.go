package webhook

import "time"

// SetSync ejecuta los avisos posteriores al alta en la misma goroutine.
func (uc *IngestUseCase) SetSync() { uc.async = func(fn func()) { fn() } }

// SetNow fija el reloj del relay.
func (uc *RelayUseCase) SetNow(t time.Time) { uc.now = func() time.Time { return t } }
