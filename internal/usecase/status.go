package usecase

import (
	"context"
	"log"
	"time"

	"github.com/pavel13595/Baranchik-Inventory/internal/domain/constants"
	"github.com/pavel13595/Baranchik-Inventory/internal/domain/repository"
)

// SyncStatus is the remote sync indicator shown next to the online badge.
type SyncStatus string

const (
	SyncIdle    SyncStatus = "idle"
	SyncSyncing SyncStatus = "syncing"
	SyncSuccess SyncStatus = "success"
	SyncError   SyncStatus = "error"
)

const remoteSyncTimeout = time.Minute

// Status is a snapshot of connectivity and sync state.
type Status struct {
	Online     bool       `json:"online"`
	SyncStatus SyncStatus `json:"syncStatus"`
}

func (u *inventoryUseCase) IsOnline() bool {
	u.statusMu.Lock()
	defer u.statusMu.Unlock()
	return u.online
}

func (u *inventoryUseCase) SyncStatus() SyncStatus {
	u.statusMu.Lock()
	defer u.statusMu.Unlock()
	return u.syncStatus
}

func (u *inventoryUseCase) Status() Status {
	u.statusMu.Lock()
	defer u.statusMu.Unlock()
	return Status{Online: u.online, SyncStatus: u.syncStatus}
}

// SubscribeStatus registers fn for every status change.
func (u *inventoryUseCase) SubscribeStatus(fn func(Status)) func() {
	u.statusMu.Lock()
	id := u.nextSubID
	u.nextSubID++
	u.statusSubs[id] = fn
	u.statusMu.Unlock()

	return func() {
		u.statusMu.Lock()
		delete(u.statusSubs, id)
		u.statusMu.Unlock()
	}
}

// CheckOnlineStatus asks the observer to re-probe when it can, then reports
// the current state.
func (u *inventoryUseCase) CheckOnlineStatus(ctx context.Context) bool {
	if u.connectivity == nil {
		return u.IsOnline()
	}
	if checker, ok := u.connectivity.(repository.ConnectivityChecker); ok {
		checker.Check(ctx)
	}
	online := u.connectivity.Online()
	u.handleConnectivity(online)
	return online
}

// handleConnectivity applies an online/offline transition.
func (u *inventoryUseCase) handleConnectivity(online bool) {
	u.statusMu.Lock()
	if u.closed {
		u.statusMu.Unlock()
		return
	}
	wasOnline := u.online
	u.online = online
	u.statusMu.Unlock()

	if !online {
		u.setSyncStatus(SyncError)
		return
	}
	if wasOnline {
		return
	}
	if u.syncer != nil && u.spreadsheetID != "" {
		u.startRemoteSync()
		return
	}
	u.markSuccess()
}

// markSuccess shows "success" and schedules the return to idle.
func (u *inventoryUseCase) markSuccess() {
	u.setSyncStatus(SyncSuccess)

	u.statusMu.Lock()
	defer u.statusMu.Unlock()
	if u.closed {
		return
	}
	if u.resetTimer != nil {
		u.resetTimer.Stop()
	}
	u.resetTimer = u.scheduler.AfterFunc(constants.SyncStatusResetDelay, func() {
		u.statusMu.Lock()
		if u.closed || u.syncStatus != SyncSuccess {
			u.statusMu.Unlock()
			return
		}
		u.statusMu.Unlock()
		u.setSyncStatus(SyncIdle)
	})
}

func (u *inventoryUseCase) setSyncStatus(s SyncStatus) {
	u.statusMu.Lock()
	if u.syncStatus == s {
		u.statusMu.Unlock()
		return
	}
	u.syncStatus = s
	snapshot := Status{Online: u.online, SyncStatus: s}
	subs := make([]func(Status), 0, len(u.statusSubs))
	for _, fn := range u.statusSubs {
		subs = append(subs, fn)
	}
	u.statusMu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
}

// startRemoteSync pushes the selected city in the background. Failures are
// logged and not retried.
func (u *inventoryUseCase) startRemoteSync() {
	u.statusMu.Lock()
	if u.closed {
		u.statusMu.Unlock()
		return
	}
	// Close sets closed under statusMu before it waits on wg.
	u.wg.Add(1)
	u.statusMu.Unlock()

	u.setSyncStatus(SyncSyncing)
	city := u.SelectedCity()
	state := u.GetState(u.baseCtx, city)

	go func() {
		defer u.wg.Done()
		ctx, cancel := context.WithTimeout(u.baseCtx, remoteSyncTimeout)
		defer cancel()

		if err := u.syncer.Sync(ctx, u.spreadsheetID, state); err != nil {
			log.Printf("[store] remote sync of %s failed: %v", city, err)
			u.metrics.RemoteSync("error")
			u.setSyncStatus(SyncError)
			return
		}
		u.metrics.RemoteSync("ok")
		u.markSuccess()
	}()
}
