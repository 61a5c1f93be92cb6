package credentialsrepofake

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-credential-gateway/credentials"
	"github.com/jrsteele09/go-credential-gateway/internal/errors"
)

var _ credentials.Repo = (*FakeCredentialsRepo)(nil)

type FakeCredentialsRepo struct {
	records map[string]credentials.TokenRecord
	lock    sync.RWMutex
	writes  int

	UpdateErr error // Returned by Update when set, without touching the record
}

func NewFakeCredentialsRepo() *FakeCredentialsRepo {
	return &FakeCredentialsRepo{
		records: make(map[string]credentials.TokenRecord),
	}
}

// Upsert seeds a record, standing in for the initial authorization grant.
func (cr *FakeCredentialsRepo) Upsert(record credentials.TokenRecord) {
	cr.lock.Lock()
	defer cr.lock.Unlock()
	cr.records[record.UserID] = record
}

func (cr *FakeCredentialsRepo) Get(_ context.Context, userID string) (*credentials.TokenRecord, error) {
	cr.lock.RLock()
	defer cr.lock.RUnlock()

	record, ok := cr.records[userID]
	if !ok {
		return nil, errors.ErrRecordNotFound
	}
	return &record, nil
}

func (cr *FakeCredentialsRepo) Update(_ context.Context, userID string, update credentials.TokenUpdate) error {
	cr.lock.Lock()
	defer cr.lock.Unlock()

	if cr.UpdateErr != nil {
		return cr.UpdateErr
	}
	record, ok := cr.records[userID]
	if !ok {
		return errors.ErrRecordNotFound
	}
	record.AccessToken = update.AccessToken
	record.TokenExpiry = update.TokenExpiry
	if update.RefreshToken != "" {
		record.RefreshToken = update.RefreshToken
	}
	cr.records[userID] = record
	cr.writes++
	return nil
}

// Writes returns the number of successful updates.
func (cr *FakeCredentialsRepo) Writes() int {
	cr.lock.RLock()
	defer cr.lock.RUnlock()
	return cr.writes
}
