package custodian

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/paul-reitz/relate.io/internal/models"
)

var (
	ErrNotConfigured    = errors.New("integration not configured")
	ErrNotImplemented   = errors.New("integration not implemented")
	ErrUnknownCustodian = errors.New("unsupported custodian")
)

// schwabTransport is what the Schwab source needs from the OAuth client.
type schwabTransport interface {
	Configured() bool
	FetchAccounts(advisorRef string) ([]byte, error)
}

// SchwabSource pulls accounts over the OAuth client-credentials transport.
type SchwabSource struct {
	client schwabTransport
}

func NewSchwabSource(client schwabTransport) *SchwabSource {
	return &SchwabSource{client: client}
}

func (s *SchwabSource) Name() string {
	return CustodianSchwab
}

func (s *SchwabSource) Accounts(_ context.Context, advisorID int64) ([]models.CustodianAccount, error) {
	if !s.client.Configured() {
		return nil, ErrNotConfigured
	}

	payload, err := s.client.FetchAccounts(strconv.FormatInt(advisorID, 10))
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Accounts []models.CustodianAccount `json:"accounts"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse accounts payload: %w", err)
	}
	return envelope.Accounts, nil
}

// FidelitySource is a placeholder slot. The status endpoint lists it; any
// sync attempt reports the integration as not implemented.
type FidelitySource struct{}

func NewFidelitySource() *FidelitySource {
	return &FidelitySource{}
}

func (f *FidelitySource) Name() string {
	return CustodianFidelity
}

func (f *FidelitySource) Accounts(context.Context, int64) ([]models.CustodianAccount, error) {
	return nil, ErrNotImplemented
}
