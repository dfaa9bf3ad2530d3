package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/inkwell-ai/inkwell-engine/pkg/models"
	"github.com/inkwell-ai/inkwell-engine/pkg/repositories"
)

// mockEntryRepo is a configurable EntryRepository for pipeline tests.
type mockEntryRepo struct {
	eligible       int
	entries        []models.AnalyzedEntry
	countCalls     int
	listCalls      int
	countErr       error
	listErr        error
	lastListLimit  int
}

var _ repositories.EntryRepository = (*mockEntryRepo)(nil)

func (m *mockEntryRepo) CountEligible(ctx context.Context, userID uuid.UUID) (int, error) {
	m.countCalls++
	return m.eligible, m.countErr
}

func (m *mockEntryRepo) ListAnalyzedRecent(ctx context.Context, userID uuid.UUID, limit int) ([]models.AnalyzedEntry, error) {
	m.listCalls++
	m.lastListLimit = limit
	if m.listErr != nil {
		return nil, m.listErr
	}
	if limit < len(m.entries) {
		return m.entries[:limit], nil
	}
	return m.entries, nil
}

// mockPatternRepo is a configurable PatternRepository for pipeline tests.
type mockPatternRepo struct {
	current     *models.PatternAnalysis
	inserted    []*models.PatternAnalysis
	getErr      error
	insertErr   error
	insertCalls int
}

var _ repositories.PatternRepository = (*mockPatternRepo)(nil)

func (m *mockPatternRepo) GetCurrent(ctx context.Context, userID uuid.UUID) (*models.PatternAnalysis, error) {
	return m.current, m.getErr
}

func (m *mockPatternRepo) Insert(ctx context.Context, analysis *models.PatternAnalysis) error {
	m.insertCalls++
	if m.insertErr != nil {
		return m.insertErr
	}
	if analysis.ID == uuid.Nil {
		analysis.ID = uuid.New()
	}
	m.inserted = append(m.inserted, analysis)
	m.current = analysis
	return nil
}

func (m *mockPatternRepo) ListHistory(ctx context.Context, userID uuid.UUID, limit int) ([]*models.PatternAnalysis, error) {
	return m.inserted, nil
}

// mockCreditRepo is a configurable CreditRepository for pipeline tests.
type mockCreditRepo struct {
	balance     *models.CreditBalance
	settled     []*models.UsageLogEntry
	settleErr   error
	settleCalls int
	seenKeys    map[string]bool
}

var _ repositories.CreditRepository = (*mockCreditRepo)(nil)

func (m *mockCreditRepo) Get(ctx context.Context, userID uuid.UUID) (*models.CreditBalance, error) {
	return m.balance, nil
}

func (m *mockCreditRepo) Settle(ctx context.Context, entry *models.UsageLogEntry) (int, error) {
	m.settleCalls++
	if m.settleErr != nil {
		return 0, m.settleErr
	}
	if m.seenKeys == nil {
		m.seenKeys = make(map[string]bool)
	}
	key := string(entry.Action) + "/" + entry.RequestKey
	if m.seenKeys[key] {
		return 0, nil
	}
	m.seenKeys[key] = true
	m.settled = append(m.settled, entry)
	if m.balance != nil {
		m.balance.Remaining -= entry.CreditsCharged
		if m.balance.Remaining < 0 {
			m.balance.Remaining = 0
		}
		m.balance.UsedThisPeriod += entry.CreditsCharged
	}
	return entry.CreditsCharged, nil
}

// mockUsageLogRepo records audit appends.
type mockUsageLogRepo struct {
	appended []*models.UsageLogEntry
}

var _ repositories.UsageLogRepository = (*mockUsageLogRepo)(nil)

func (m *mockUsageLogRepo) Append(ctx context.Context, entry *models.UsageLogEntry) error {
	m.appended = append(m.appended, entry)
	return nil
}

func (m *mockUsageLogRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.UsageLogEntry, error) {
	return m.appended, nil
}
