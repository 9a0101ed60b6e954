package importer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

type fakeStore struct {
	created   []core.Transaction
	attempts  int
	existing  map[string]bool
	createErr func(attempt int) error
	existsErr error
}

func (s *fakeStore) CreateTransaction(_ context.Context, tx core.Transaction) (int64, error) {
	s.attempts++
	if s.createErr != nil {
		if err := s.createErr(s.attempts); err != nil {
			return 0, err
		}
	}
	s.created = append(s.created, tx)
	return int64(len(s.created)), nil
}

func (s *fakeStore) TransactionExists(_ context.Context, date core.Date, cents int64, desc string) (bool, error) {
	if s.existsErr != nil {
		return false, s.existsErr
	}
	// Case-insensitive on description, like the sqlite probe.
	return s.existing[date.String()+"|"+core.FormatCents(cents)+"|"+strings.ToLower(desc)], nil
}

type fixedClassifier struct {
	match      string
	categoryID int64
}

func (c *fixedClassifier) Classify(_ context.Context, tx core.Transaction) (*int64, error) {
	if c.match != "" && tx.Description == c.match {
		id := c.categoryID
		return &id, nil
	}
	return nil, nil
}

var basicMapping = Mapping{Date: "Date", Amount: "Amount", Description: "Description"}

func TestPipelineImportsValidRows(t *testing.T) {
	store := &fakeStore{}
	p := NewPipeline(store, nil)

	raw := []byte("Date,Amount,Description\n" +
		"2025-01-15,-25.50,Coffee at Starbucks\n" +
		"2025-01-16,1200.00,Paycheck\n")

	report, err := p.Run(context.Background(), raw, basicMapping)
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 2, report.Imported)
	assert.Zero(t, report.Skipped)
	assert.Zero(t, report.Failed)

	require.Len(t, store.created, 2)
	first := store.created[0]
	assert.Equal(t, "2025-01-15", first.Date.String())
	assert.Equal(t, int64(-2550), first.Amount.Cents)
	assert.Equal(t, "Coffee at Starbucks", first.Description)
	assert.Equal(t, core.SourceImported, first.Source)

	require.Len(t, report.Outcomes, 2)
	assert.Equal(t, RowOutcome{Row: 1, Status: StatusImported, TransactionID: 1}, report.Outcomes[0])
}

func TestPipelineRowIsolation(t *testing.T) {
	store := &fakeStore{}
	p := NewPipeline(store, nil)

	raw := []byte("Date,Amount,Description\n" +
		"not-a-date,-5.00,Bad date\n" +
		"2025-01-15,abc,Bad amount\n" +
		"2025-01-16,0.00,Zero amount\n" +
		"2025-01-17,-3.25,Good row\n")

	report, err := p.Run(context.Background(), raw, basicMapping)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Imported)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 2, report.Failed)

	require.Len(t, report.Outcomes, 4)
	assert.Equal(t, ReasonMalformedDate, report.Outcomes[0].Reason)
	assert.Equal(t, ReasonMalformedAmount, report.Outcomes[1].Reason)
	assert.Equal(t, ReasonZeroAmount, report.Outcomes[2].Reason)
	assert.Equal(t, StatusImported, report.Outcomes[3].Status)

	require.Len(t, store.created, 1)
	assert.Equal(t, "Good row", store.created[0].Description)
}

func TestPipelineDedup(t *testing.T) {
	store := &fakeStore{existing: map[string]bool{
		"2025-01-10|-9.99|known charge": true,
	}}
	p := NewPipeline(store, nil)

	raw := []byte("Date,Amount,Description\n" +
		"2025-01-10,-9.99,KNOWN CHARGE\n" +
		"2025-01-11,-4.00,Fresh charge\n" +
		"2025-01-11,-4.00,FRESH CHARGE\n")

	report, err := p.Run(context.Background(), raw, basicMapping)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Imported)
	assert.Equal(t, 2, report.Skipped)
	assert.Equal(t, ReasonDuplicate, report.Outcomes[0].Reason, "stored duplicate, case differs")
	assert.Equal(t, ReasonDuplicate, report.Outcomes[2].Reason, "in-batch duplicate, case differs")
	require.Len(t, store.created, 1)
}

func TestPipelineAppliesClassifier(t *testing.T) {
	store := &fakeStore{}
	p := NewPipeline(store, &fixedClassifier{match: "Coffee at Starbucks", categoryID: 7})

	raw := []byte("Date,Amount,Description\n" +
		"2025-01-15,-25.50,Coffee at Starbucks\n" +
		"2025-01-16,-10.00,Unmatched\n")

	_, err := p.Run(context.Background(), raw, basicMapping)
	require.NoError(t, err)

	require.Len(t, store.created, 2)
	require.NotNil(t, store.created[0].CategoryID)
	assert.Equal(t, int64(7), *store.created[0].CategoryID)
	assert.Nil(t, store.created[1].CategoryID, "unmatched rows import uncategorized")
}

func TestPipelineRejectsIncompleteMapping(t *testing.T) {
	p := NewPipeline(&fakeStore{}, nil)
	raw := []byte("Date,Amount,Description\n2025-01-15,-1.00,x\n")

	_, err := p.Run(context.Background(), raw, Mapping{Date: "Date"})
	require.ErrorIs(t, err, ErrUnmappedField)
	assert.Contains(t, err.Error(), "amount")
}

func TestPipelineStoreUnavailableAbortsBatch(t *testing.T) {
	store := &fakeStore{createErr: func(row int) error {
		if row == 2 {
			return core.ErrStoreUnavailable
		}
		return nil
	}}
	p := NewPipeline(store, nil)

	raw := []byte("Date,Amount,Description\n" +
		"2025-01-15,-1.00,First\n" +
		"2025-01-16,-2.00,Second\n" +
		"2025-01-17,-3.00,Third\n")

	report, err := p.Run(context.Background(), raw, basicMapping)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Imported)
	assert.Equal(t, 2, report.Failed)
	require.Len(t, report.Outcomes, 3)
	assert.Equal(t, ReasonStoreUnavailable, report.Outcomes[1].Reason)
	assert.Equal(t, ReasonStoreUnavailable, report.Outcomes[2].Reason, "remaining rows are marked without being attempted")
	require.Len(t, store.created, 1, "already committed rows stay committed")
}

func TestPipelineRowLevelStoreErrorContinues(t *testing.T) {
	rejected := errors.New("constraint violation")
	store := &fakeStore{createErr: func(row int) error {
		if row == 1 {
			return rejected
		}
		return nil
	}}
	p := NewPipeline(store, nil)

	raw := []byte("Date,Amount,Description\n" +
		"2025-01-15,-1.00,Rejected\n" +
		"2025-01-16,-2.00,Accepted\n")

	report, err := p.Run(context.Background(), raw, basicMapping)
	require.NoError(t, err)

	assert.Equal(t, ReasonStoreError, report.Outcomes[0].Reason)
	assert.Equal(t, StatusImported, report.Outcomes[1].Status)
	assert.Equal(t, 1, report.Imported)
}

func TestPipelinePinnedDateFormat(t *testing.T) {
	store := &fakeStore{}
	p := NewPipeline(store, nil)
	mapping := basicMapping
	mapping.DateFormat = "02/01/2006"

	raw := []byte("Date,Amount,Description\n03/04/2025,-1.00,Ambiguous\n")

	_, err := p.Run(context.Background(), raw, mapping)
	require.NoError(t, err)
	require.Len(t, store.created, 1)
	assert.Equal(t, "2025-04-03", store.created[0].Date.String(), "pinned layout resolves day/month ambiguity")
}
