package insights

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"arvaiapulse/internal/config"
	"arvaiapulse/internal/shared/testutil"
	"arvaiapulse/pkg/contracts/domain"
)

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func newSummarizer(t *testing.T, gens ...Generator) *ModelSummarizer {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	return NewSummarizer(NewClientSelector(gens, logger), 0, logger)
}

func TestSummarize_EmptyInput(t *testing.T) {
	gen := &mockGenerator{}
	s := newSummarizer(t, gen)

	assert.Equal(t, NoDataMessage, s.Summarize(context.Background(), nil))
	gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestSummarize_ReturnsModelText(t *testing.T) {
	gen := &mockGenerator{}
	gen.On("Generate", mock.Anything, mock.AnythingOfType("string")).Return("  1. Patate in crescita\n", nil).Once()

	s := newSummarizer(t, gen)
	got := s.Summarize(context.Background(), testutil.SampleRecords())

	assert.Equal(t, "1. Patate in crescita", got)
	gen.AssertExpectations(t)
}

func TestSummarize_FallbackOnFailure(t *testing.T) {
	tests := []struct {
		name string
		text string
		err  error
	}{
		{name: "quota exceeded", err: errors.New("googleapi: Error 429")},
		{name: "empty answer", text: "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &mockGenerator{}
			gen.On("Generate", mock.Anything, mock.Anything).Return(tt.text, tt.err)

			s := newSummarizer(t, gen)
			assert.Equal(t, FallbackMessage, s.Summarize(context.Background(), testutil.SampleRecords()))
		})
	}
}

func TestSummarize_NoClients(t *testing.T) {
	s := newSummarizer(t)
	assert.Equal(t, FallbackMessage, s.Summarize(context.Background(), testutil.SampleRecords()))
}

func TestSummarize_FailsOverToNextKey(t *testing.T) {
	exhausted := &mockGenerator{}
	exhausted.On("Generate", mock.Anything, mock.Anything).Return("", errors.New("quota exhausted")).Once()
	healthy := &mockGenerator{}
	healthy.On("Generate", mock.Anything, mock.Anything).Return("ok", nil).Once()

	s := newSummarizer(t, exhausted, healthy)
	assert.Equal(t, "ok", s.Summarize(context.Background(), testutil.SampleRecords()))

	exhausted.AssertExpectations(t)
	healthy.AssertExpectations(t)
}

func TestClientSelector_RoundRobin(t *testing.T) {
	a, b := &mockGenerator{}, &mockGenerator{}
	sel := NewClientSelector([]Generator{a, b}, nil)

	var order []int
	for i := 0; i < 3; i++ {
		_, idx := sel.NextClient()
		order = append(order, idx)
	}
	assert.Equal(t, []int{0, 1, 0}, order)
	assert.Equal(t, 2, sel.ClientCount())
}

func TestClientSelector_AllFail(t *testing.T) {
	gens := []Generator{&mockGenerator{}, &mockGenerator{}}
	sel := NewClientSelector(gens, nil)

	calls := 0
	err := sel.TryAllClients(context.Background(), func(Generator, int) error {
		calls++
		return fmt.Errorf("boom %d", calls)
	})

	require.Error(t, err)
	assert.Equal(t, 2, calls)
	assert.Contains(t, err.Error(), "boom 2")
}

func TestClientSelector_StopsOnCancelledContext(t *testing.T) {
	sel := NewClientSelector([]Generator{&mockGenerator{}}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := sel.TryAllClients(ctx, func(Generator, int) error {
		t.Fatal("operation must not run")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuildPrompt(t *testing.T) {
	records := []domain.HarvestRecord{
		{Date: "06/01/2025", Product: "cavolo nero", WeightKg: 12.5, Week: 2, TempAvg: 4.2},
		{Date: "13/01/2025", Product: "patate", WeightKg: 30, Week: 3, TempAvg: 0},
	}

	prompt := BuildPrompt(records, 0)

	assert.True(t, strings.HasPrefix(prompt, "Analizza questi dati di distribuzione agricola"))
	assert.Contains(t, prompt, "Rispondi in italiano.")
	assert.Contains(t, prompt, "06/01/2025: cavolo nero - Peso: 12.5kg (Settimana: 2, Temp Media: 4.2°C)")
	assert.Contains(t, prompt, "13/01/2025: patate - Peso: 30kg (Settimana: 3, Temp Media: 0°C)")
}

func TestBuildPrompt_TruncatesToMaxRecords(t *testing.T) {
	records := make([]domain.HarvestRecord, 60)
	for i := range records {
		records[i] = domain.HarvestRecord{Date: fmt.Sprintf("d%02d", i), Product: "porri", Week: 1}
	}

	prompt := BuildPrompt(records, DefaultMaxRecords)

	assert.Contains(t, prompt, "d49:")
	assert.NotContains(t, prompt, "d50:")
	assert.Equal(t, DefaultMaxRecords, strings.Count(prompt, "Peso:"))
}

func TestNew_DisabledWithoutKeys(t *testing.T) {
	cfg := config.Default().Insights
	cfg.APIKeys = nil

	s := New(context.Background(), cfg, nil)

	require.IsType(t, DisabledSummarizer{}, s)
	assert.Equal(t, NoDataMessage, s.Summarize(context.Background(), nil))
	assert.Equal(t, FallbackMessage, s.Summarize(context.Background(), testutil.SampleRecords()))
}
