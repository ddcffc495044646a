package checker_test

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/Houeta/stock-flow/internal/errs"
	"github.com/Houeta/stock-flow/internal/models"
	"github.com/Houeta/stock-flow/internal/repository"
	"github.com/Houeta/stock-flow/internal/services/checker"
	"github.com/Houeta/stock-flow/test/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestChecker_Run(t *testing.T) {
	ctx := t.Context()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tee := models.Product{
		ID:    "1",
		Title: "Tee",
		URL:   "https://shop.test/products/tee",
		Variants: []models.Variant{
			{ID: 11, Size: "S", Available: true},
			{ID: 12, Size: "M", Available: false},
		},
	}
	teeSnapshot := models.ProductSnapshot{
		ID:             "1",
		Title:          "Tee",
		URL:            "https://shop.test/products/tee",
		Classification: models.PartiallySoldOut,
		Available:      []string{"S"},
		SoldOut:        []string{"M"},
	}
	currentState := models.InventorySnapshot{"1": teeSnapshot}
	previousSoldOut := models.InventorySnapshot{"1": {
		ID:             "1",
		Title:          "Tee",
		URL:            "https://shop.test/products/tee",
		Classification: models.FullySoldOut,
		SoldOut:        []string{"S", "M"},
	}}
	report := models.Report{Subject: "Shop stock report: 1 change", HTML: "<html></html>", Text: "text"}

	testCases := []struct {
		name            string
		opts            checker.Options
		setupMocks      func(f *mocks.Fetcher, r *mocks.StateRepository, rn *mocks.Renderer, n *mocks.Notifier)
		expectError     bool
		expectedMark    error
		expectedChanges []models.ChangeKind
		expectNotified  bool
	}{
		{
			name: "Success: classification change is reported and persisted",
			opts: checker.Options{OnlyNotifyOnChanges: true},
			setupMocks: func(f *mocks.Fetcher, r *mocks.StateRepository, rn *mocks.Renderer, n *mocks.Notifier) {
				f.On("FetchAll", ctx).Return([]models.Product{tee}, nil).Once()
				r.On("GetState", ctx).Return(previousSoldOut, nil).Once()
				rn.On("Render", mock.MatchedBy(func(c []models.ChangeRecord) bool {
					return len(c) == 1 && c[0].ID == "1" && c[0].Previous == models.FullySoldOut
				}), currentState).Return(report, nil).Once()
				n.On("Notify", ctx, report).Return(nil).Once()
				r.On("UpdateState", ctx, mock.MatchedBy(func(s models.InventorySnapshot) bool {
					return s["1"].Classification == models.PartiallySoldOut
				})).Return(nil).Once()
			},
			expectedChanges: []models.ChangeKind{models.ChangeChanged},
			expectNotified:  true,
		},
		{
			name: "No change: nothing is sent but state is rewritten",
			opts: checker.Options{OnlyNotifyOnChanges: true},
			setupMocks: func(f *mocks.Fetcher, r *mocks.StateRepository, _ *mocks.Renderer, _ *mocks.Notifier) {
				f.On("FetchAll", ctx).Return([]models.Product{tee}, nil).Once()
				r.On("GetState", ctx).Return(currentState, nil).Once()
				r.On("UpdateState", ctx, mock.AnythingOfType("models.InventorySnapshot")).Return(nil).Once()
			},
			expectedChanges: nil,
		},
		{
			name: "No change with always-notify still sends the report",
			opts: checker.Options{OnlyNotifyOnChanges: false},
			setupMocks: func(f *mocks.Fetcher, r *mocks.StateRepository, rn *mocks.Renderer, n *mocks.Notifier) {
				f.On("FetchAll", ctx).Return([]models.Product{tee}, nil).Once()
				r.On("GetState", ctx).Return(currentState, nil).Once()
				rn.On("Render", []models.ChangeRecord(nil), currentState).Return(report, nil).Once()
				n.On("Notify", ctx, report).Return(nil).Once()
				r.On("UpdateState", ctx, mock.Anything).Return(nil).Once()
			},
			expectNotified: true,
		},
		{
			name: "First launch: every product is new",
			opts: checker.Options{OnlyNotifyOnChanges: true},
			setupMocks: func(f *mocks.Fetcher, r *mocks.StateRepository, rn *mocks.Renderer, n *mocks.Notifier) {
				f.On("FetchAll", ctx).Return([]models.Product{tee, {ID: "2", Title: "Cap"}}, nil).Once()
				r.On("GetState", ctx).Return(nil, repository.ErrStateNotFound).Once()
				rn.On("Render", mock.Anything, mock.Anything).Return(report, nil).Once()
				n.On("Notify", ctx, report).Return(nil).Once()
				r.On("UpdateState", ctx, mock.Anything).Return(nil).Once()
			},
			expectedChanges: []models.ChangeKind{models.ChangeNew, models.ChangeNew},
			expectNotified:  true,
		},
		{
			name: "Unreadable state is treated as empty",
			opts: checker.Options{OnlyNotifyOnChanges: true},
			setupMocks: func(f *mocks.Fetcher, r *mocks.StateRepository, rn *mocks.Renderer, n *mocks.Notifier) {
				f.On("FetchAll", ctx).Return([]models.Product{tee}, nil).Once()
				r.On("GetState", ctx).Return(nil, errs.Mark(assert.AnError, errs.ErrStorage)).Once()
				rn.On("Render", mock.Anything, mock.Anything).Return(report, nil).Once()
				n.On("Notify", ctx, report).Return(nil).Once()
				r.On("UpdateState", ctx, currentState).Return(nil).Once()
			},
			expectedChanges: []models.ChangeKind{models.ChangeNew},
			expectNotified:  true,
		},
		{
			name: "Removed product is reported",
			opts: checker.Options{OnlyNotifyOnChanges: true},
			setupMocks: func(f *mocks.Fetcher, r *mocks.StateRepository, rn *mocks.Renderer, n *mocks.Notifier) {
				f.On("FetchAll", ctx).Return([]models.Product{}, nil).Once()
				r.On("GetState", ctx).Return(currentState, nil).Once()
				rn.On("Render", mock.Anything, mock.Anything).Return(report, nil).Once()
				n.On("Notify", ctx, report).Return(nil).Once()
				r.On("UpdateState", ctx, models.InventorySnapshot{}).Return(nil).Once()
			},
			expectedChanges: []models.ChangeKind{models.ChangeRemoved},
			expectNotified:  true,
		},
		{
			name: "Delivery failure does not block persisting",
			opts: checker.Options{OnlyNotifyOnChanges: true},
			setupMocks: func(f *mocks.Fetcher, r *mocks.StateRepository, rn *mocks.Renderer, n *mocks.Notifier) {
				f.On("FetchAll", ctx).Return([]models.Product{tee}, nil).Once()
				r.On("GetState", ctx).Return(previousSoldOut, nil).Once()
				rn.On("Render", mock.Anything, mock.Anything).Return(report, nil).Once()
				n.On("Notify", ctx, report).Return(errs.Mark(errors.New("smtp 554"), errs.ErrDelivery)).Once()
				r.On("UpdateState", ctx, currentState).Return(nil).Once()
			},
			expectError:     true,
			expectedMark:    errs.ErrDelivery,
			expectedChanges: []models.ChangeKind{models.ChangeChanged},
		},
		{
			name: "Error: catalog cannot be fetched",
			opts: checker.Options{OnlyNotifyOnChanges: true},
			setupMocks: func(f *mocks.Fetcher, _ *mocks.StateRepository, _ *mocks.Renderer, _ *mocks.Notifier) {
				f.On("FetchAll", ctx).Return(nil, errs.Mark(errors.New("network down"), errs.ErrNetwork)).Once()
			},
			expectError:  true,
			expectedMark: errs.ErrNetwork,
		},
		{
			name: "Error: catalog cannot be parsed",
			opts: checker.Options{OnlyNotifyOnChanges: true},
			setupMocks: func(f *mocks.Fetcher, _ *mocks.StateRepository, _ *mocks.Renderer, _ *mocks.Notifier) {
				f.On("FetchAll", ctx).Return(nil, errs.Mark(errors.New("bad json"), errs.ErrParse)).Once()
			},
			expectError:  true,
			expectedMark: errs.ErrParse,
		},
		{
			name: "Error: report cannot be rendered",
			opts: checker.Options{OnlyNotifyOnChanges: true},
			setupMocks: func(f *mocks.Fetcher, r *mocks.StateRepository, rn *mocks.Renderer, _ *mocks.Notifier) {
				f.On("FetchAll", ctx).Return([]models.Product{tee}, nil).Once()
				r.On("GetState", ctx).Return(previousSoldOut, nil).Once()
				rn.On("Render", mock.Anything, mock.Anything).Return(models.Report{}, assert.AnError).Once()
			},
			expectError: true,
		},
		{
			name: "Error: repository cannot update state",
			opts: checker.Options{OnlyNotifyOnChanges: true},
			setupMocks: func(f *mocks.Fetcher, r *mocks.StateRepository, _ *mocks.Renderer, _ *mocks.Notifier) {
				f.On("FetchAll", ctx).Return([]models.Product{tee}, nil).Once()
				r.On("GetState", ctx).Return(currentState, nil).Once()
				r.On("UpdateState", ctx, mock.Anything).Return(errs.Mark(errors.New("disk full"), errs.ErrStorage)).Once()
			},
			expectError:  true,
			expectedMark: errs.ErrStorage,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockFetcher := mocks.NewFetcher(t)
			mockRepo := mocks.NewStateRepository(t)
			mockRenderer := mocks.NewRenderer(t)
			mockNotifier := mocks.NewNotifier(t)
			tc.setupMocks(mockFetcher, mockRepo, mockRenderer, mockNotifier)

			runChecker := checker.NewChecker(logger, mockFetcher, mockRepo, mockRenderer, mockNotifier, tc.opts)

			result, err := runChecker.Run(ctx)

			if tc.expectError {
				require.Error(t, err)
				if tc.expectedMark != nil {
					assert.True(t, errs.Is(err, tc.expectedMark), "expected %v in %v", tc.expectedMark, err)
				}
			} else {
				require.NoError(t, err)
			}

			if result == nil {
				assert.Nil(t, tc.expectedChanges)
				return
			}

			var kinds []models.ChangeKind
			for _, c := range result.Changes {
				kinds = append(kinds, c.Kind)
			}
			assert.Equal(t, tc.expectedChanges, kinds)
			assert.Equal(t, tc.expectNotified, result.Notified)
			assert.NotEmpty(t, result.RunID)
		})
	}
}
