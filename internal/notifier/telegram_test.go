package notifier_test

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/Houeta/stock-flow/internal/errs"
	"github.com/Houeta/stock-flow/internal/models"
	"github.com/Houeta/stock-flow/internal/notifier"
	"github.com/Houeta/stock-flow/test/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gopkg.in/telebot.v4"
)

func TestTelegram_Notify(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	report := models.Report{
		Subject: "Shop stock report: 1 change",
		Changes: []models.ChangeRecord{{
			ID: "1", Title: "Tee", URL: "https://shop.test/products/tee",
			Kind: models.ChangeChanged, Current: models.PartiallySoldOut, ChangedSizes: []string{"S"},
		}},
	}

	t.Run("sends to every chat", func(t *testing.T) {
		api := mocks.NewTelegramAPI(t)
		api.On("Send", telebot.ChatID(1), mock.AnythingOfType("string"), telebot.ModeHTML).Return(&telebot.Message{}, nil).Once()
		api.On("Send", telebot.ChatID(2), mock.AnythingOfType("string"), telebot.ModeHTML).Return(&telebot.Message{}, nil).Once()

		tg := notifier.NewTelegramWithAPI(logger, api, []int64{1, 2})

		require.NoError(t, tg.Notify(t.Context(), report))
	})

	t.Run("a failing chat does not stop the others", func(t *testing.T) {
		api := mocks.NewTelegramAPI(t)
		api.On("Send", telebot.ChatID(1), mock.Anything, mock.Anything).Return(nil, telebot.ErrChatNotFound).Once()
		api.On("Send", telebot.ChatID(2), mock.Anything, mock.Anything).Return(&telebot.Message{}, nil).Once()

		tg := notifier.NewTelegramWithAPI(logger, api, []int64{1, 2})

		err := tg.Notify(t.Context(), report)

		require.Error(t, err)
		assert.True(t, errs.Is(err, errs.ErrDelivery))
		assert.Contains(t, err.Error(), "chat 1")
	})
}

func TestTelegramSummary(t *testing.T) {
	report := models.Report{
		Subject: "Shop <stock> report",
		Changes: []models.ChangeRecord{
			{ID: "1", Title: "Tee & co", URL: "https://shop.test/products/tee", Kind: models.ChangeNew,
				Current: models.FullyAvailable, ChangedSizes: []string{"S", "M"}},
			{ID: "2", Title: "Cap", Kind: models.ChangeRemoved, Previous: models.FullySoldOut},
		},
	}

	summary := notifier.TelegramSummary(report)

	assert.Equal(t, strings.Join([]string{
		"<b>Shop &lt;stock&gt; report</b>",
		"New: 1, changed: 0, removed: 1",
		`• <a href="https://shop.test/products/tee">Tee &amp; co</a>: Fully Available (S, M)`,
		"• Cap: removed",
		"",
	}, "\n"), summary)
}

func TestTelegramSummary_Truncates(t *testing.T) {
	var changes []models.ChangeRecord
	for i := range 25 {
		changes = append(changes, models.ChangeRecord{ID: fmt.Sprint(i), Title: fmt.Sprintf("P%d", i),
			Kind: models.ChangeNew, Current: models.FullySoldOut})
	}

	summary := notifier.TelegramSummary(models.Report{Subject: "s", Changes: changes})

	assert.Equal(t, 20, strings.Count(summary, "• "))
	assert.Contains(t, summary, "…and 5 more")
}
