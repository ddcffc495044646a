package notifier_test

import (
	"errors"
	"testing"

	"github.com/Houeta/stock-flow/internal/errs"
	"github.com/Houeta/stock-flow/internal/models"
	"github.com/Houeta/stock-flow/internal/notifier"
	"github.com/Houeta/stock-flow/test/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMulti_Notify(t *testing.T) {
	ctx := t.Context()
	report := models.Report{Subject: "s"}

	t.Run("all channels succeed", func(t *testing.T) {
		first, second := mocks.NewNotifier(t), mocks.NewNotifier(t)
		first.On("Notify", ctx, report).Return(nil).Once()
		second.On("Notify", ctx, report).Return(nil).Once()

		require.NoError(t, notifier.Multi{first, second}.Notify(ctx, report))
	})

	t.Run("one failure still reaches the other channel", func(t *testing.T) {
		first, second := mocks.NewNotifier(t), mocks.NewNotifier(t)
		first.On("Notify", ctx, report).Return(errors.New("smtp down")).Once()
		second.On("Notify", ctx, report).Return(nil).Once()

		err := notifier.Multi{first, second}.Notify(ctx, report)

		require.Error(t, err)
		assert.True(t, errs.Is(err, errs.ErrDelivery))
		assert.Contains(t, err.Error(), "1 of 2 notifiers failed")
		assert.Contains(t, err.Error(), "smtp down")
	})

	t.Run("no channels", func(t *testing.T) {
		assert.NoError(t, notifier.Multi{}.Notify(ctx, report))
	})
}
