package errs_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Houeta/stock-flow/internal/errs"
	"github.com/stretchr/testify/assert"
)

func TestMark(t *testing.T) {
	t.Run("marked error is matched through fmt wrapping", func(t *testing.T) {
		base := errors.New("connection refused")
		err := fmt.Errorf("catalog.Page: %w", errs.Mark(base, errs.ErrNetwork))

		assert.True(t, errs.Is(err, errs.ErrNetwork))
		assert.False(t, errs.Is(err, errs.ErrParse))
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("nil error yields the mark", func(t *testing.T) {
		assert.Equal(t, errs.ErrStorage, errs.Mark(nil, errs.ErrStorage))
	})

	t.Run("mark survives a second fmt wrap", func(t *testing.T) {
		err := fmt.Errorf("checker.Run: %w",
			fmt.Errorf("notifier.Email.Notify: %w", errs.Mark(errors.New("smtp 550"), errs.ErrDelivery)))

		assert.True(t, errs.Is(err, errs.ErrDelivery))
		assert.Equal(t, "checker.Run: notifier.Email.Notify: smtp 550", err.Error())
	})
}
