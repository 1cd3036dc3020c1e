package utils_test

import (
	"errors"
	"testing"
	"time"

	"github.com/craftchain/marketplace-service/pkg/utils"

	"github.com/stretchr/testify/assert"
)

func TestRetry(t *testing.T) {
	cfg := utils.RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond}

	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := utils.Retry(cfg, func() error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		calls := 0
		wantErr := errors.New("persistent")
		err := utils.Retry(cfg, func() error {
			calls++
			return wantErr
		})
		assert.ErrorIs(t, err, wantErr)
		assert.Equal(t, 3, calls)
	})

	t.Run("stop errors end the loop immediately", func(t *testing.T) {
		stopErr := errors.New("fatal")
		calls := 0
		err := utils.Retry(cfg, func() error {
			calls++
			return stopErr
		}, stopErr)
		assert.ErrorIs(t, err, stopErr)
		assert.Equal(t, 1, calls)
	})
}
