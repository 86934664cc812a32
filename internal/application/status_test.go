package application

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	t.Parallel()

	for _, valid := range []string{"pending", "under_review", "approved", "rejected"} {
		status, err := ParseStatus(valid)
		require.NoError(t, err)
		assert.Equal(t, valid, status.String())
	}

	for _, invalid := range []string{"", "Pending", "in_review", "denied"} {
		_, err := ParseStatus(invalid)
		assert.Error(t, err, "status %q should not parse", invalid)
	}
}
