package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConnectRejectsEmptyURL(t *testing.T) {
	_, err := Connect(context.Background(), "")
	assert.EqualError(t, err, "database URL cannot be empty")
}
