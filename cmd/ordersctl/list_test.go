package main

import (
	"bytes"
	"testing"

	"sales-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderOrders(t *testing.T) {
	total := 50.0
	sold := "2024-03-01 10:00:00"
	rows := []models.OrderRecord{
		{ID: 7, CompanyID: "C1", StoreID: 1, OrderID: 100, SkuID: "SKU1", Produced: 1, Total: &total, SaleDatetime: &sold},
		{ID: 8, CompanyID: "C1", StoreID: 2, OrderID: 101, SkuID: "SKU2", Produced: 0.5},
	}

	var buf bytes.Buffer
	require.NoError(t, renderOrders(&buf, rows))

	out := buf.String()
	assert.Contains(t, out, "SKU1")
	assert.Contains(t, out, "2024-03-01 10:00:00")
	assert.Contains(t, out, "0.5")
	assert.Contains(t, out, "-")
}

func TestReadInputMissingFile(t *testing.T) {
	_, err := readInput("does-not-exist.json")
	assert.Error(t, err)
}
