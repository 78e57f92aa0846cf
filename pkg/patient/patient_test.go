package patient_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rxportal/patientkit/pkg/patient"
)

func TestMockSource(t *testing.T) {
	ctx := context.Background()
	src := patient.NewMockSource(patient.WithDelay(0))

	t.Run("dashboard", func(t *testing.T) {
		d, err := src.Dashboard(ctx)
		require.NoError(t, err)
		assert.Equal(t, "John Doe", d.FullName)
		assert.Equal(t, "P-12345", d.PatientID)
		assert.Equal(t, "2025-07-10", d.NextDeliveryDate)
		assert.True(t, d.Status.Active)
		assert.Equal(t, "OK", d.Status.Billing)
	})

	t.Run("shipments", func(t *testing.T) {
		list, err := src.Shipments(ctx)
		require.NoError(t, err)
		require.Len(t, list, 6)
		assert.Equal(t, "SH-2025-001", list[0].ID)
		assert.Nil(t, list[0].EstimatedDelivery)
		require.NotNil(t, list[1].EstimatedDelivery)
		assert.Equal(t, "2025-07-08", *list[1].EstimatedDelivery)
		assert.Equal(t, patient.StatusProcessing, list[2].Status)

		list[0].ID = "mutated"
		again, err := src.Shipments(ctx)
		require.NoError(t, err)
		assert.Equal(t, "SH-2025-001", again[0].ID)
	})

	t.Run("delay honours context", func(t *testing.T) {
		slow := patient.NewMockSource(patient.WithDelay(time.Hour))
		cctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()

		_, err := slow.Dashboard(cctx)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("delay elapses", func(t *testing.T) {
		src := patient.NewMockSource(patient.WithDelay(10 * time.Millisecond))
		start := time.Now()
		_, err := src.Shipments(ctx)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
	})
}

func TestNewMockSourceFromYAML(t *testing.T) {
	t.Run("case-insensitive status", func(t *testing.T) {
		src, err := patient.NewMockSourceFromYAML([]byte(`
shipments:
  - id: A
    status: delivered
  - id: B
    status: SHIPPED
`), patient.WithDelay(0))
		require.NoError(t, err)

		list, err := src.Shipments(context.Background())
		require.NoError(t, err)
		assert.Equal(t, patient.StatusDelivered, list[0].Status)
		assert.Equal(t, patient.StatusShipped, list[1].Status)
	})

	t.Run("unknown status", func(t *testing.T) {
		_, err := patient.NewMockSourceFromYAML([]byte("shipments:\n  - status: lost\n"))
		assert.ErrorIs(t, err, patient.ErrInvalidFixture)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := patient.NewMockSourceFromYAML([]byte("dashboard: [unterminated"))
		assert.ErrorIs(t, err, patient.ErrInvalidFixture)
	})
}

func TestParseShipmentStatus(t *testing.T) {
	st, err := patient.ParseShipmentStatus(" processing ")
	require.NoError(t, err)
	assert.Equal(t, patient.StatusProcessing, st)

	_, err = patient.ParseShipmentStatus("returned")
	assert.ErrorIs(t, err, patient.ErrUnknownStatus)
}

func TestSummarize(t *testing.T) {
	list, err := patient.NewMockSource(patient.WithDelay(0)).Shipments(context.Background())
	require.NoError(t, err)

	assert.Equal(t, patient.Summary{Total: 6, Delivered: 4, Shipped: 1, Processing: 1}, patient.Summarize(list))
	assert.Equal(t, patient.Summary{}, patient.Summarize(nil))
}
