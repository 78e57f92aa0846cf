package patient

import (
	"context"
	_ "embed"
	"errors"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed fixture.yaml
var defaultFixture []byte

// DefaultDelay is the simulated network latency of MockSource.
const DefaultDelay = time.Second

type fixture struct {
	Dashboard Dashboard  `yaml:"dashboard"`
	Shipments []Shipment `yaml:"shipments"`
}

// MockSource serves fixture data after a simulated delay.
type MockSource struct {
	data  fixture
	delay time.Duration
}

// MockOption configures a MockSource.
type MockOption func(*MockSource)

// WithDelay sets the simulated latency. Zero disables it.
func WithDelay(d time.Duration) MockOption {
	return func(m *MockSource) { m.delay = d }
}

// NewMockSource loads the embedded fixture.
func NewMockSource(opts ...MockOption) *MockSource {
	m, err := NewMockSourceFromYAML(defaultFixture, opts...)
	if err != nil {
		panic(err)
	}
	return m
}

// NewMockSourceFromYAML loads a fixture document.
func NewMockSourceFromYAML(doc []byte, opts ...MockOption) (*MockSource, error) {
	var f fixture
	if err := yaml.Unmarshal(doc, &f); err != nil {
		return nil, errors.Join(ErrInvalidFixture, err)
	}

	m := &MockSource{data: f, delay: DefaultDelay}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

func (m *MockSource) Dashboard(ctx context.Context) (Dashboard, error) {
	if err := m.wait(ctx); err != nil {
		return Dashboard{}, err
	}
	return m.data.Dashboard, nil
}

func (m *MockSource) Shipments(ctx context.Context) ([]Shipment, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	return slices.Clone(m.data.Shipments), nil
}

func (m *MockSource) wait(ctx context.Context) error {
	if m.delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(m.delay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
