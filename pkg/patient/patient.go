package patient

import (
	"context"
	"fmt"
	"strings"
)

// Dashboard is the patient overview.
type Dashboard struct {
	FullName            string `json:"fullName" yaml:"fullName"`
	PatientID           string `json:"patientId" yaml:"patientId"`
	CurrentPlan         string `json:"currentPlan" yaml:"currentPlan"`
	NextDeliveryDate    string `json:"nextDeliveryDate" yaml:"nextDeliveryDate"`
	RemainingMedication string `json:"remainingMedication" yaml:"remainingMedication"`
	Status              Status `json:"status" yaml:"status"`
}

// Status is the account state.
type Status struct {
	Active  bool   `json:"active" yaml:"active"`
	Billing string `json:"billing" yaml:"billing"`
}

// ShipmentStatus is the delivery state of a shipment.
type ShipmentStatus string

const (
	StatusDelivered  ShipmentStatus = "Delivered"
	StatusShipped    ShipmentStatus = "Shipped"
	StatusProcessing ShipmentStatus = "Processing"
)

// ParseShipmentStatus matches s case-insensitively.
func ParseShipmentStatus(s string) (ShipmentStatus, error) {
	for _, st := range []ShipmentStatus{StatusDelivered, StatusShipped, StatusProcessing} {
		if strings.EqualFold(strings.TrimSpace(s), string(st)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

// UnmarshalYAML accepts any casing of a known status.
func (s *ShipmentStatus) UnmarshalYAML(unmarshal func(any) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	st, err := ParseShipmentStatus(raw)
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// Shipment is one medication delivery.
type Shipment struct {
	ID                string         `json:"id" yaml:"id"`
	Date              string         `json:"date" yaml:"date"`
	Status            ShipmentStatus `json:"status" yaml:"status"`
	Quantity          string         `json:"quantity" yaml:"quantity"`
	TrackingNumber    string         `json:"trackingNumber" yaml:"trackingNumber"`
	DeliveryAddress   string         `json:"deliveryAddress" yaml:"deliveryAddress"`
	EstimatedDelivery *string        `json:"estimatedDelivery" yaml:"estimatedDelivery"`
}

// Source provides patient data.
type Source interface {
	Dashboard(ctx context.Context) (Dashboard, error)
	Shipments(ctx context.Context) ([]Shipment, error)
}

// Summary counts shipments by status.
type Summary struct {
	Total      int `json:"total"`
	Delivered  int `json:"delivered"`
	Shipped    int `json:"shipped"`
	Processing int `json:"processing"`
}

// Summarize counts shipments by status.
func Summarize(shipments []Shipment) Summary {
	s := Summary{Total: len(shipments)}
	for _, sh := range shipments {
		switch sh.Status {
		case StatusDelivered:
			s.Delivered++
		case StatusShipped:
			s.Shipped++
		case StatusProcessing:
			s.Processing++
		}
	}
	return s
}
